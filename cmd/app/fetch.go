package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"PulseDesk/internal/di"
	"PulseDesk/internal/domain/models"
	"PulseDesk/internal/usecase"
)

var flagTimeout time.Duration

var fetchCmd = &cobra.Command{
	Use:   "fetch <category> [key]",
	Short: "Run one fetch through a provider chain and print the result",
	Long: `Run one fetch through a provider chain and print the JSON result with its attempts.

Categories are news, stocks, crypto, metals, fx and movers. For news the key is a
section; for market groups it is a comma separated symbol list.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().DurationVar(&flagTimeout, "timeout", 30*time.Second, "overall fetch timeout")
}

// fetchOutput is printed by the fetch command.
type fetchOutput struct {
	Status    string           `json:"status"`
	Category  string           `json:"category"`
	Key       string           `json:"key"`
	Source    string           `json:"source,omitempty"`
	Fresh     bool             `json:"fresh,omitempty"`
	Stale     bool             `json:"stale,omitempty"`
	UpdatedAt *time.Time       `json:"updatedAt,omitempty"`
	Message   string           `json:"message,omitempty"`
	Attempts  []models.Attempt `json:"attempts,omitempty"`
	Data      any              `json:"data,omitempty"`
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// keep stdout for the result
	cfg.Logging.Output = "stderr"

	app, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	defer app.Close()

	id := identityFromArgs(args)

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	res, err := app.Fetchers.Fetch(ctx, id)
	out := buildOutput(id, res, err)
	if werr := writeJSON(cmd.OutOrStdout(), out); werr != nil {
		return werr
	}
	return err
}

func identityFromArgs(args []string) models.Identity {
	id := models.Identity{Category: args[0]}
	if len(args) > 1 {
		id.Key = args[1]
	}
	return id
}

func buildOutput(id models.Identity, res any, err error) fetchOutput {
	id = id.Canonical()
	out := fetchOutput{Status: "ok", Category: id.Category, Key: id.Key}

	var exhausted *usecase.ExhaustedError
	switch {
	case errors.As(err, &exhausted):
		out.Status = "error"
		out.Key = exhausted.Identity.Key
		out.Message = err.Error()
		out.Attempts = exhausted.Attempts
		return out
	case err != nil:
		out.Status = "error"
		out.Message = err.Error()
		return out
	}

	switch r := res.(type) {
	case *usecase.Result[models.ArticleSet]:
		fill(&out, r.Identity, r.Source, r.Fresh, r.Stale, r.StoredAt, r.Attempts)
		out.Data = r.Payload
	case *usecase.Result[models.QuoteSet]:
		fill(&out, r.Identity, r.Source, r.Fresh, r.Stale, r.StoredAt, r.Attempts)
		out.Data = r.Payload
	}
	return out
}

func fill(out *fetchOutput, id models.Identity, source string, fresh, stale bool, at time.Time, attempts []models.Attempt) {
	out.Key = id.Key
	out.Source = source
	out.Fresh = fresh
	out.Stale = stale
	out.Attempts = attempts
	if !at.IsZero() {
		utc := at.UTC()
		out.UpdatedAt = &utc
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
