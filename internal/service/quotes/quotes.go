// Package quotes holds the market data provider adapters. Every adapter
// returns one models.Quote per symbol it could price; labels, ordering and
// mover ranking are applied by the chain sanitizer.
package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"PulseDesk/internal/domain/models"
	drepo "PulseDesk/internal/domain/repository"
	pkghttp "PulseDesk/pkg/http"
)

const defaultConcurrency = 4

// Source configures one market API.
type Source struct {
	APIKey  string
	BaseURL string
	// Symbols maps dashboard tickers to upstream identifiers. Tickers without
	// an entry are sent as-is unless the adapter requires a mapping.
	Symbols map[string]string
	// Concurrency bounds per-symbol fan-out.
	Concurrency int
}

func (s Source) upstream(ticker string) (string, bool) {
	v, ok := s.Symbols[strings.ToUpper(ticker)]
	return v, ok
}

func (s Source) concurrency() int {
	if s.Concurrency > 0 {
		return s.Concurrency
	}
	return defaultConcurrency
}

func requireKey(name string, s Source) error {
	if strings.TrimSpace(s.APIKey) == "" {
		return fmt.Errorf("%s: api key: %w", name, drepo.ErrNotConfigured)
	}
	return requireURL(name, s)
}

func requireURL(name string, s Source) error {
	if _, err := url.ParseRequestURI(s.BaseURL); err != nil {
		return fmt.Errorf("%s: base url: %w", name, drepo.ErrNotConfigured)
	}
	return nil
}

// fanOut prices each symbol concurrently. Per-symbol failures are tolerated
// as long as one symbol succeeds; otherwise the joined errors are returned.
func fanOut(ctx context.Context, symbols []string, limit int, fn func(context.Context, string) (*models.Quote, error)) (models.QuoteSet, error) {
	var (
		mu   sync.Mutex
		out  = make([]models.Quote, 0, len(symbols))
		errs []error
	)

	var g errgroup.Group
	g.SetLimit(limit)
	for _, sym := range symbols {
		g.Go(func() error {
			q, err := fn(ctx, sym)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				errs = append(errs, fmt.Errorf("%s: %w", sym, err))
			case q != nil:
				out = append(out, *q)
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(out) == 0 && len(errs) > 0 {
		return models.QuoteSet{}, errors.Join(errs...)
	}
	return models.QuoteSet{Quotes: out}, nil
}

func decodeJSON(body []byte, dest any) error {
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: %v", pkghttp.ErrDecode, err)
	}
	return nil
}

// apiError reports an error carried inside a 200 OK body.
func apiError(provider, message string) error {
	return &pkghttp.UpstreamError{Provider: provider, Status: 200, Body: message}
}

func ptr(f float64) *float64 { return &f }
