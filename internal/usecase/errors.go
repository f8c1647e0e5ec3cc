package usecase

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"PulseDesk/internal/domain/models"
	drepo "PulseDesk/internal/domain/repository"
	pkghttp "PulseDesk/pkg/http"
)

var (
	// ErrBadRequest is the parent of every request identity error.
	ErrBadRequest      = errors.New("bad request")
	ErrUnknownCategory = fmt.Errorf("%w: unknown category", ErrBadRequest)
	ErrUnknownKey      = fmt.Errorf("%w: unknown key", ErrBadRequest)
)

// ExhaustedError means every provider failed or was skipped and nothing was cached.
type ExhaustedError struct {
	Identity models.Identity
	Attempts []models.Attempt
}

func (e *ExhaustedError) Error() string {
	names := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		names = append(names, a.Provider+"("+a.Kind+")")
	}
	return fmt.Sprintf("no data available for %s: all providers failed: %s", e.Identity, strings.Join(names, ", "))
}

// IsExhausted reports whether err is an *ExhaustedError.
func IsExhausted(err error) bool {
	var ex *ExhaustedError
	return errors.As(err, &ex)
}

const maxMessage = 300

// classify maps a provider error to an attempt kind and, for HTTP errors, the upstream status.
// parent is the request context, used to tell a request cancellation from a provider timeout.
func classify(parent context.Context, err error) (string, int) {
	var (
		upstream *pkghttp.UpstreamError
		netErr   net.Error
	)
	switch {
	case errors.Is(err, drepo.ErrNotConfigured):
		return models.KindConfig, 0
	case errors.Is(parent.Err(), context.Canceled), errors.Is(err, context.Canceled):
		return models.KindCanceled, 0
	case errors.Is(err, context.DeadlineExceeded):
		return models.KindTimeout, 0
	case errors.As(err, &upstream):
		return models.KindHTTP, upstream.Status
	case errors.Is(err, pkghttp.ErrDecode):
		return models.KindDecode, 0
	case errors.As(err, &netErr) && netErr.Timeout():
		return models.KindTimeout, 0
	default:
		return models.KindNetwork, 0
	}
}

func truncate(s string) string {
	if len(s) <= maxMessage {
		return s
	}
	return s[:maxMessage] + "..."
}
