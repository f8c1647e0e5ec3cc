package repository

import (
	"context"
	"errors"

	"PulseDesk/internal/domain/models"
)

// ErrNotConfigured is returned by Ready when a provider lacks a credential or
// endpoint. The orchestrator skips such providers.
var ErrNotConfigured = errors.New("provider not configured")

// AuditPublisher ships fetch events to an audit sink.
type AuditPublisher interface {
	Publish(ctx context.Context, ev *models.FetchEvent) error
	Close() error
}

// Metrics records orchestrator outcomes.
type Metrics interface {
	RecordAttempt(category, provider, outcome string, seconds float64)
	RecordServed(category, source string)
	RecordCache(op, result string)
	RecordExhausted(category string)
}
