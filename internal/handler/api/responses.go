package api

import (
	"time"

	"PulseDesk/internal/domain/models"
)

// NewsResponse is the body of GET /api/news.
type NewsResponse struct {
	Status    string           `json:"status"`
	Section   string           `json:"section"`
	Articles  []models.Article `json:"articles"`
	Source    string           `json:"source"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Stale     bool             `json:"stale,omitempty"`
	Attempts  []models.Attempt `json:"attempts,omitempty"`
}

// QuotesResponse is the body of GET /api/market and GET /api/movers.
type QuotesResponse struct {
	Status    string           `json:"status"`
	Group     string           `json:"group"`
	Data      models.QuoteSet  `json:"data"`
	Source    string           `json:"source"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Stale     bool             `json:"stale,omitempty"`
	Attempts  []models.Attempt `json:"attempts,omitempty"`
}

// MiniGroup is one group of the mini market strip.
type MiniGroup struct {
	Quotes    []models.Quote   `json:"quotes"`
	Source    string           `json:"source"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Stale     bool             `json:"stale,omitempty"`
	Attempts  []models.Attempt `json:"attempts,omitempty"`
}

// MiniResponse is the body of GET /api/mini. Errors lists the groups that
// had no data.
type MiniResponse struct {
	Status string                `json:"status"`
	Data   map[string]*MiniGroup `json:"data"`
	Errors map[string]string     `json:"errors,omitempty"`
}

// HealthResponse is the body of GET /api/health. Status is "degraded" when
// some category has no ready provider.
type HealthResponse struct {
	Status    string                       `json:"status"`
	Providers map[string]map[string]string `json:"providers"`
}
