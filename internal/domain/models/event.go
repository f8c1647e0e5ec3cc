package models

import "time"

// Attempt kinds.
const (
	KindConfig   = "config"
	KindTimeout  = "timeout"
	KindHTTP     = "http"
	KindDecode   = "decode"
	KindEmpty    = "empty"
	KindNetwork  = "network"
	KindCanceled = "canceled"
)

// Attempt records one provider call (or skip) inside a fetch.
type Attempt struct {
	Provider   string `json:"provider"`
	Kind       string `json:"kind,omitempty"`
	Message    string `json:"message,omitempty"`
	Status     int    `json:"status,omitempty"`
	Records    int    `json:"records,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

// OK reports whether the attempt produced data.
func (a Attempt) OK() bool { return a.Kind == "" }

// Fetch outcomes.
const (
	OutcomeFresh     = "fresh"     // served from cache inside the cooldown window
	OutcomeProvider  = "provider"  // a provider succeeded
	OutcomeStale     = "stale"     // every provider failed, stale cache served
	OutcomeExhausted = "exhausted" // every provider failed, nothing cached
)

// FetchEvent is the audit record of one orchestrated fetch.
type FetchEvent struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	Key        string    `json:"key"`
	Outcome    string    `json:"outcome"`
	Source     string    `json:"source,omitempty"`
	Records    int       `json:"records"`
	Attempts   []Attempt `json:"attempts,omitempty"`
	DurationMS int64     `json:"durationMs"`
	At         time.Time `json:"at"`
}
