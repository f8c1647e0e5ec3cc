package models

import (
	"strings"

	"PulseDesk/pkg/util"
)

// Identity names one logical request: a category (news, stocks, crypto, ...)
// and a key inside it (a section, a symbol list, "default").
type Identity struct {
	Category string   `json:"category"`
	Key      string   `json:"key"`
	Symbols  []string `json:"symbols,omitempty"`
}

// Canonical returns a trimmed, lower-cased copy. Symbols are upper-cased,
// de-duplicated and sorted, and when present they become the key so that
// "msft,AAPL" and "aapl,msft" share a cache entry.
func (id Identity) Canonical() Identity {
	out := Identity{
		Category: strings.ToLower(strings.TrimSpace(id.Category)),
		Key:      strings.ToLower(strings.TrimSpace(id.Key)),
	}
	if len(id.Symbols) > 0 {
		out.Symbols = util.UniqueSorted(id.Symbols)
		if len(out.Symbols) > 0 {
			out.Key = strings.ToLower(strings.Join(out.Symbols, ","))
		}
	}
	return out
}

// CacheKey is the cache store key for this identity.
func (id Identity) CacheKey() string {
	return "v1:" + id.Category + ":" + id.Key
}

func (id Identity) String() string {
	return id.Category + "/" + id.Key
}

// Query is what a provider adapter receives.
type Query struct {
	Identity
	// Limit is a hint for how many records to request upstream. Zero means provider default.
	Limit int
}
