package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks PulseDesk/pkg/cache Store

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Entry is the last known-good payload for one request identity.
// Entries never expire; a newer successful fetch overwrites them.
type Entry struct {
	Payload  json.RawMessage `json:"payload"`
	Source   string          `json:"source"`
	StoredAt time.Time       `json:"storedAt"`
	ETag     string          `json:"etag"`
}

// Age reports how old the entry is at now.
func (e *Entry) Age(now time.Time) time.Duration {
	if e == nil || now.Before(e.StoredAt) {
		return 0
	}
	return now.Sub(e.StoredAt)
}

func (e *Entry) clone() *Entry {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Payload = append(json.RawMessage(nil), e.Payload...)
	return &cp
}

// Store persists entries by key. Writes are whole-entry replacements and the
// last writer wins.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry) error
	Close() error
}

// New builds the store selected by cfg.Backend.
func New(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		// the primary store never evicts; entries are only superseded
		return NewMemoryStore(), nil
	case BackendSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case BackendRedis:
		return NewRedisStore(cfg.redisOptions()...)
	case BackendLayered:
		l2, err := newDurable(cfg)
		if err != nil {
			return nil, err
		}
		return NewLayeredStore(l2, WithLayeredMemorySize(cfg.MemoryMaxSize)), nil
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
	}
}

func newDurable(cfg Config) (Store, error) {
	switch cfg.Durable {
	case "", BackendRedis:
		return NewRedisStore(cfg.redisOptions()...)
	case BackendSQLite:
		return OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("cache: unknown durable backend %q", cfg.Durable)
	}
}
