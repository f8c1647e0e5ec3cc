package cache

import (
	"context"
	"errors"
)

// LayeredStore is a two-level store: an in-process L1 over a durable L2.
type LayeredStore struct {
	mem     *MemoryStore
	durable Store
}

// NewLayeredStore wraps durable with a bounded memory layer.
func NewLayeredStore(durable Store, opts ...LayeredOption) *LayeredStore {
	cfg := &LayeredConfig{
		MemoryMaxSize: 256,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &LayeredStore{
		mem:     NewMemoryStore(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		durable: durable,
	}
}

func (ls *LayeredStore) Get(ctx context.Context, key string) (*Entry, error) {
	if entry, err := ls.mem.Get(ctx, key); err == nil {
		return entry, nil
	}

	entry, err := ls.durable.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	// promote for the next read
	_ = ls.mem.Set(ctx, key, entry)
	return entry, nil
}

// Set writes through to both layers. The memory layer is updated even when
// the durable write fails so this instance keeps serving the newest entry.
func (ls *LayeredStore) Set(ctx context.Context, key string, entry *Entry) error {
	_ = ls.mem.Set(ctx, key, entry)
	return ls.durable.Set(ctx, key, entry)
}

// Close closes both layers.
func (ls *LayeredStore) Close() error {
	return errors.Join(ls.mem.Close(), ls.durable.Close())
}
