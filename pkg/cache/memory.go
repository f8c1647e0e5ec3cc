package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in process. Unbounded by default, so it can be
// the primary store. With a max size it evicts the least recently used key;
// that is only for layers that can be refilled, like the L1 of LayeredStore.
type MemoryStore struct {
	data    map[string]*Entry
	access  map[string]time.Time
	mutex   sync.Mutex
	maxSize int
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	cfg := &MemoryConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &MemoryStore{
		data:    make(map[string]*Entry),
		access:  make(map[string]time.Time),
		maxSize: cfg.MaxSize,
	}
}

func (ms *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	entry, ok := ms.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	ms.access[key] = time.Now()
	return entry.clone(), nil
}

func (ms *MemoryStore) Set(_ context.Context, key string, entry *Entry) error {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	if _, exists := ms.data[key]; !exists && ms.maxSize > 0 && len(ms.data) >= ms.maxSize {
		ms.evictLRU()
	}
	ms.data[key] = entry.clone()
	ms.access[key] = time.Now()
	return nil
}

// Len returns the number of stored entries.
func (ms *MemoryStore) Len() int {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()
	return len(ms.data)
}

func (ms *MemoryStore) Close() error {
	return nil
}

func (ms *MemoryStore) evictLRU() {
	var oldestKey string
	var oldestTime time.Time
	for key, accessTime := range ms.access {
		if oldestKey == "" || accessTime.Before(oldestTime) {
			oldestTime = accessTime
			oldestKey = key
		}
	}
	if oldestKey != "" {
		delete(ms.data, oldestKey)
		delete(ms.access, oldestKey)
	}
}
