package cache_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"PulseDesk/pkg/cache"
	"PulseDesk/pkg/cache/mocks"
)

func TestLayeredStorePromotesFromDurable(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	durable := mocks.NewMockStore(ctrl)

	stored := &cache.Entry{Payload: json.RawMessage(`[1]`), Source: "Yahoo", StoredAt: time.Now()}
	durable.EXPECT().Get(gomock.Any(), "k").Return(stored, nil).Times(1)

	ls := cache.NewLayeredStore(durable)
	got, err := ls.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "Yahoo", got.Source)

	// second read is served from memory; the mock would fail on a second call
	got, err = ls.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "Yahoo", got.Source)
}

func TestLayeredStoreMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	durable := mocks.NewMockStore(ctrl)
	durable.EXPECT().Get(gomock.Any(), "k").Return(nil, cache.ErrCacheMiss)

	_, err := cache.NewLayeredStore(durable).Get(context.Background(), "k")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestLayeredStoreWriteKeepsMemoryOnDurableFailure(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	durable := mocks.NewMockStore(ctrl)
	durable.EXPECT().Set(gomock.Any(), "k", gomock.Any()).Return(errors.New("redis down"))

	ls := cache.NewLayeredStore(durable)
	err := ls.Set(ctx, "k", &cache.Entry{Payload: json.RawMessage(`[1]`), Source: "A"})
	require.Error(t, err)

	got, err := ls.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Source)
}

func TestLayeredStoreClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	durable := mocks.NewMockStore(ctrl)
	durable.EXPECT().Close().Return(nil)
	assert.NoError(t, cache.NewLayeredStore(durable).Close())
}

func TestLayeredStoreRefillsEvictedEntries(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	durable := mocks.NewMockStore(ctrl)
	durable.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(3)
	durable.EXPECT().Get(gomock.Any(), "a").Return(&cache.Entry{Payload: json.RawMessage(`[1]`), Source: "A"}, nil)

	ls := cache.NewLayeredStore(durable, cache.WithLayeredMemorySize(2))
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, ls.Set(ctx, k, &cache.Entry{Payload: json.RawMessage(`[1]`), Source: "A"}))
		time.Sleep(2 * time.Millisecond)
	}

	// "a" fell out of memory and is read back from the durable layer
	got, err := ls.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Source)
}
