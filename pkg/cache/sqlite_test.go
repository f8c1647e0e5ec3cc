package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := testDB(t)

	_, err := s.Get(ctx, "v1:stocks:default")
	require.ErrorIs(t, err, ErrCacheMiss)

	want := entry(`{"quotes":[{"ticker":"AAPL"}]}`, "Finnhub")
	require.NoError(t, s.Set(ctx, "v1:stocks:default", want))

	got, err := s.Get(ctx, "v1:stocks:default")
	require.NoError(t, err)
	assert.Equal(t, want.Source, got.Source)
	assert.Equal(t, want.ETag, got.ETag)
	assert.True(t, want.StoredAt.Equal(got.StoredAt))
	assert.JSONEq(t, string(want.Payload), string(got.Payload))
}

func TestSQLiteStoreUpsert(t *testing.T) {
	ctx := context.Background()
	s := testDB(t)

	require.NoError(t, s.Set(ctx, "k", entry(`[1]`, "A")))
	require.NoError(t, s.Set(ctx, "k", entry(`[2]`, "B")))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "B", got.Source)
	assert.JSONEq(t, `[2]`, string(got.Payload))
}

func TestOpenSQLiteEmptyPath(t *testing.T) {
	_, err := OpenSQLite("")
	assert.Error(t, err)
}
