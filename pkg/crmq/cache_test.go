package crmq_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmforce-io/crmq-client/pkg/crmq"
)

func liveEntry(data string) *crmq.CacheEntry {
	return &crmq.CacheEntry{
		Data:      []byte(data),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestMemoryCache_SetGet(t *testing.T) {
	t.Parallel()

	cache := crmq.NewMemoryCache(10)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key1", liveEntry("value1")))

	entry, err := cache.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, []byte("value1"), entry.Data)
	assert.True(t, cache.Has(ctx, "key1"))
}

func TestMemoryCache_GetMissing(t *testing.T) {
	t.Parallel()

	cache := crmq.NewMemoryCache(10)

	_, err := cache.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, crmq.ErrCacheKeyNotFound)
}

func TestMemoryCache_ExpiredEntry(t *testing.T) {
	t.Parallel()

	cache := crmq.NewMemoryCache(10)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key1", &crmq.CacheEntry{
		Data:      []byte("stale"),
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	_, err := cache.Get(ctx, "key1")
	require.Error(t, err)
	assert.ErrorIs(t, err, crmq.ErrCacheEntryExpired)
	assert.False(t, cache.Has(ctx, "key1"))
}

func TestMemoryCache_EvictsOldest(t *testing.T) {
	t.Parallel()

	cache := crmq.NewMemoryCache(2)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key1", liveEntry("1")))
	require.NoError(t, cache.Set(ctx, "key2", liveEntry("2")))
	require.NoError(t, cache.Set(ctx, "key3", liveEntry("3")))

	assert.False(t, cache.Has(ctx, "key1"))
	assert.True(t, cache.Has(ctx, "key2"))
	assert.True(t, cache.Has(ctx, "key3"))
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	t.Parallel()

	cache := crmq.NewMemoryCache(10)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key1", liveEntry("1")))
	require.NoError(t, cache.Set(ctx, "key2", liveEntry("2")))

	require.NoError(t, cache.Delete(ctx, "key1"))
	assert.False(t, cache.Has(ctx, "key1"))
	assert.True(t, cache.Has(ctx, "key2"))

	require.NoError(t, cache.Clear(ctx))
	assert.False(t, cache.Has(ctx, "key2"))
}

func TestQueryCacheKey(t *testing.T) {
	t.Parallel()

	key := crmq.QueryCacheKey("/v1/query", "SELECT Id FROM Account")
	assert.Equal(t, "query:/v1/query:SELECT Id FROM Account", key)
}
