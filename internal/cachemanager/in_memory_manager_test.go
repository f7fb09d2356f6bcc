package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type board struct {
	Name  string
	Total int
}

func TestInMemoryCacheManager_SetThenGet(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string, board]("boards", DefaultExpiration, DefaultCleanupInterval)

	cache.Set(ctx, "b:1", board{Name: "fruit", Total: 3}, 0)

	got, ok := cache.Get(ctx, "b:1")
	require.True(t, ok)
	require.Equal(t, board{Name: "fruit", Total: 3}, got)
	require.Equal(t, 1, cache.ItemCount())
}

func TestInMemoryCacheManager_Miss(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("boards", DefaultExpiration, DefaultCleanupInterval)

	got, ok := cache.Get(context.Background(), "missing")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_Expires(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string, string]("boards", DefaultExpiration, DefaultCleanupInterval)

	cache.Set(ctx, "short", "x", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := cache.Get(ctx, "short")
	require.False(t, ok)
}

func TestInMemoryCacheManager_GetWithRefreshExtendsTTL(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string, string]("boards", DefaultExpiration, DefaultCleanupInterval)

	cache.Set(ctx, "k", "v", 20*time.Millisecond)
	got, ok := cache.GetWithRefresh(ctx, "k", time.Hour)
	require.True(t, ok)
	require.Equal(t, "v", got)

	time.Sleep(40 * time.Millisecond)
	_, ok = cache.Get(ctx, "k")
	require.True(t, ok, "refresh should have replaced the short ttl")
}

func TestInMemoryCacheManager_DeleteAndFlush(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string, int]("counts", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(ctx, "a", 1, 0)
	cache.Set(ctx, "b", 2, 0)
	cache.Set(ctx, "c", 3, 0)

	cache.Delete(ctx, "a", "b")
	_, ok := cache.Get(ctx, "a")
	require.False(t, ok)
	require.Equal(t, 1, cache.ItemCount())

	cache.Flush(ctx)
	require.Zero(t, cache.ItemCount())
}

type key string

func TestInMemoryCacheManager_NamedKeyType(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[key, int]("typed", DefaultExpiration, DefaultCleanupInterval)

	cache.Set(ctx, key("x"), 7, 0)
	got, ok := cache.Get(ctx, key("x"))
	require.True(t, ok)
	require.Equal(t, 7, got)
}
