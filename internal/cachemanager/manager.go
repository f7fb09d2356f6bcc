// Package cachemanager provides generic in-memory caches with per-entry TTLs.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager stores values by key. Implementations must be safe for concurrent use.
type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K)
	Flush(ctx context.Context)
	ItemCount() int
}
