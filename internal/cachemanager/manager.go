// Package cachemanager provides a generic TTL cache used by the fusion
// engine for alignment and resampled-volume data.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is a generic key/value cache with per-entry TTL.
type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}
