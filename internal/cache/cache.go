// Package cache stores catalog query results for a bounded stale time.
package cache

import (
	"context"
	"time"
)

// Cache stores JSON-encodable values under a key until ttl elapses.
// Get reports false on a miss or an expired entry.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
