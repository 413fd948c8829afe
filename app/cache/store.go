// Package cache provides the key-value cache store the pipeline publishes
// into and the query layer reads from. All implementations tolerate an
// unavailable backend: reads miss, writes fail softly, the process keeps
// running and recomputes from scratch.
package cache

import (
	"context"
	"time"
)

// Store is the cache contract. Values are marshaled to JSON; Get unmarshals
// into dest and reports whether the key was present. Invalidate removes every
// key under the given prefix.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string, dest any) (bool, error)
	Invalidate(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
	Close() error
}
