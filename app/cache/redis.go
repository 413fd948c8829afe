package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implements Store on top of a Redis server. An unreachable server is
// a supported degraded mode, not a construction failure: every operation
// reports the error and the caller falls back to recomputing.
type Redis struct {
	client *redis.Client
}

func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("Redis unreachable, cache store starts degraded", "addr", addr, "error", err)
	} else {
		slog.Info("Connected to Redis", "addr", addr)
	}

	return &Redis{client: client}
}

func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		slog.Warn("Cache write failed", "key", key, "error", err)
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		// Backend unavailability reads as a miss
		slog.Debug("Cache read failed", "key", key, "error", err)
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		// Invalid payloads are treated as a miss and removed
		_ = r.client.Del(ctx, key).Err()
		return false, nil
	}

	return true, nil
}

func (r *Redis) Invalidate(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		slog.Warn("Cache invalidation scan failed", "prefix", prefix, "error", err)
		return fmt.Errorf("failed to scan keys for prefix %s: %w", prefix, err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("Cache invalidation failed", "prefix", prefix, "error", err)
		return fmt.Errorf("failed to delete %d keys for prefix %s: %w", len(keys), prefix, err)
	}

	slog.Debug("Cache invalidated", "prefix", prefix, "keys", len(keys))
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
