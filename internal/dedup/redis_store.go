package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// keyPrefix namespaces dedup markers in a shared Redis instance.
const keyPrefix = "sniper:seen:"

// RedisStore is a Redis-backed MarkerStore. Useful when several sniper
// instances watch the same feeds and must share one dedup window.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore creates a MarkerStore backed by the given Redis client.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// Compile-time interface check.
var _ MarkerStore = (*RedisStore)(nil)

// Mark records id as seen for ttl. Redis expires the key server-side.
func (s *RedisStore) Mark(ctx context.Context, id string, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+id, "1", ttl).Err(); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}

// SeenRecently reports whether id has an unexpired marker.
func (s *RedisStore) SeenRecently(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("check seen: %w", err)
	}
	return n > 0, nil
}
