package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a CounterStore backed by Redis, giving counters shared
// across application instances. Increment pipelines INCR and EXPIRE in a
// transaction so increment-and-check stays a single atomic round trip.
//
// Every call is bounded by an operation timeout: a hung Redis must surface
// as an error (and trigger failover) rather than hang the request.
type RedisStore struct {
	client  redis.UniversalClient
	timeout time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithOperationTimeout bounds each Redis round trip. Defaults to 500ms.
func WithOperationTimeout(timeout time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// NewRedisStore creates a Redis-backed counter store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client:  client,
		timeout: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Increment atomically increments the counter, setting the TTL when the
// key is created. EXPIRE NX leaves the TTL of an existing window intact so
// the window stays anchored at the first request.
func (s *RedisStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pipe := s.client.TxPipeline()
	counter := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return counter.Val(), nil
}

// Get returns the current counter value, reporting absence when the key
// does not exist or already expired.
func (s *RedisStore) Get(ctx context.Context, key string) (int64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	value, err := s.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}

// Delete removes the counter for the key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.client.Del(ctx, key).Err()
}
