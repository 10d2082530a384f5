package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limitguard/limitguard/pkg/ratelimit"
)

func newTestRedisStore(t *testing.T) (*ratelimit.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return ratelimit.NewRedisStore(client), mr
}

func TestRedisStore_Increment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates with one and increments", func(t *testing.T) {
		t.Parallel()

		store, _ := newTestRedisStore(t)

		for want := int64(1); want <= 5; want++ {
			got, err := store.Increment(ctx, "rate_limit:t:a", time.Minute)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("window anchored at first request", func(t *testing.T) {
		t.Parallel()

		store, mr := newTestRedisStore(t)

		_, err := store.Increment(ctx, "rate_limit:t:b", time.Minute)
		require.NoError(t, err)
		firstTTL := mr.TTL("rate_limit:t:b")

		// A later increment must not extend the TTL.
		mr.FastForward(30 * time.Second)
		_, err = store.Increment(ctx, "rate_limit:t:b", time.Minute)
		require.NoError(t, err)

		assert.Equal(t, firstTTL-30*time.Second, mr.TTL("rate_limit:t:b"))
	})

	t.Run("expired counter restarts at one", func(t *testing.T) {
		t.Parallel()

		store, mr := newTestRedisStore(t)

		_, err := store.Increment(ctx, "rate_limit:t:c", time.Minute)
		require.NoError(t, err)

		mr.FastForward(61 * time.Second)

		got, err := store.Increment(ctx, "rate_limit:t:c", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})
}

func TestRedisStore_Get(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	_, ok, err := store.Get(ctx, "rate_limit:t:absent")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Increment(ctx, "rate_limit:t:a", time.Minute)
	require.NoError(t, err)
	_, err = store.Increment(ctx, "rate_limit:t:a", time.Minute)
	require.NoError(t, err)

	value, ok, err := store.Get(ctx, "rate_limit:t:a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), value)

	mr.FastForward(2 * time.Minute)

	_, ok, err = store.Get(ctx, "rate_limit:t:a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	_, err := store.Increment(ctx, "rate_limit:t:a", time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "rate_limit:t:a"))

	_, ok, err := store.Get(ctx, "rate_limit:t:a")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, store.Delete(ctx, "rate_limit:t:a"))
}

func TestRedisStore_ErrorsWhenServerDown(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := ratelimit.NewRedisStore(client, ratelimit.WithOperationTimeout(100*time.Millisecond))

	mr.Close()

	_, err := store.Increment(context.Background(), "rate_limit:t:a", time.Minute)
	assert.Error(t, err)
}

func TestRedisStore_WithCounterService(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newTestRedisStore(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := ratelimit.NewCounterService(store, ratelimit.WithClock(fixedClock(now)))

	key := testKey(t)
	rule := ratelimit.MustNewRule(ratelimit.EndpointPublicUnauthenticated, 2, 1)

	result, err := svc.CheckLimit(ctx, key, rule)
	require.NoError(t, err)
	assert.True(t, result.IsAllowed())

	result, err = svc.CheckLimit(ctx, key, rule)
	require.NoError(t, err)
	assert.True(t, result.IsAllowed())
	assert.Equal(t, 0, result.Remaining())

	result, err = svc.CheckLimit(ctx, key, rule)
	require.NoError(t, err)
	assert.True(t, result.IsBlocked())
	assert.Equal(t, 3, result.Attempts())
}
