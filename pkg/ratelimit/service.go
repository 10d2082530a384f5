package ratelimit

import (
	"context"
	"time"
)

// Service is the rate limit check contract consumed by the HTTP layer.
type Service interface {
	// CheckLimit atomically increments the counter for the key and
	// evaluates it against the rule.
	CheckLimit(ctx context.Context, key Key, rule Rule) (Result, error)

	// Status reads the current state without incrementing.
	Status(ctx context.Context, key Key, rule Rule) (Result, error)

	// Reset clears the counter for the key.
	Reset(ctx context.Context, key Key) error
}

// CounterStore is the key-value counter capability a CounterService needs.
// Any backend with atomic increment-with-TTL semantics qualifies.
type CounterStore interface {
	// Increment atomically increments the counter for the key, creating
	// it with value 1 and the given TTL when absent, and returns the new
	// value. The increment and the limit evaluation built on it must be a
	// single atomic step per backend so two concurrent requests cannot
	// both observe "under limit" at the boundary.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Get returns the current counter value, reporting absence via ok.
	Get(ctx context.Context, key string) (value int64, ok bool, err error)

	// Delete removes the counter for the key.
	Delete(ctx context.Context, key string) error
}
