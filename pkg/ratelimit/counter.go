package ratelimit

import "context"

// CounterService implements fixed-window rate limiting over a CounterStore.
// The window is anchored at the first request for a key: the backend owns
// TTL-based expiry, and the counter keeps incrementing past the limit so
// abuse severity stays visible.
type CounterService struct {
	store CounterStore
	clock Clock
}

// CounterOption configures a CounterService.
type CounterOption func(*CounterService)

// WithClock injects a clock for deterministic reset-time testing.
func WithClock(clock Clock) CounterOption {
	return func(s *CounterService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewCounterService creates a fixed-window Service backed by the store.
func NewCounterService(store CounterStore, opts ...CounterOption) *CounterService {
	s := &CounterService{
		store: store,
		clock: systemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckLimit increments the counter for the key and evaluates the rule.
func (s *CounterService) CheckLimit(ctx context.Context, key Key, rule Rule) (Result, error) {
	attempts, err := s.store.Increment(ctx, key.String(), rule.Decay())
	if err != nil {
		return Result{}, err
	}

	resetAt := s.clock.Now().Add(rule.Decay())

	if attempts > int64(rule.MaxAttempts()) {
		return Blocked(int(attempts), resetAt), nil
	}
	return Allowed(int(attempts), max(0, rule.MaxAttempts()-int(attempts)), resetAt), nil
}

// Status reads the counter without incrementing it.
func (s *CounterService) Status(ctx context.Context, key Key, rule Rule) (Result, error) {
	value, ok, err := s.store.Get(ctx, key.String())
	if err != nil {
		return Result{}, err
	}

	attempts := int64(0)
	if ok {
		attempts = value
	}

	resetAt := s.clock.Now().Add(rule.Decay())

	if attempts >= int64(rule.MaxAttempts()) {
		return Blocked(int(attempts), resetAt), nil
	}
	return Allowed(int(attempts), rule.MaxAttempts()-int(attempts), resetAt), nil
}

// Reset clears the counter for the key.
func (s *CounterService) Reset(ctx context.Context, key Key) error {
	return s.store.Delete(ctx, key.String())
}
