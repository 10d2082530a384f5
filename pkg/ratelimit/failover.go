package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// healthCheckInterval bounds how long the limiter can keep running
	// with relaxed rules after the primary recovers.
	healthCheckInterval = 30 * time.Second

	// relaxationFactor loosens limits while the secondary serves. The
	// secondary counts per instance without cross-instance coordination,
	// so a strict bound would produce false positives.
	relaxationFactor = 2
)

// FailoverService decorates a primary/secondary Service pair with
// automatic failover. A primary failure switches traffic to the secondary
// with relaxed limits within the same request; a periodic health check
// restores the primary once it responds again. Only a double failure
// propagates to the caller, because at that point no safe limiting
// decision can be made and the caller must choose to fail open or closed.
//
// The backend choice and health-check timer are shared across concurrent
// requests. Races between a health check and a concurrent failure resolve
// either way: both stores stay individually safe, so the worst case is one
// request served by a slightly stale backend choice.
type FailoverService struct {
	primary   Service
	secondary Service
	metrics   Metrics
	clock     Clock

	mu               sync.Mutex
	primaryAvailable bool
	failedOverAt     time.Time
}

// FailoverOption configures a FailoverService.
type FailoverOption func(*FailoverService)

// WithFailoverClock injects a clock for deterministic health-check tests.
func WithFailoverClock(clock Clock) FailoverOption {
	return func(s *FailoverService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewFailoverService wraps a primary and secondary rate limit service.
func NewFailoverService(primary, secondary Service, metrics Metrics, opts ...FailoverOption) *FailoverService {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	s := &FailoverService{
		primary:          primary,
		secondary:        secondary,
		metrics:          metrics,
		clock:            systemClock,
		primaryAvailable: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckLimit checks the key against the rule on whichever store is active.
func (s *FailoverService) CheckLimit(ctx context.Context, key Key, rule Rule) (Result, error) {
	if s.usePrimary(ctx) {
		return s.checkWithPrimary(ctx, key, rule)
	}
	return s.checkWithSecondary(ctx, key, rule)
}

// Status reads the current state without incrementing. The secondary is
// consulted with the relaxed rule so its thresholds match what CheckLimit
// enforced while failed over.
func (s *FailoverService) Status(ctx context.Context, key Key, rule Rule) (Result, error) {
	start := s.clock.Now()

	if s.usePrimary(ctx) {
		result, err := s.primary.Status(ctx, key, rule)
		s.recordLatency(start, StorePrimary)
		if err != nil {
			s.markFailed()
			primaryErr := err

			result, err = s.statusWithSecondary(ctx, key, rule)
			if err != nil {
				s.metrics.RecordFailure(key, rule, err.Error(), false)
				return Result{}, err
			}
			s.metrics.RecordFailure(key, rule, primaryErr.Error(), true)
			return result, nil
		}
		return result, nil
	}

	return s.statusWithSecondary(ctx, key, rule)
}

// Reset clears the counter on the active store.
func (s *FailoverService) Reset(ctx context.Context, key Key) error {
	start := s.clock.Now()

	if s.usePrimary(ctx) {
		err := s.primary.Reset(ctx, key)
		s.recordLatency(start, StorePrimary)
		if err != nil {
			s.markFailed()
			primaryErr := err

			// Reset carries no rule; failure metrics record a zero rule.
			if err = s.resetWithSecondary(ctx, key); err != nil {
				s.metrics.RecordFailure(key, Rule{}, err.Error(), false)
				return err
			}
			s.metrics.RecordFailure(key, Rule{}, primaryErr.Error(), true)
			return nil
		}
		return nil
	}

	return s.resetWithSecondary(ctx, key)
}

// usePrimary reports whether the primary should serve, running a health
// check first when one is due.
func (s *FailoverService) usePrimary(ctx context.Context) bool {
	s.mu.Lock()
	if s.primaryAvailable {
		s.mu.Unlock()
		return true
	}
	due := s.clock.Now().Sub(s.failedOverAt) >= healthCheckInterval
	if due {
		// Reset the timer before probing so concurrent requests do not
		// pile extra health checks onto a struggling primary.
		s.failedOverAt = s.clock.Now()
	}
	s.mu.Unlock()

	if !due {
		return false
	}
	return s.runHealthCheck(ctx)
}

// runHealthCheck probes the primary with a lightweight synthetic status
// read and restores it on success.
func (s *FailoverService) runHealthCheck(ctx context.Context) bool {
	key, err := NewKey(KeyPrefix + "health_check:" + uuid.NewString())
	if err != nil {
		return false
	}
	rule := MustNewRule("health_check", 1, 1)

	start := s.clock.Now()
	_, err = s.primary.Status(ctx, key, rule)
	s.recordLatency(start, StorePrimary)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.primaryAvailable = false
		s.failedOverAt = s.clock.Now()
		return false
	}
	s.primaryAvailable = true
	s.failedOverAt = time.Time{}
	return true
}

func (s *FailoverService) markFailed() {
	s.mu.Lock()
	s.primaryAvailable = false
	s.failedOverAt = s.clock.Now()
	s.mu.Unlock()
}

func (s *FailoverService) checkWithPrimary(ctx context.Context, key Key, rule Rule) (Result, error) {
	start := s.clock.Now()

	result, err := s.primary.CheckLimit(ctx, key, rule)
	s.recordLatency(start, StorePrimary)
	if err == nil {
		return result, nil
	}

	s.markFailed()
	primaryErr := err

	result, err = s.checkWithSecondary(ctx, key, rule)
	if err != nil {
		// Total outage: surface the secondary's error, not a silent pass.
		s.metrics.RecordFailure(key, rule, err.Error(), false)
		return Result{}, err
	}

	s.metrics.RecordFailure(key, rule, primaryErr.Error(), true)
	return result, nil
}

func (s *FailoverService) checkWithSecondary(ctx context.Context, key Key, rule Rule) (Result, error) {
	start := s.clock.Now()

	result, err := s.secondary.CheckLimit(ctx, key, s.relaxRule(rule))
	s.recordLatency(start, StoreSecondary)
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

func (s *FailoverService) statusWithSecondary(ctx context.Context, key Key, rule Rule) (Result, error) {
	start := s.clock.Now()

	result, err := s.secondary.Status(ctx, key, s.relaxRule(rule))
	s.recordLatency(start, StoreSecondary)
	return result, err
}

func (s *FailoverService) resetWithSecondary(ctx context.Context, key Key) error {
	start := s.clock.Now()

	err := s.secondary.Reset(ctx, key)
	s.recordLatency(start, StoreSecondary)
	return err
}

// relaxRule doubles MaxAttempts while keeping the window and endpoint
// type. MaxAttempts is capped at its upper bound; availability degradation
// must not manufacture an invalid rule.
func (s *FailoverService) relaxRule(rule Rule) Rule {
	relaxed, err := NewRule(rule.EndpointType(), min(rule.MaxAttempts()*relaxationFactor, maxRuleAttempts), rule.DecayMinutes())
	if err != nil {
		return rule
	}
	return relaxed
}

func (s *FailoverService) recordLatency(start time.Time, store string) {
	s.metrics.RecordLatency(float64(s.clock.Now().Sub(start))/float64(time.Millisecond), store)
}
