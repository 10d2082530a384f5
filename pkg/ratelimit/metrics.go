package ratelimit

import (
	"log/slog"
	"time"

	"github.com/limitguard/limitguard/pkg/logger"
)

// Store labels for latency metrics.
const (
	StorePrimary   = "primary"
	StoreSecondary = "secondary"
)

// Metrics receives rate limiting observability events. Implementations
// must be safe for concurrent use and must never panic; metric recording
// happens in addition to, never instead of, the real result.
type Metrics interface {
	// RecordHit is called for every completed limit check.
	RecordHit(key Key, rule Rule, allowed bool, attempts int)

	// RecordBlock is called when a request is rejected.
	RecordBlock(key Key, rule Rule, attempts int, retryAfter time.Duration)

	// RecordFailure is called when a store fails. failedOver reports
	// whether the secondary absorbed the operation.
	RecordFailure(key Key, rule Rule, errorMessage string, failedOver bool)

	// RecordLatency records an operation's duration in milliseconds,
	// tagged with the store that served it.
	RecordLatency(latencyMS float64, store string)
}

// NopMetrics discards all events.
type NopMetrics struct{}

func (NopMetrics) RecordHit(Key, Rule, bool, int)            {}
func (NopMetrics) RecordBlock(Key, Rule, int, time.Duration) {}
func (NopMetrics) RecordFailure(Key, Rule, string, bool)     {}
func (NopMetrics) RecordLatency(float64, string)             {}

// LogMetrics emits metric events as structured logs. Keys are always
// logged in hashed form; the raw key never leaves the storage layer.
type LogMetrics struct {
	log *slog.Logger
}

// NewLogMetrics creates a slog-backed Metrics sink.
func NewLogMetrics(log *slog.Logger) *LogMetrics {
	if log == nil {
		log = slog.Default()
	}
	return &LogMetrics{log: log.With(logger.Component("ratelimit"))}
}

func (m *LogMetrics) RecordHit(key Key, rule Rule, allowed bool, attempts int) {
	m.log.Debug("rate limit hit",
		logger.Event("ratelimit_hit"),
		logger.RateLimitKey(key.Hashed()),
		logger.EndpointType(string(rule.EndpointType())),
		slog.Bool("allowed", allowed),
		slog.Int("attempts", attempts),
	)
}

func (m *LogMetrics) RecordBlock(key Key, rule Rule, attempts int, retryAfter time.Duration) {
	m.log.Warn("rate limit exceeded",
		logger.Event("ratelimit_block"),
		logger.RateLimitKey(key.Hashed()),
		logger.EndpointType(string(rule.EndpointType())),
		slog.Int("attempts", attempts),
		slog.Int("max_attempts", rule.MaxAttempts()),
		slog.Int64("retry_after_seconds", int64(retryAfter.Seconds())),
	)
}

func (m *LogMetrics) RecordFailure(key Key, rule Rule, errorMessage string, failedOver bool) {
	m.log.Error("rate limit store failure",
		logger.Event("ratelimit_store_failure"),
		logger.RateLimitKey(key.Hashed()),
		logger.EndpointType(string(rule.EndpointType())),
		slog.String("error", errorMessage),
		slog.Bool("failed_over", failedOver),
	)
}

func (m *LogMetrics) RecordLatency(latencyMS float64, store string) {
	m.log.Debug("rate limit store latency",
		logger.Event("ratelimit_store_latency"),
		logger.StoreName(store),
		logger.LatencyMS(latencyMS),
	)
}
