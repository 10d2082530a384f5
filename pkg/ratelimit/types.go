package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// EndpointType identifies one of the four rate limit buckets a request can
// fall into, plus the catch-all default bucket.
type EndpointType string

const (
	EndpointPublicUnauthenticated    EndpointType = "public_unauthenticated"
	EndpointProtectedUnauthenticated EndpointType = "protected_unauthenticated"
	EndpointPublicAuthenticated      EndpointType = "public_authenticated"
	EndpointProtectedAuthenticated   EndpointType = "protected_authenticated"
	EndpointDefault                  EndpointType = "default"
)

// EndpointTypes lists the four classifiable endpoint types in a stable order.
var EndpointTypes = []EndpointType{
	EndpointPublicUnauthenticated,
	EndpointProtectedUnauthenticated,
	EndpointPublicAuthenticated,
	EndpointProtectedAuthenticated,
}

const (
	maxRuleAttempts = 10000
	maxDecayMinutes = 60
)

// Rule encodes the limiter configuration for one endpoint type. It is
// immutable; bounds are enforced at construction and never re-checked.
type Rule struct {
	endpointType EndpointType
	maxAttempts  int
	decayMinutes int
}

// NewRule validates and creates a Rule. MaxAttempts must be within
// [1, 10000] and decayMinutes within [1, 60].
func NewRule(endpointType EndpointType, maxAttempts, decayMinutes int) (Rule, error) {
	if endpointType == "" {
		return Rule{}, ErrEmptyEndpointType
	}
	if maxAttempts < 1 || maxAttempts > maxRuleAttempts {
		return Rule{}, ErrInvalidMaxAttempts
	}
	if decayMinutes < 1 || decayMinutes > maxDecayMinutes {
		return Rule{}, ErrInvalidDecay
	}
	return Rule{
		endpointType: endpointType,
		maxAttempts:  maxAttempts,
		decayMinutes: decayMinutes,
	}, nil
}

// MustNewRule is like NewRule but panics on invalid input. Intended for
// package-level defaults and tests.
func MustNewRule(endpointType EndpointType, maxAttempts, decayMinutes int) Rule {
	rule, err := NewRule(endpointType, maxAttempts, decayMinutes)
	if err != nil {
		panic(err)
	}
	return rule
}

func (r Rule) EndpointType() EndpointType { return r.endpointType }
func (r Rule) MaxAttempts() int           { return r.maxAttempts }
func (r Rule) DecayMinutes() int          { return r.decayMinutes }
func (r Rule) DecaySeconds() int          { return r.decayMinutes * 60 }

// Decay returns the rule's window as a duration.
func (r Rule) Decay() time.Duration {
	return time.Duration(r.decayMinutes) * time.Minute
}

// KeyPrefix is the mandatory prefix of every rate limit key.
const KeyPrefix = "rate_limit:"

const maxKeyLength = 255

// Key is a validated rate limit identity key of the form
// rate_limit:{endpoint_type}:{identifier}. The raw value may embed a user
// id, IP address, or hashed credential and must therefore never be exposed
// outside the storage layer; use Hashed for headers and logs.
type Key struct {
	raw string
}

// NewKey validates and creates a Key.
func NewKey(raw string) (Key, error) {
	if raw == "" {
		return Key{}, ErrKeyEmpty
	}
	if !strings.HasPrefix(raw, KeyPrefix) {
		return Key{}, ErrKeyMissingPrefix
	}
	if len(raw) > maxKeyLength {
		return Key{}, ErrKeyTooLong
	}
	rest := strings.TrimPrefix(raw, KeyPrefix)
	typePart, identifier, ok := strings.Cut(rest, ":")
	if !ok || typePart == "" || identifier == "" {
		return Key{}, ErrKeyIncomplete
	}
	return Key{raw: raw}, nil
}

// String returns the raw key for storage lookups.
func (k Key) String() string { return k.raw }

// Hashed returns the SHA-256 hex digest of the raw key. The digest is safe
// to expose in response headers and logs because the underlying identity
// cannot be recovered from it.
func (k Key) Hashed() string {
	sum := sha256.Sum256([]byte(k.raw))
	return hex.EncodeToString(sum[:])
}

// Result is the outcome of a single rate limit check.
type Result struct {
	allowed   bool
	attempts  int
	remaining int
	resetAt   time.Time
}

// Allowed builds a passing Result.
func Allowed(attempts, remaining int, resetAt time.Time) Result {
	return Result{allowed: true, attempts: attempts, remaining: remaining, resetAt: resetAt}
}

// Blocked builds a rejected Result; remaining is forced to zero.
func Blocked(attempts int, resetAt time.Time) Result {
	return Result{allowed: false, attempts: attempts, remaining: 0, resetAt: resetAt}
}

func (r Result) IsAllowed() bool    { return r.allowed }
func (r Result) IsBlocked() bool    { return !r.allowed }
func (r Result) Attempts() int      { return r.attempts }
func (r Result) Remaining() int     { return r.remaining }
func (r Result) ResetAt() time.Time { return r.resetAt }

// ResetTimestamp returns the reset time as epoch seconds for wire headers.
func (r Result) ResetTimestamp() int64 { return r.resetAt.Unix() }

// RetryAfter returns how long to wait from now until the window resets.
// Returns 0 if the request was allowed or the window already reset.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.allowed {
		return 0
	}
	return max(0, r.resetAt.Sub(now))
}

// Classification pairs the endpoint type assigned to a request with the
// rule that applies to it.
type Classification struct {
	endpointType EndpointType
	rule         Rule
}

// NewClassification creates a Classification.
func NewClassification(endpointType EndpointType, rule Rule) Classification {
	return Classification{endpointType: endpointType, rule: rule}
}

// Type returns the assigned endpoint type (the X-RateLimit-Policy value).
func (c Classification) Type() EndpointType { return c.endpointType }

// Rule returns the rate limit rule to apply.
func (c Classification) Rule() Rule { return c.rule }

// Clock abstracts time for deterministic testing of windows and the
// failover health-check cadence.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

var systemClock Clock = ClockFunc(time.Now)
