package ratelimit

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/limitguard/limitguard/pkg/clientip"
	"github.com/limitguard/limitguard/pkg/logger"
)

// PrincipalFunc resolves the authenticated principal of a request, or nil
// for anonymous traffic.
type PrincipalFunc func(*http.Request) *Principal

// RouteNameFunc derives the route name matched against protected
// patterns.
type RouteNameFunc func(*http.Request) string

// EmailFunc extracts the submitted secondary identifier (login email) used
// to key protected unauthenticated endpoints.
type EmailFunc func(*http.Request) string

type middlewareConfig struct {
	principalFunc PrincipalFunc
	routeNameFunc RouteNameFunc
	emailFunc     EmailFunc
	metrics       Metrics
	clock         Clock
	log           *slog.Logger
}

// MiddlewareOption configures the rate limit middleware.
type MiddlewareOption func(*middlewareConfig)

// WithPrincipalFunc sets how the middleware resolves principals. Without
// it every request is treated as unauthenticated.
func WithPrincipalFunc(fn PrincipalFunc) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.principalFunc = fn
		}
	}
}

// WithRouteNameFunc overrides route name derivation. The default turns the
// URL path into a dotted name ("/admin/users" -> "admin.users").
func WithRouteNameFunc(fn RouteNameFunc) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.routeNameFunc = fn
		}
	}
}

// WithEmailFunc overrides extraction of the submitted email identifier.
func WithEmailFunc(fn EmailFunc) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.emailFunc = fn
		}
	}
}

// WithMiddlewareMetrics sets the metrics sink for hit/block events.
func WithMiddlewareMetrics(m Metrics) MiddlewareOption {
	return func(c *middlewareConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithMiddlewareClock injects a clock for deterministic Retry-After tests.
func WithMiddlewareClock(clock Clock) MiddlewareOption {
	return func(c *middlewareConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithMiddlewareLogger sets the logger for fail-open warnings.
func WithMiddlewareLogger(log *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// Middleware enforces dynamic rate limits on an HTTP handler chain.
//
// Each request is classified, keyed, and checked against the service. The
// response always carries X-RateLimit-Limit, X-RateLimit-Remaining,
// X-RateLimit-Reset (epoch seconds), X-RateLimit-Policy (endpoint type),
// and X-RateLimit-Key (hashed key, never the raw one). Blocked requests
// get a 429 with a Retry-After header and a JSON body.
//
// The middleware fails open: when the limiter itself errors the request is
// served and a warning is logged, because a broken limiter must not take
// down the API it protects.
func Middleware(service Service, classifier *Classifier, resolver KeyResolver, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		principalFunc: func(*http.Request) *Principal { return nil },
		routeNameFunc: routeNameFromPath,
		emailFunc:     emailFromRequest,
		metrics:       NopMetrics{},
		clock:         systemClock,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rctx := RequestContext{
				RouteName: cfg.routeNameFunc(r),
				Principal: cfg.principalFunc(r),
				ClientIP:  clientip.GetIP(r),
				Email:     cfg.emailFunc(r),
			}

			classification := classifier.Classify(rctx)
			rule := classification.Rule()

			key, err := resolver.Resolve(rctx, classification)
			if err != nil {
				cfg.failOpen(w, r, next, err)
				return
			}

			result, err := service.CheckLimit(r.Context(), key, rule)
			if err != nil {
				cfg.failOpen(w, r, next, err)
				return
			}

			cfg.metrics.RecordHit(key, rule, result.IsAllowed(), result.Attempts())

			setRateLimitHeaders(w.Header(), key, classification, result)

			if result.IsBlocked() {
				retryAfter := result.RetryAfter(cfg.clock.Now())
				cfg.metrics.RecordBlock(key, rule, result.Attempts(), retryAfter)
				writeTooManyRequests(w, retryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (c *middlewareConfig) failOpen(w http.ResponseWriter, r *http.Request, next http.Handler, err error) {
	c.log.Warn("rate limit check failed, skipping",
		logger.Component("ratelimit"),
		logger.Event("ratelimit_skipped"),
		logger.Error(err),
		slog.String("path", r.URL.Path),
	)
	next.ServeHTTP(w, r)
}

func setRateLimitHeaders(h http.Header, key Key, classification Classification, result Result) {
	rule := classification.Rule()
	h.Set("X-RateLimit-Limit", strconv.Itoa(rule.MaxAttempts()))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining())))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetTimestamp(), 10))
	h.Set("X-RateLimit-Policy", string(classification.Type()))
	h.Set("X-RateLimit-Key", key.Hashed())
}

func writeTooManyRequests(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int64(retryAfter.Seconds())
	if seconds < 0 {
		seconds = 0
	}

	w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	_ = json.NewEncoder(w).Encode(map[string]any{
		"message":     "Too Many Requests",
		"retry_after": seconds,
	})
}

// routeNameFromPath derives a dotted route name from the URL path so
// patterns like "admin.*" keep working without a routing framework
// supplying named routes.
func routeNameFromPath(r *http.Request) string {
	path := strings.Trim(r.URL.Path, "/")
	if path == "" {
		return ""
	}
	return strings.ReplaceAll(path, "/", ".")
}

// maxEmailBodyBytes bounds how much of a JSON body is buffered while
// looking for the email field.
const maxEmailBodyBytes = 64 << 10

// emailFromRequest pulls the "email" field from the query string, a form
// body, or a JSON body. JSON bodies are buffered and restored so the
// downstream handler still sees them.
func emailFromRequest(r *http.Request) string {
	if email := r.URL.Query().Get("email"); email != "" {
		return email
	}

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return r.PostFormValue("email")
	case "application/json":
		if r.Body == nil {
			return ""
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxEmailBodyBytes))
		if err != nil {
			return ""
		}
		r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))

		var payload struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return ""
		}
		return payload.Email
	}
	return ""
}
