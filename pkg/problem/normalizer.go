package problem

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/limitguard/limitguard/pkg/environment"
)

// maskedDetail replaces the real message of unexpected errors in
// production-like environments.
const maskedDetail = "An unexpected error occurred. Please try again later."

// RequestContext carries the request fields the normalizer needs.
type RequestContext struct {
	// Instance is the request path reported in the document.
	Instance string
	// RequestID is the caller-supplied X-Request-ID, empty when absent.
	RequestID string
}

// Normalizer translates errors into Problem documents.
type Normalizer struct {
	registry *Registry
	baseURL  string
	env      environment.Environment
	verbose  bool
	clock    func() time.Time
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithRegistry replaces the default error code registry.
func WithRegistry(r *Registry) NormalizerOption {
	return func(n *Normalizer) {
		if r != nil {
			n.registry = r
		}
	}
}

// WithBaseURL sets the base for fallback type URIs.
func WithBaseURL(baseURL string) NormalizerOption {
	return func(n *Normalizer) {
		if baseURL != "" {
			n.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithEnvironment sets the runtime environment. Anything production-like
// masks details of unexpected errors.
func WithEnvironment(env environment.Environment) NormalizerOption {
	return func(n *Normalizer) { n.env = env }
}

// WithVerboseErrors attaches debug information to unexpected errors. Only
// honored outside production-like environments.
func WithVerboseErrors(verbose bool) NormalizerOption {
	return func(n *Normalizer) { n.verbose = verbose }
}

// WithNormalizerClock injects a clock for deterministic timestamps.
func WithNormalizerClock(clock func() time.Time) NormalizerOption {
	return func(n *Normalizer) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// NewNormalizer creates a Normalizer with the default registry, the
// development environment, and https://example.com as the fallback base.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		registry: DefaultRegistry(),
		baseURL:  "https://example.com",
		env:      environment.Development,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts any error into a Problem document. Known kinds
// (Error, ValidationError) pass their details through unmasked; everything
// else becomes a generic 500 whose detail depends on the environment.
func (n *Normalizer) Normalize(err error, rc RequestContext) Problem {
	p := Problem{
		TraceID:   rc.RequestID,
		Instance:  rc.Instance,
		Timestamp: n.clock().UTC().Format("2006-01-02T15:04:05Z"),
	}
	if p.TraceID == "" {
		p.TraceID = uuid.NewString()
	}

	var validationErr ValidationError
	if errors.As(err, &validationErr) {
		p.Type = n.resolveType("validation_error")
		p.Title = "Validation Failed"
		p.Status = http.StatusUnprocessableEntity
		p.Detail = "One or more fields failed validation"
		p.ErrorCode = "validation_error"
		p.Errors = validationErr
		return p
	}

	var classified *Error
	if errors.As(err, &classified) {
		p.Type = n.resolveType(classified.Code())
		p.Title = classified.Title()
		p.Status = classified.StatusCode()
		p.Detail = classified.Detail()
		p.ErrorCode = classified.Code()
		return p
	}

	// Truly unexpected error.
	p.Type = "about:blank"
	p.Title = "Internal Server Error"
	p.Status = http.StatusInternalServerError
	p.ErrorCode = "internal_server_error"

	if n.env.IsProduction() || n.env.IsStaging() {
		p.Detail = maskedDetail
		return p
	}

	p.Detail = err.Error()
	if n.verbose {
		p.Debug = &Debug{
			Exception: fmt.Sprintf("%T", err),
			Message:   err.Error(),
			Trace:     string(debug.Stack()),
		}
	}
	return p
}

// resolveType maps an error code to its registered URI, or builds a
// sanitized fallback under the configured base URL.
func (n *Normalizer) resolveType(code string) string {
	if uri, ok := n.registry.TypeURI(code); ok {
		return uri
	}
	return n.baseURL + "/errors/" + Sanitize(code)
}

// Sanitize lower-cases an error code and strips every character outside
// [a-z0-9-], keeping generated type URIs RFC 3986 path-safe no matter how
// exotic the code. An empty result becomes "unknown"; the verbatim code
// still travels in the error_code field.
func Sanitize(code string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(code) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
