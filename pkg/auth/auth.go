// Package auth defines the token authentication capability consumed by
// the HTTP layer. Token persistence and issuance live outside this
// module; only the contract and the request plumbing are defined here.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrInvalidToken indicates the token is unknown, malformed, or revoked.
	ErrInvalidToken = errors.New("invalid or revoked token")
	// ErrTokenExpired indicates the token is past its expiry.
	ErrTokenExpired = errors.New("token has expired")
)

// Principal is the identity a validated token resolves to.
type Principal struct {
	UserID  int64
	TokenID string
}

// TokenStore issues, validates, and revokes opaque bearer tokens against
// a principal. Implementations are external to this module.
type TokenStore interface {
	// Issue creates a new opaque token for the principal.
	Issue(ctx context.Context, principal Principal) (token string, err error)

	// Validate resolves a token to its principal. Returns ErrInvalidToken
	// or ErrTokenExpired when the token cannot be accepted.
	Validate(ctx context.Context, token string) (Principal, error)

	// Revoke invalidates a token. Revoking an unknown token is not an error.
	Revoke(ctx context.Context, token string) error
}

type contextKey struct{}

// WithContext stores the resolved principal in the context.
func WithContext(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, principal)
}

// FromContext returns the resolved principal, reporting presence via ok.
func FromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	principal, ok := ctx.Value(contextKey{}).(Principal)
	return principal, ok
}

// Middleware resolves a Bearer token into a Principal and stores it in
// the request context. Requests without a valid token proceed
// unauthenticated; enforcing authentication is a per-route concern, while
// rate limiting only needs to know whether an identity exists.
func Middleware(store TokenStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := store.Validate(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), principal)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
