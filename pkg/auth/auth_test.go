package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limitguard/limitguard/pkg/auth"
)

// staticStore validates a single known token.
type staticStore struct {
	token     string
	principal auth.Principal
	err       error
}

func (s *staticStore) Issue(context.Context, auth.Principal) (string, error) {
	return s.token, nil
}

func (s *staticStore) Validate(_ context.Context, token string) (auth.Principal, error) {
	if s.err != nil {
		return auth.Principal{}, s.err
	}
	if token != s.token {
		return auth.Principal{}, auth.ErrInvalidToken
	}
	return s.principal, nil
}

func (s *staticStore) Revoke(context.Context, string) error { return nil }

func TestMiddleware(t *testing.T) {
	t.Parallel()

	store := &staticStore{token: "tok-1", principal: auth.Principal{UserID: 42, TokenID: "tid-1"}}

	run := func(authorization string) (auth.Principal, bool) {
		var (
			principal auth.Principal
			ok        bool
		)
		handler := auth.Middleware(store)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			principal, ok = auth.FromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
		return principal, ok
	}

	t.Run("valid bearer token resolves the principal", func(t *testing.T) {
		t.Parallel()

		principal, ok := run("Bearer tok-1")
		require.True(t, ok)
		assert.Equal(t, int64(42), principal.UserID)
		assert.Equal(t, "tid-1", principal.TokenID)
	})

	t.Run("scheme is case insensitive", func(t *testing.T) {
		t.Parallel()

		_, ok := run("bearer tok-1")
		assert.True(t, ok)
	})

	t.Run("missing header proceeds unauthenticated", func(t *testing.T) {
		t.Parallel()

		_, ok := run("")
		assert.False(t, ok)
	})

	t.Run("unknown token proceeds unauthenticated", func(t *testing.T) {
		t.Parallel()

		_, ok := run("Bearer nope")
		assert.False(t, ok)
	})

	t.Run("non bearer scheme is ignored", func(t *testing.T) {
		t.Parallel()

		_, ok := run("Basic dXNlcjpwYXNz")
		assert.False(t, ok)
	})
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	_, ok := auth.FromContext(context.Background())
	assert.False(t, ok)

	ctx := auth.WithContext(context.Background(), auth.Principal{UserID: 7})
	principal, ok := auth.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(7), principal.UserID)
}
