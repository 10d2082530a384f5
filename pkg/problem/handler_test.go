package problem_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limitguard/limitguard/pkg/problem"
	"github.com/limitguard/limitguard/pkg/requestid"
)

func newTestHandler() *problem.Handler {
	n := problem.NewNormalizer(problem.WithNormalizerClock(fixedTime))
	return problem.NewHandler(n, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandler_WriteError(t *testing.T) {
	t.Parallel()

	t.Run("writes a problem document", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler()

		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.Header.Set(problem.RequestIDHeader, "req-abc")
		rec := httptest.NewRecorder()

		h.WriteError(rec, req, problem.NewDomain(http.StatusUnauthorized, "AUTH-LOGIN-001", "Invalid Credentials", "bad password"))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, problem.ContentType, rec.Header().Get("Content-Type"))
		assert.Equal(t, "req-abc", rec.Header().Get(problem.RequestIDHeader))

		var p problem.Problem
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, "https://example.com/errors/auth/invalid-credentials", p.Type)
		assert.Equal(t, "AUTH-LOGIN-001", p.ErrorCode)
		assert.Equal(t, "req-abc", p.TraceID)
		assert.Equal(t, "/api/login", p.Instance)
	})

	t.Run("prefers the request id from context", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler()

		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.Header.Set(problem.RequestIDHeader, "header-id")
		req = req.WithContext(requestid.WithContext(req.Context(), "context-id"))
		rec := httptest.NewRecorder()

		h.WriteError(rec, req, problem.NewDomain(http.StatusNotFound, "BIZ-RESOURCE-001", "Not Found", "missing"))

		var p problem.Problem
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, "context-id", p.TraceID)
	})

	t.Run("validation errors include the field map", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler()

		verr := problem.NewValidationError()
		verr.Add("email", "is required")

		req := httptest.NewRequest(http.MethodPost, "/api/register", nil)
		rec := httptest.NewRecorder()
		h.WriteError(rec, req, verr)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var p problem.Problem
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, []string{"is required"}, p.Errors["email"])
	})
}

func TestHandler_Recoverer(t *testing.T) {
	t.Parallel()

	t.Run("recovers error panics", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler()
		handler := h.Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(problem.NewDomain(http.StatusUnauthorized, "AUTH-TOKEN-001", "Token Expired", "expired"))
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var p problem.Problem
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, "AUTH-TOKEN-001", p.ErrorCode)
	})

	t.Run("recovers arbitrary panics as 500", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler()
		handler := h.Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("something broke")
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var p problem.Problem
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, "internal_server_error", p.ErrorCode)
		assert.Contains(t, p.Detail, "something broke")
	})

	t.Run("passes normal requests through", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler()
		handler := h.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
