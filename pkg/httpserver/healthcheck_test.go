package httpserver_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/limitguard/limitguard/pkg/httpserver"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealthCheckHandler(t *testing.T) {
	t.Parallel()

	t.Run("no probes answers alive", func(t *testing.T) {
		t.Parallel()

		handler := httpserver.HealthCheckHandler(discardLogger())
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ALIVE", rec.Body.String())
	})

	t.Run("passing probes answer ready", func(t *testing.T) {
		t.Parallel()

		handler := httpserver.HealthCheckHandler(discardLogger(),
			func(context.Context) error { return nil },
			func(context.Context) error { return nil },
		)
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "READY", rec.Body.String())
	})

	t.Run("failing probe answers not ready", func(t *testing.T) {
		t.Parallel()

		handler := httpserver.HealthCheckHandler(discardLogger(),
			func(context.Context) error { return nil },
			func(context.Context) error { return errors.New("redis unreachable") },
		)
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "NOT_READY", rec.Body.String())
	})
}
