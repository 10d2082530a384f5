package problem

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/limitguard/limitguard/pkg/logger"
	"github.com/limitguard/limitguard/pkg/requestid"
)

// Handler writes errors to HTTP responses as Problem documents. Every
// error path produces a traceable trace_id; no error reaches the client
// without passing through the normalizer.
type Handler struct {
	normalizer *Normalizer
	log        *slog.Logger
}

// NewHandler creates a Handler. A nil logger falls back to slog.Default.
func NewHandler(normalizer *Normalizer, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{normalizer: normalizer, log: log}
}

// WriteError normalizes err and writes it to the response. The trace id
// is taken from the request context (set by requestid.Middleware) or the
// X-Request-ID header.
func (h *Handler) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := requestid.FromContext(r.Context())
	if reqID == "" {
		reqID = r.Header.Get(RequestIDHeader)
	}

	p := h.normalizer.Normalize(err, RequestContext{
		Instance:  r.URL.Path,
		RequestID: reqID,
	})

	h.logError(r, err, p)
	p.Write(w)
}

func (h *Handler) logError(r *http.Request, err error, p Problem) {
	level := slog.LevelError
	if p.Status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}

	h.log.LogAttrs(r.Context(), level, "request error",
		logger.Component("problem"),
		logger.RequestID(p.TraceID),
		logger.Error(err),
		logger.ErrorCode(p.ErrorCode),
		slog.Int("status_code", p.Status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}

// Recoverer converts panics in downstream handlers into a normalized 500
// Problem response instead of a hung or half-written reply.
func (h *Handler) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("panic: %v", rec)
				}
				h.WriteError(w, r, err)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
