package problem

import (
	"encoding/json"
	"net/http"
)

// ContentType is the RFC 7807 media type.
const ContentType = "application/problem+json"

// RequestIDHeader carries the trace id on requests and responses.
const RequestIDHeader = "X-Request-ID"

// Problem is an RFC 7807 Problem Details document. It is produced per
// error and never persisted.
type Problem struct {
	Type      string              `json:"type"`
	Title     string              `json:"title"`
	Status    int                 `json:"status"`
	Detail    string              `json:"detail"`
	ErrorCode string              `json:"error_code"`
	TraceID   string              `json:"trace_id"`
	Instance  string              `json:"instance"`
	Timestamp string              `json:"timestamp"`
	Errors    map[string][]string `json:"errors,omitempty"`
	Debug     *Debug              `json:"debug,omitempty"`
}

// Debug carries diagnostic detail attached only in development mode with
// verbose errors enabled.
type Debug struct {
	Exception string `json:"exception"`
	Message   string `json:"message"`
	Trace     string `json:"trace"`
}

// Write renders the document with the problem+json content type and
// echoes the trace id as the X-Request-ID response header.
func (p Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)
	if p.TraceID != "" {
		w.Header().Set(RequestIDHeader, p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
