package logger

import "log/slog"

// Component records which subsystem produced the record.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records a machine-filterable event name.
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// ErrorCode records a machine-readable error code.
func ErrorCode(code string) slog.Attr {
	if code == "" {
		return slog.Attr{}
	}
	return slog.String("error_code", code)
}

// EndpointType records the rate limit endpoint classification.
func EndpointType(t string) slog.Attr {
	return slog.String("endpoint_type", t)
}

// RateLimitKey records a hashed rate limit key. Callers must pass the
// hashed form; raw keys embed user identities.
func RateLimitKey(hashed string) slog.Attr {
	return slog.String("rate_limit_key", hashed)
}

// StoreName records which rate limit store served an operation.
func StoreName(store string) slog.Attr {
	return slog.String("store", store)
}

// LatencyMS records an operation duration in milliseconds.
func LatencyMS(ms float64) slog.Attr {
	return slog.Float64("latency_ms", ms)
}
