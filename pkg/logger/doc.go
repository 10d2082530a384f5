// Package logger builds configured slog loggers with environment-aware
// defaults, static attributes, and context-based attribute injection.
//
// The factory returns a standard *slog.Logger, so packages depend only on
// log/slog while wiring stays centralized:
//
//	log := logger.New(
//		logger.WithEnvironment(env, "limitguard"),
//		logger.WithContextExtractors(requestid.LogExtractor()),
//	)
//	logger.SetAsDefault(log)
//
// Attr helpers (Component, Event, RequestID, ...) keep attribute keys
// consistent across packages.
package logger
