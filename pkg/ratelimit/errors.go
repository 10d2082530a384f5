package ratelimit

import "errors"

var (
	// Rule validation errors.
	ErrEmptyEndpointType  = errors.New("endpoint type cannot be empty")
	ErrInvalidMaxAttempts = errors.New("max attempts must be between 1 and 10000")
	ErrInvalidDecay       = errors.New("decay minutes must be between 1 and 60")

	// Key validation errors.
	ErrKeyEmpty         = errors.New("key cannot be empty")
	ErrKeyMissingPrefix = errors.New("key must start with rate_limit:")
	ErrKeyTooLong       = errors.New("key must not exceed 255 characters")
	ErrKeyIncomplete    = errors.New("key must have endpoint type and identifier segments")

	// Config errors.
	ErrReadConfigFile  = errors.New("failed to read rate limit config file")
	ErrParseConfigFile = errors.New("failed to parse rate limit config file")
)
