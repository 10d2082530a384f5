package problem

import (
	"fmt"
	"strings"
)

// Kind is the closed set of known error categories. The normalizer
// matches on the kind instead of probing error types at runtime.
type Kind int

const (
	// KindUnknown marks errors outside the taxonomy; their details are
	// masked in production.
	KindUnknown Kind = iota
	// KindDomain is a business rule violation, typically 4xx.
	KindDomain
	// KindApplication is a use case or orchestration failure.
	KindApplication
	// KindInfrastructure is an external dependency failure, typically 5xx.
	KindInfrastructure
)

func (k Kind) String() string {
	switch k {
	case KindDomain:
		return "domain"
	case KindApplication:
		return "application"
	case KindInfrastructure:
		return "infrastructure"
	default:
		return "unknown"
	}
}

// Error is an immutable classified error. Its detail is written by the
// code that constructs it and is considered safe to expose as-is.
type Error struct {
	kind       Kind
	statusCode int
	code       string
	title      string
	detail     string
}

// NewDomain creates a domain error (business rule violation).
func NewDomain(statusCode int, code, title, detail string) *Error {
	return &Error{kind: KindDomain, statusCode: statusCode, code: code, title: title, detail: detail}
}

// NewApplication creates an application error (use case failure).
func NewApplication(statusCode int, code, title, detail string) *Error {
	return &Error{kind: KindApplication, statusCode: statusCode, code: code, title: title, detail: detail}
}

// NewInfrastructure creates an infrastructure error (dependency failure).
func NewInfrastructure(statusCode int, code, title, detail string) *Error {
	return &Error{kind: KindInfrastructure, statusCode: statusCode, code: code, title: title, detail: detail}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.detail != "" {
		return e.detail
	}
	return e.title
}

func (e *Error) Kind() Kind      { return e.kind }
func (e *Error) StatusCode() int { return e.statusCode }
func (e *Error) Code() string    { return e.code }
func (e *Error) Title() string   { return e.title }
func (e *Error) Detail() string  { return e.detail }

// ValidationError represents field validation failures as a map of field
// name to messages. It normalizes to a 422 Problem with an errors map.
type ValidationError map[string][]string

// NewValidationError creates an empty validation error.
func NewValidationError() ValidationError {
	return make(ValidationError)
}

// Add appends an error message for a field.
func (e ValidationError) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Has reports whether a field has any errors.
func (e ValidationError) Has(field string) bool {
	return len(e[field]) > 0
}

// IsEmpty reports whether there are no validation errors.
func (e ValidationError) IsEmpty() bool {
	return len(e) == 0
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}

	parts := make([]string, 0, len(e))
	for field, messages := range e {
		if len(messages) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", field, messages[0]))
		}
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
