// Package problem normalizes application errors into RFC 7807 Problem
// Details documents.
//
// Errors carry a kind (domain, application, infrastructure), an HTTP
// status, a machine-readable error code, and a human-readable title and
// detail. The Normalizer turns any error into a wire-ready Problem:
//
//	normalizer := problem.NewNormalizer(
//		problem.WithBaseURL("https://api.example.com"),
//	)
//
//	p := normalizer.Normalize(err, problem.RequestContext{
//		Instance:  r.URL.Path,
//		RequestID: requestid.FromContext(r.Context()),
//	})
//	p.Write(w)
//
// Type URIs for known error codes come from a registry; unknown codes get
// a fallback URI built from the configured base URL and a sanitized form
// of the code (lower-cased, everything outside [a-z0-9-] stripped). The
// original code is always preserved verbatim in the error_code field.
//
// Validation failures, expressed as a ValidationError map, produce a 422
// document with an errors map of field names to messages.
//
// Unexpected errors outside the known kinds are masked in production-like
// environments: the detail becomes a generic sentence and no debug
// information is attached. In development, with verbose errors enabled,
// the real message plus type and stack trace appear under a debug key.
package problem
