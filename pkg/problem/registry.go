package problem

// Registry maps known error codes to canonical type URIs. Codes follow
// the SCOPE-SUBDOMAIN-NNNN convention (e.g. AUTH-LOGIN-001).
type Registry struct {
	types map[string]string
}

// NewRegistry creates a registry from a code-to-URI mapping.
func NewRegistry(types map[string]string) *Registry {
	copied := make(map[string]string, len(types))
	for code, uri := range types {
		copied[code] = uri
	}
	return &Registry{types: copied}
}

// TypeURI returns the canonical type URI for a code, reporting whether it
// is registered.
func (r *Registry) TypeURI(code string) (string, bool) {
	uri, ok := r.types[code]
	return uri, ok
}

// DefaultRegistry returns the built-in error code registry.
func DefaultRegistry() *Registry {
	return NewRegistry(map[string]string{
		"AUTH-LOGIN-001":      "https://example.com/errors/auth/invalid-credentials",
		"AUTH-TOKEN-001":      "https://example.com/errors/auth/token-expired",
		"AUTH-TOKEN-002":      "https://example.com/errors/auth/token-invalid",
		"AUTH-PERMISSION-001": "https://example.com/errors/auth/insufficient-permissions",
		"VAL-INPUT-001":       "https://example.com/errors/validation/invalid-input",
		"VAL-EMAIL-001":       "https://example.com/errors/validation/invalid-email",
		"BIZ-RESOURCE-001":    "https://example.com/errors/business/resource-not-found",
		"BIZ-CONFLICT-001":    "https://example.com/errors/business/resource-conflict",
		"INFRA-DB-001":        "https://example.com/errors/infrastructure/database-unavailable",
		"INFRA-API-001":       "https://example.com/errors/infrastructure/external-api-error",
		"INFRA-TIMEOUT-001":   "https://example.com/errors/infrastructure/request-timeout",
	})
}
