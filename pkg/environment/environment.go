// Package environment models the runtime environment the application runs
// in and drives environment-dependent behavior such as error masking and
// log formatting.
package environment

import "strings"

// Environment represents the application environment.
type Environment string

const (
	// Development for local development.
	Development Environment = "development"
	// Staging for pre-production deployments.
	Staging Environment = "staging"
	// Production for production deployments.
	Production Environment = "production"
)

// Parse normalizes common environment spellings. Unrecognized values
// resolve to Development so misconfiguration surfaces loudly (verbose
// errors) rather than silently hiding diagnostics.
func Parse(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Production), "prod":
		return Production
	case string(Staging), "stage":
		return Staging
	default:
		return Development
	}
}

// IsProduction reports whether the environment is production.
func (e Environment) IsProduction() bool {
	return e == Production || e == "prod"
}

// IsStaging reports whether the environment is staging.
func (e Environment) IsStaging() bool {
	return e == Staging || e == "stage"
}

// IsDevelopment reports whether the environment is development.
func (e Environment) IsDevelopment() bool {
	return !e.IsProduction() && !e.IsStaging()
}
