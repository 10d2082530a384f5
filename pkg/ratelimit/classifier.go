package ratelimit

import (
	"regexp"
	"strings"
)

// Principal is the resolved identity attached to an authenticated request.
type Principal struct {
	UserID  int64
	TokenID string
}

// RequestContext carries the request fields this package needs, decoupled
// from any concrete HTTP framework. A nil Principal means the request is
// unauthenticated.
type RequestContext struct {
	RouteName string
	Principal *Principal
	ClientIP  string
	Email     string
}

// Authenticated reports whether a principal was resolved for the request.
func (rc RequestContext) Authenticated() bool {
	return rc.Principal != nil
}

// Classifier assigns one of the four endpoint types to a request by
// combining authentication state with route sensitivity.
type Classifier struct {
	config   *ConfigManager
	patterns []*regexp.Regexp
}

// NewClassifier creates a classifier using the manager's protected route
// patterns. Patterns are glob-like: `*` matches any sequence, everything
// else is literal (e.g. "password.*" matches "password.reset").
func NewClassifier(config *ConfigManager) *Classifier {
	patterns := config.ProtectedRoutes()
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, compilePattern(p))
	}
	return &Classifier{config: config, patterns: compiled}
}

// Classify determines the endpoint type of the request and pairs it with
// its rule. Requests without a route name cannot be matched against
// protected patterns and take the public path.
func (c *Classifier) Classify(rc RequestContext) Classification {
	authenticated := rc.Authenticated()
	protected := c.isProtected(rc.RouteName)

	var endpointType EndpointType
	switch {
	case !authenticated && !protected:
		endpointType = EndpointPublicUnauthenticated
	case !authenticated && protected:
		endpointType = EndpointProtectedUnauthenticated
	case authenticated && !protected:
		endpointType = EndpointPublicAuthenticated
	default:
		endpointType = EndpointProtectedAuthenticated
	}

	return NewClassification(endpointType, c.config.RuleFor(endpointType))
}

func (c *Classifier) isProtected(routeName string) bool {
	if routeName == "" {
		return false
	}
	for _, re := range c.patterns {
		if re.MatchString(routeName) {
			return true
		}
	}
	return false
}

// compilePattern turns a glob-like pattern into an anchored regexp,
// escaping everything except `*` which becomes `.*`.
func compilePattern(pattern string) *regexp.Regexp {
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
}
