package ratelimit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/limitguard/limitguard/pkg/ratelimit"
)

func TestClassifier_Classify(t *testing.T) {
	t.Parallel()

	classifier := ratelimit.NewClassifier(ratelimit.NewConfigManager(ratelimit.DefaultConfig()))
	principal := &ratelimit.Principal{UserID: 42}

	tests := []struct {
		name     string
		rc       ratelimit.RequestContext
		expected ratelimit.EndpointType
	}{
		{
			name:     "anonymous on public route",
			rc:       ratelimit.RequestContext{RouteName: "products.index", ClientIP: "192.0.2.1"},
			expected: ratelimit.EndpointPublicUnauthenticated,
		},
		{
			name:     "anonymous on login route",
			rc:       ratelimit.RequestContext{RouteName: "login", ClientIP: "192.0.2.1"},
			expected: ratelimit.EndpointProtectedUnauthenticated,
		},
		{
			name:     "anonymous on wildcard protected route",
			rc:       ratelimit.RequestContext{RouteName: "password.reset", ClientIP: "192.0.2.1"},
			expected: ratelimit.EndpointProtectedUnauthenticated,
		},
		{
			name:     "authenticated on public route",
			rc:       ratelimit.RequestContext{RouteName: "products.index", Principal: principal, ClientIP: "192.0.2.1"},
			expected: ratelimit.EndpointPublicAuthenticated,
		},
		{
			name:     "authenticated on admin route",
			rc:       ratelimit.RequestContext{RouteName: "admin.users", Principal: principal, ClientIP: "192.0.2.1"},
			expected: ratelimit.EndpointProtectedAuthenticated,
		},
		{
			name:     "missing route name takes the public path",
			rc:       ratelimit.RequestContext{ClientIP: "192.0.2.1"},
			expected: ratelimit.EndpointPublicUnauthenticated,
		},
		{
			name:     "wildcard does not match bare prefix",
			rc:       ratelimit.RequestContext{RouteName: "administrator", ClientIP: "192.0.2.1"},
			expected: ratelimit.EndpointPublicUnauthenticated,
		},
		{
			name:     "literal pattern requires exact match",
			rc:       ratelimit.RequestContext{RouteName: "login.help", ClientIP: "192.0.2.1"},
			expected: ratelimit.EndpointPublicUnauthenticated,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			classification := classifier.Classify(tt.rc)
			assert.Equal(t, tt.expected, classification.Type())
			assert.Equal(t, tt.expected, classification.Rule().EndpointType())
		})
	}
}

func TestClassifier_CustomPatterns(t *testing.T) {
	t.Parallel()

	cfg := ratelimit.DefaultConfig()
	cfg.ProtectedRoutes = []string{"api.v1.billing.*"}
	classifier := ratelimit.NewClassifier(ratelimit.NewConfigManager(cfg))

	c := classifier.Classify(ratelimit.RequestContext{RouteName: "api.v1.billing.invoices", ClientIP: "192.0.2.1"})
	assert.Equal(t, ratelimit.EndpointProtectedUnauthenticated, c.Type())

	c = classifier.Classify(ratelimit.RequestContext{RouteName: "login", ClientIP: "192.0.2.1"})
	assert.Equal(t, ratelimit.EndpointPublicUnauthenticated, c.Type())
}
