package environment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/limitguard/limitguard/pkg/environment"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected environment.Environment
	}{
		{"production", environment.Production},
		{"prod", environment.Production},
		{"PRODUCTION", environment.Production},
		{" prod ", environment.Production},
		{"staging", environment.Staging},
		{"stage", environment.Staging},
		{"development", environment.Development},
		{"dev", environment.Development},
		{"", environment.Development},
		{"anything-else", environment.Development},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, environment.Parse(tt.input))
		})
	}
}

func TestEnvironment_Checks(t *testing.T) {
	t.Parallel()

	assert.True(t, environment.Production.IsProduction())
	assert.False(t, environment.Production.IsDevelopment())

	assert.True(t, environment.Staging.IsStaging())
	assert.False(t, environment.Staging.IsProduction())

	assert.True(t, environment.Development.IsDevelopment())
	assert.False(t, environment.Development.IsProduction())

	// Short spellings behave like their canonical forms.
	assert.True(t, environment.Environment("prod").IsProduction())
	assert.True(t, environment.Environment("stage").IsStaging())
}
