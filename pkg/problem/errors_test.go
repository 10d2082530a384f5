package problem_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/limitguard/limitguard/pkg/problem"
)

func TestError(t *testing.T) {
	t.Parallel()

	t.Run("kinds", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, problem.KindDomain, problem.NewDomain(http.StatusNotFound, "BIZ-RESOURCE-001", "Not Found", "").Kind())
		assert.Equal(t, problem.KindApplication, problem.NewApplication(http.StatusConflict, "BIZ-CONFLICT-001", "Conflict", "").Kind())
		assert.Equal(t, problem.KindInfrastructure, problem.NewInfrastructure(http.StatusServiceUnavailable, "INFRA-DB-001", "Unavailable", "").Kind())
	})

	t.Run("kind names", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "domain", problem.KindDomain.String())
		assert.Equal(t, "application", problem.KindApplication.String())
		assert.Equal(t, "infrastructure", problem.KindInfrastructure.String())
		assert.Equal(t, "unknown", problem.KindUnknown.String())
	})

	t.Run("error message prefers detail over title", func(t *testing.T) {
		t.Parallel()

		withDetail := problem.NewDomain(http.StatusNotFound, "BIZ-RESOURCE-001", "Not Found", "order 42 does not exist")
		assert.Equal(t, "order 42 does not exist", withDetail.Error())

		withoutDetail := problem.NewDomain(http.StatusNotFound, "BIZ-RESOURCE-001", "Not Found", "")
		assert.Equal(t, "Not Found", withoutDetail.Error())
	})
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	t.Run("accumulates messages per field", func(t *testing.T) {
		t.Parallel()

		verr := problem.NewValidationError()
		assert.True(t, verr.IsEmpty())

		verr.Add("email", "is required")
		verr.Add("email", "must be valid")

		assert.False(t, verr.IsEmpty())
		assert.True(t, verr.Has("email"))
		assert.False(t, verr.Has("password"))
		assert.Equal(t, []string{"is required", "must be valid"}, verr["email"])
	})

	t.Run("error message", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "validation failed", problem.NewValidationError().Error())

		verr := problem.NewValidationError()
		verr.Add("email", "is required")
		assert.Equal(t, "validation failed: email: is required", verr.Error())
	})
}
