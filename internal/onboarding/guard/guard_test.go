package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"onboard/internal/onboarding/catalog"
	dErrors "onboard/pkg/domain-errors"
)

func stepPtr(s catalog.Step) *catalog.Step { return &s }

// TestCanAdvanceTo_TruthTable exercises the guard rule over every pair of
// non-EXPIRED steps: allowed iff rank(target) <= rank(current).
func TestCanAdvanceTo_TruthTable(t *testing.T) {
	steps := catalog.NominalOrder()
	for _, current := range steps {
		for _, target := range steps {
			want := catalog.Rank(target) <= catalog.Rank(current)
			got := CanAdvanceTo(stepPtr(current), target)
			assert.Equal(t, want, got, "current=%s target=%s", current, target)
		}
	}
}

func TestCanAdvanceTo_EdgeCases(t *testing.T) {
	t.Run("unset current denies every target", func(t *testing.T) {
		for _, target := range catalog.All() {
			assert.False(t, CanAdvanceTo(nil, target), "target=%s", target)
		}
	})

	t.Run("nothing is reachable from EXPIRED", func(t *testing.T) {
		for _, target := range catalog.NominalOrder() {
			assert.False(t, CanAdvanceTo(stepPtr(catalog.StepExpired), target),
				"target=%s", target)
		}
	})

	t.Run("backward jump across the shared-rank stage is allowed", func(t *testing.T) {
		// PERSONAL_INFO and ORGANIZATION_INFO share a rank, so either
		// direction between them passes the guard.
		assert.True(t, CanAdvanceTo(stepPtr(catalog.StepOrganizationInfo), catalog.StepPersonalInfo))
		assert.True(t, CanAdvanceTo(stepPtr(catalog.StepPersonalInfo), catalog.StepOrganizationInfo))
	})

	t.Run("forward jump is denied", func(t *testing.T) {
		assert.False(t, CanAdvanceTo(stepPtr(catalog.StepPersonalInfo), catalog.StepBusinessObjectives))
		assert.False(t, CanAdvanceTo(stepPtr(catalog.StepEmailSent), catalog.StepCompleted))
	})
}

func TestCheck(t *testing.T) {
	t.Run("permitted transition returns nil", func(t *testing.T) {
		assert.NoError(t, Check(stepPtr(catalog.StepPersonalInfo), catalog.StepEmailSent))
	})

	t.Run("denied transition returns a guard violation", func(t *testing.T) {
		err := Check(stepPtr(catalog.StepPersonalInfo), catalog.StepBusinessObjectives)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeGuardViolation))
	})

	t.Run("unset current is reported as such", func(t *testing.T) {
		err := Check(nil, catalog.StepEmailSent)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeGuardViolation))
		assert.Contains(t, err.Error(), "unset")
	})
}

func TestRouteFor(t *testing.T) {
	assert.Equal(t, catalog.DestEntry, RouteFor(catalog.StepExpired),
		"EXPIRED always routes to the entry point")
	assert.Equal(t, catalog.DestVerifyEmail, RouteFor(catalog.StepEmailSent))
	assert.Equal(t, catalog.DestAssessment, RouteFor(catalog.StepCompleted))
}
