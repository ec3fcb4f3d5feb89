// Package guard decides whether a requested step transition is permitted
// and where it should route. This is pure policy: no I/O, no side effects,
// so the rules stay centralized and testable.
package guard

import (
	"onboard/internal/onboarding/catalog"
	dErrors "onboard/pkg/domain-errors"
)

// CanAdvanceTo reports whether a transition from current to target is
// allowed without server confirmation. The policy is deliberately
// conservative: a user may always revisit a step they have already reached
// (rank(target) <= rank(current)), but forward movement only happens through
// the explicit completion of each step, never through direct navigation.
//
// When current is nil the session has not been restored yet and every
// target is denied; entry happens implicitly through restoration.
func CanAdvanceTo(current *catalog.Step, target catalog.Step) bool {
	if current == nil {
		return false
	}
	if *current == catalog.StepExpired {
		// Terminal-absorbing: nothing is reachable from EXPIRED except
		// the entry point, and that routing bypasses the guard.
		return false
	}
	return catalog.Rank(target) <= catalog.Rank(*current)
}

// Check returns a GuardViolation error when the transition is denied. The
// transition executor converts this into a silent no-op; it exists as a
// typed error so programmatic misuse is still observable in logs and tests.
func Check(current *catalog.Step, target catalog.Step) error {
	if CanAdvanceTo(current, target) {
		return nil
	}
	currentName := "unset"
	if current != nil {
		currentName = string(*current)
	}
	return dErrors.Newf(dErrors.CodeGuardViolation,
		"transition from %s to %s is not permitted", currentName, target)
}

// RouteFor computes the destination for a validated target. EXPIRED is the
// one special case: it always routes to the registration entry point
// regardless of prior progress.
func RouteFor(target catalog.Step) catalog.Destination {
	if target == catalog.StepExpired {
		return catalog.DestEntry
	}
	return catalog.DestinationOf(target)
}
