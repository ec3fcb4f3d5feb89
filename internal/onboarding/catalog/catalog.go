// Package catalog defines the closed set of onboarding steps, their ranks,
// and their destinations. The catalog is the single source of truth for
// valid steps: it is package-level immutable data, defined once, and every
// step name arriving from the platform API or from persisted storage must
// pass through Parse before it is trusted.
package catalog

import (
	dErrors "onboard/pkg/domain-errors"
)

// Step is one named stage of the onboarding sequence.
type Step string

const (
	StepExpired              Step = "EXPIRED"
	StepEmailSent            Step = "EMAIL_SENT"
	StepEmailVerified        Step = "EMAIL_VERIFIED"
	StepPersonalInfo         Step = "PERSONAL_INFO"
	StepOrganizationInfo     Step = "ORGANIZATION_INFO"
	StepBusinessObjectives   Step = "BUSINESS_OBJECTIVES"
	StepComplianceObjectives Step = "COMPLIANCE_OBJECTIVES"
	StepCompleted            Step = "COMPLETED"
)

// Destination is the opaque view identifier the frontend routes to for a
// step. The service never interprets destinations beyond equality checks.
type Destination string

const (
	DestEntry                Destination = "register"
	DestVerifyEmail          Destination = "verify-email"
	DestPersonalInfo         Destination = "personal-info"
	DestOrganization         Destination = "organization"
	DestBusinessObjectives   Destination = "business-objectives"
	DestComplianceObjectives Destination = "compliance-objectives"
	DestAssessment           Destination = "assessment"
)

// entry describes one catalog row. Ranks are monotonically non-decreasing
// along the nominal order; PERSONAL_INFO and ORGANIZATION_INFO deliberately
// share a rank because they form a single stage in the visual stepper.
// EXPIRED has rank 0: the sentinel for "no progress".
type entry struct {
	rank        int
	destination Destination
}

var entries = map[Step]entry{
	StepExpired:              {rank: 0, destination: DestEntry},
	StepEmailSent:            {rank: 1, destination: DestVerifyEmail},
	StepEmailVerified:        {rank: 2, destination: DestPersonalInfo},
	StepPersonalInfo:         {rank: 3, destination: DestOrganization},
	StepOrganizationInfo:     {rank: 3, destination: DestBusinessObjectives},
	StepBusinessObjectives:   {rank: 4, destination: DestComplianceObjectives},
	StepComplianceObjectives: {rank: 5, destination: DestAssessment},
	StepCompleted:            {rank: 6, destination: DestAssessment},
}

// nominalOrder is the forward sequence used by Next/Prev. Adjacency is by
// position in this slice, not by rank, since two steps share a rank.
// EXPIRED is not part of the sequence: it is reachable from any state but
// never adjacent to one.
var nominalOrder = []Step{
	StepEmailSent,
	StepEmailVerified,
	StepPersonalInfo,
	StepOrganizationInfo,
	StepBusinessObjectives,
	StepComplianceObjectives,
	StepCompleted,
}

// Parse validates a step name against the closed catalog. Unknown names fail
// loudly with an UnknownStep error rather than defaulting, so corrupted
// persisted state can never route to an undefined destination.
func Parse(name string) (Step, error) {
	step := Step(name)
	if _, ok := entries[step]; !ok {
		return "", dErrors.Newf(dErrors.CodeUnknownStep, "unknown onboarding step %q", name)
	}
	return step, nil
}

// Rank returns the step's position value for guard comparisons. Callers must
// hold a Step obtained from Parse or from the package constants; Rank on a
// step outside the catalog returns 0.
func Rank(step Step) int {
	return entries[step].rank
}

// DestinationOf returns the view the frontend should show for a step.
func DestinationOf(step Step) Destination {
	if e, ok := entries[step]; ok {
		return e.destination
	}
	return DestEntry
}

// Next returns the step after s in the nominal order. ok is false when s is
// the last step, is EXPIRED, or is not in the sequence.
func Next(s Step) (Step, bool) {
	for i, step := range nominalOrder {
		if step == s && i+1 < len(nominalOrder) {
			return nominalOrder[i+1], true
		}
	}
	return "", false
}

// Prev returns the step before s in the nominal order. ok is false when s is
// the first step, is EXPIRED, or is not in the sequence.
func Prev(s Step) (Step, bool) {
	for i, step := range nominalOrder {
		if step == s && i > 0 {
			return nominalOrder[i-1], true
		}
	}
	return "", false
}

// NominalOrder returns a copy of the forward sequence, for progress
// rendering and tests.
func NominalOrder() []Step {
	out := make([]Step, len(nominalOrder))
	copy(out, nominalOrder)
	return out
}

// All returns every step in the catalog, including EXPIRED.
func All() []Step {
	out := make([]Step, 0, len(entries))
	out = append(out, StepExpired)
	out = append(out, nominalOrder...)
	return out
}
