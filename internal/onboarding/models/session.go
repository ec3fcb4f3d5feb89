// Package models holds the onboarding session record and the accumulated
// user data it carries. Mutation goes through the engine operations; stores
// persist these structs as-is.
package models

import (
	"time"

	"onboard/internal/onboarding/catalog"
	id "onboard/pkg/domain"
	dErrors "onboard/pkg/domain-errors"
)

// Session is the mutable record of one onboarding attempt. Exactly one
// session exists per registration token; the engine owns it exclusively
// while the attempt is active.
//
// Invariant: StepNumber equals catalog.Rank(*CurrentStep) whenever
// CurrentStep is set. The engine maintains this on every transition.
type Session struct {
	ID          id.SessionID   `json:"id"`
	UserID      id.UserID      `json:"user_id,omitempty"`
	Token       string         `json:"token,omitempty"`
	CurrentStep *catalog.Step  `json:"current_step,omitempty"`
	StepNumber  int            `json:"step_number"`
	UserData    UserDataRecord `json:"user_data"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// Transient UI-facing flags. Never persisted.
	IsLoading   bool `json:"-"`
	IsRestoring bool `json:"-"`
}

// SetStep updates the current step and keeps the cached rank in sync.
func (s *Session) SetStep(step catalog.Step) {
	s.CurrentStep = &step
	s.StepNumber = catalog.Rank(step)
}

// Step returns the current step and whether one is set.
func (s *Session) Step() (catalog.Step, bool) {
	if s.CurrentStep == nil {
		return "", false
	}
	return *s.CurrentStep, true
}

// Clear resets every field to its initial empty value. Used on logout and
// on unrecoverable restoration failure; no partial state survives.
func (s *Session) Clear() {
	*s = Session{ID: s.ID, CreatedAt: s.CreatedAt}
}

// PersonalInfo is the fragment collected on the personal-info step. The
// plaintext password is accepted on the submission request but is never
// stored: the engine strips it and retains only a bcrypt hash.
type PersonalInfo struct {
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	JobTitle     string `json:"job_title,omitempty"`
	Phone        string `json:"phone,omitempty"`
	PasswordHash string `json:"password_hash,omitempty"`
}

// OrganizationInfo is the fragment collected on the organization step,
// including the enrichment results and the user's selections from them.
type OrganizationInfo struct {
	Name    string `json:"name,omitempty"`
	Country string `json:"country,omitempty"`
	Website string `json:"website,omitempty"`

	// Candidate lists supplied by the enrichment collaborator.
	ObjectiveCandidates []Candidate `json:"objective_candidates,omitempty"`
	FrameworkCandidates []Candidate `json:"framework_candidates,omitempty"`

	// Selected subsets. nil means "no selection made yet", which the
	// selection rules distinguish from an explicit empty selection.
	SelectedObjectives []string `json:"selected_objectives,omitempty"`
	SelectedFrameworks []string `json:"selected_frameworks,omitempty"`
}

// Candidate is one selectable business objective or compliance framework
// proposed by the enrichment service.
type Candidate struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// ObjectiveInfo is the fragment collected on the objectives steps.
type ObjectiveInfo struct {
	BusinessObjectives   []string `json:"business_objectives,omitempty"`
	ComplianceFrameworks []string `json:"compliance_frameworks,omitempty"`
}

// UserDataRecord accumulates the fragments each step submits. It grows
// monotonically across the session and is cleared only with the session.
type UserDataRecord struct {
	Email        string            `json:"email,omitempty"`
	Personal     *PersonalInfo     `json:"personal,omitempty"`
	Organization *OrganizationInfo `json:"organization,omitempty"`
	Objectives   *ObjectiveInfo    `json:"objectives,omitempty"`
}

// Fragment is a partial UserDataRecord supplied by one step. All fields are
// optional; absent fields leave existing data untouched.
type Fragment = UserDataRecord

// Merge performs the additive shallow union: a set top-level field in the
// fragment replaces the corresponding field, an unset one never clears what
// a previous step collected. Merges of fragments with disjoint set fields
// therefore commute.
func (r *UserDataRecord) Merge(fragment Fragment) {
	if fragment.Email != "" {
		r.Email = fragment.Email
	}
	if fragment.Personal != nil {
		r.Personal = fragment.Personal
	}
	if fragment.Organization != nil {
		r.Organization = fragment.Organization
	}
	if fragment.Objectives != nil {
		r.Objectives = fragment.Objectives
	}
}

// Set replaces exactly one top-level field, named by its JSON key. Unlike
// Merge it can clear a field by assigning the zero value. Unknown keys and
// mismatched value types are rejected.
func (r *UserDataRecord) Set(key string, value any) error {
	switch key {
	case "email":
		v, ok := value.(string)
		if !ok {
			return dErrors.Newf(dErrors.CodeInvalidInput, "field %q takes a string", key)
		}
		r.Email = v
	case "personal":
		v, ok := value.(*PersonalInfo)
		if !ok {
			return dErrors.Newf(dErrors.CodeInvalidInput, "field %q takes *PersonalInfo", key)
		}
		r.Personal = v
	case "organization":
		v, ok := value.(*OrganizationInfo)
		if !ok {
			return dErrors.Newf(dErrors.CodeInvalidInput, "field %q takes *OrganizationInfo", key)
		}
		r.Organization = v
	case "objectives":
		v, ok := value.(*ObjectiveInfo)
		if !ok {
			return dErrors.Newf(dErrors.CodeInvalidInput, "field %q takes *ObjectiveInfo", key)
		}
		r.Objectives = v
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown user data field %q", key)
	}
	return nil
}
