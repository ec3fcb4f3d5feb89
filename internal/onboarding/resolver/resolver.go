// Package resolver defines the contract with the platform API: the external
// collaborator that owns the authoritative onboarding state for a token.
// The engine treats its answers as ground truth and reconciles local state
// to them; it never second-guesses the resolved step.
package resolver

import (
	"context"
	"errors"

	"onboard/internal/onboarding/models"
)

//go:generate mockgen -source=resolver.go -destination=mocks/mocks.go -package=mocks

// Typed failure facts. The service layer maps these onto domain error codes
// and the matching recovery: invalid tokens clear the session, unavailability
// is surfaced with a retry affordance.
var (
	// ErrInvalidToken means the platform API rejected the token as unknown
	// or expired. Not retried; the session must be cleared.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrRemoteUnavailable means the platform API could not be reached or
	// answered with a server error. The caller may retry.
	ErrRemoteUnavailable = errors.New("platform api unavailable")
)

// Status is the authoritative answer for a token. StepName arrives as the
// raw server-side name and must pass through catalog.Parse before use.
type Status struct {
	StepName string

	// Previously collected data, returned so a restored session can be
	// rebuilt without re-asking the user. All fields optional.
	Email        string
	Personal     *models.PersonalInfo
	Organization *models.OrganizationInfo
	Objectives   *models.ObjectiveInfo

	// FreshToken, when set, rotates the credential: the engine must persist
	// it and stop using the old token.
	FreshToken string
}

// SubmitResult is the platform API's answer to a step submission.
type SubmitResult struct {
	Success    bool
	Message    string
	FreshStep  string
	FreshToken string
}

// Client is the port the engine consumes. Implementations must return
// ErrInvalidToken / ErrRemoteUnavailable (optionally wrapped) so callers
// can branch on the failure kind.
type Client interface {
	// ResolveStatus returns the authoritative current step and any
	// previously collected data for a token.
	ResolveStatus(ctx context.Context, token string) (*Status, error)

	// SubmitStep submits one step's payload. stepName is the server-side
	// step the payload belongs to.
	SubmitStep(ctx context.Context, stepName, token string, payload any) (*SubmitResult, error)
}
