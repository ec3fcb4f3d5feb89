// Package enrichment calls the AI-enrichment collaborator that proposes
// business objectives and compliance frameworks for an organization profile.
// The engine treats the results as opaque candidate lists.
package enrichment

import (
	"context"

	"onboard/internal/onboarding/models"
)

//go:generate mockgen -source=enrichment.go -destination=mocks/mocks.go -package=mocks

// Candidates holds both candidate dimensions for one organization.
type Candidates struct {
	Objectives []models.Candidate
	Frameworks []models.Candidate
}

// Client is the enrichment port. Implementations must be safe for
// concurrent use.
type Client interface {
	// Candidates returns objective and framework candidates for the given
	// organization profile.
	Candidates(ctx context.Context, org models.OrganizationInfo) (Candidates, error)
}
