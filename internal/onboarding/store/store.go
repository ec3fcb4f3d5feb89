// Package store persists onboarding sessions. Three implementations share
// one contract: memory for tests and development, Redis for token survival
// across page reloads, Postgres for the durable registration record.
package store

import (
	"context"

	"onboard/internal/onboarding/models"
)

// SessionStore is the persistence port for onboarding sessions.
//
// Save is a write-through upsert with last-writer-wins semantics: it is
// called on every applied transition, and persistence is a side channel for
// token survival, not a synchronization mechanism.
type SessionStore interface {
	// Save upserts the session record.
	Save(ctx context.Context, session *models.Session) error

	// FindByToken returns the session persisted for a token, or
	// sentinel.ErrNotFound.
	FindByToken(ctx context.Context, token string) (*models.Session, error)

	// DeleteByToken removes the session persisted for a token. Deleting an
	// absent session is not an error: clearing must be idempotent.
	DeleteByToken(ctx context.Context, token string) error
}
