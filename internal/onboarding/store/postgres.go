package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"onboard/internal/onboarding/catalog"
	"onboard/internal/onboarding/models"
	id "onboard/pkg/domain"
	"onboard/pkg/platform/sentinel"
)

// PostgresSessionStore persists sessions durably. The accumulated user data
// is stored as JSONB; the token, like in the Redis store, is stored only as
// a SHA-256 digest.
type PostgresSessionStore struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed session store.
func NewPostgres(pool *pgxpool.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Save upserts the session row keyed by token digest.
func (s *PostgresSessionStore) Save(ctx context.Context, session *models.Session) error {
	if session.Token == "" {
		return nil
	}

	userData, err := json.Marshal(session.UserData)
	if err != nil {
		return fmt.Errorf("marshal user data: %w", err)
	}

	var stepName *string
	if step, ok := session.Step(); ok {
		name := string(step)
		stepName = &name
	}

	var userID *uuid.UUID
	if !session.UserID.IsNil() {
		uid := uuid.UUID(session.UserID)
		userID = &uid
	}

	query := `
		INSERT INTO onboarding_sessions (
			id, user_id, token_digest, current_step, step_number,
			user_data, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (token_digest) DO UPDATE SET
			user_id      = EXCLUDED.user_id,
			current_step = EXCLUDED.current_step,
			step_number  = EXCLUDED.step_number,
			user_data    = EXCLUDED.user_data,
			updated_at   = EXCLUDED.updated_at
	`
	_, err = s.pool.Exec(ctx, query,
		uuid.UUID(session.ID),
		userID,
		tokenDigest(session.Token),
		stepName,
		session.StepNumber,
		userData,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// FindByToken returns the persisted session for a token. The raw token is
// not stored, so the returned session carries the caller's token back.
func (s *PostgresSessionStore) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT id, user_id, current_step, step_number, user_data,
		       created_at, updated_at
		FROM onboarding_sessions
		WHERE token_digest = $1
	`

	var (
		sessionID uuid.UUID
		userID    *uuid.UUID
		stepName  *string
		session   models.Session
		userData  []byte
	)
	err := s.pool.QueryRow(ctx, query, tokenDigest(token)).Scan(
		&sessionID,
		&userID,
		&stepName,
		&session.StepNumber,
		&userData,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	session.ID = id.SessionID(sessionID)
	session.Token = token
	if userID != nil {
		session.UserID = id.UserID(*userID)
	}
	if stepName != nil {
		// Fail loudly on a corrupted step name; routing to an undefined
		// destination is worse than refusing to restore.
		step, err := catalog.Parse(*stepName)
		if err != nil {
			return nil, err
		}
		session.SetStep(step)
	}
	if err := json.Unmarshal(userData, &session.UserData); err != nil {
		return nil, fmt.Errorf("unmarshal user data: %w", err)
	}
	return &session, nil
}

// DeleteByToken removes the persisted session. Idempotent.
func (s *PostgresSessionStore) DeleteByToken(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM onboarding_sessions WHERE token_digest = $1`, tokenDigest(token))
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
