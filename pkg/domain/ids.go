// Package domain holds the typed identifiers shared across onboarding modules.
//
// IDs are distinct named types over uuid.UUID so the compiler rejects
// cross-type assignment (a SessionID can never be passed where a UserID is
// expected). Parse functions enforce the trust-boundary invariant: IDs must
// be valid, non-empty, non-nil UUIDs.
package domain

import (
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "onboard/pkg/domain-errors"
)

// SessionID identifies one onboarding attempt.
type SessionID uuid.UUID

// UserID identifies the platform account created during onboarding. It is
// assigned by the platform API once the email is verified and carried on
// audit events from that point on.
type UserID uuid.UUID

func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id UserID) String() string    { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero UUID.
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// Text marshaling forwards to uuid.UUID so IDs render as canonical UUID
// strings in JSON (session records in Redis, audit payloads) instead of the
// raw 16-byte array a named array type would encode to.

func (id SessionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id UserID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }

func (id *SessionID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *UserID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }

// ParseSessionID validates and converts a string into a SessionID.
func ParseSessionID(s string) (SessionID, error) {
	parsed, err := parseID(s, "session_id")
	return SessionID(parsed), err
}

// ParseUserID validates and converts a string into a UserID.
func ParseUserID(s string) (UserID, error) {
	parsed, err := parseID(s, "user_id")
	return UserID(parsed), err
}

// parseID applies the shared validation rules for every typed ID.
func parseID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be empty")
	}
	if !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" contains invalid encoding")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, field+" is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be the nil UUID")
	}
	return parsed, nil
}
