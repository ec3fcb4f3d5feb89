// Package token issues and validates the signed session tokens that carry a
// registration attempt across page reloads.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "onboard/pkg/domain"
	dErrors "onboard/pkg/domain-errors"
)

// Claims are the JWT claims carried by a session token. The step hint is
// advisory only; the platform API stays authoritative for the real step.
type Claims struct {
	SessionID string `json:"session_id"`
	StepHint  string `json:"step_hint,omitempty"`
	jwt.RegisteredClaims
}

// Service signs and validates session tokens (HS256).
type Service struct {
	signingKey []byte
	issuer     string
	lifetime   time.Duration
}

// New creates a token service. lifetime bounds how long a registration
// attempt survives without completing.
func New(signingKey string, issuer string, lifetime time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		lifetime:   lifetime,
	}
}

// Lifetime returns the configured token lifetime, used by the Redis session
// store to align key TTLs with token expiry.
func (s *Service) Lifetime() time.Duration {
	return s.lifetime
}

// Issue signs a new session token.
func (s *Service) Issue(sessionID id.SessionID, stepHint string) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: sessionID.String(),
		StepHint:  stepHint,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign session token")
	}
	return signed, nil
}

// Validate parses and verifies a session token.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// SessionIDFromToken validates the token and extracts its session ID.
func (s *Service) SessionIDFromToken(tokenString string) (id.SessionID, error) {
	claims, err := s.Validate(tokenString)
	if err != nil {
		return id.SessionID{}, err
	}
	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		return id.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session id in token")
	}
	return sessionID, nil
}
