package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "onboard/pkg/domain"
	dErrors "onboard/pkg/domain-errors"
)

var service = New("test-signing-key", "test-issuer", time.Hour)
var sessionID = id.SessionID(uuid.New())

func Test_Issue(t *testing.T) {
	tok, err := service.Issue(sessionID, "COMPLETED")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := service.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, sessionID.String(), claims.SessionID)
	assert.Equal(t, "COMPLETED", claims.StepHint)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_Validate_InvalidToken(t *testing.T) {
	_, err := service.Validate("invalid-token-string")
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_Validate_ExpiredToken(t *testing.T) {
	expired := New("test-signing-key", "test-issuer", -time.Hour)
	tok, err := expired.Issue(sessionID, "")
	require.NoError(t, err)

	_, err = service.Validate(tok)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "token has expired"))
}

func Test_Validate_WrongKey(t *testing.T) {
	other := New("different-signing-key", "test-issuer", time.Hour)
	tok, err := other.Issue(sessionID, "")
	require.NoError(t, err)

	_, err = service.Validate(tok)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_SessionIDFromToken(t *testing.T) {
	tok, err := service.Issue(sessionID, "")
	require.NoError(t, err)

	got, err := service.SessionIDFromToken(tok)
	require.NoError(t, err)
	assert.Equal(t, sessionID, got)
}
