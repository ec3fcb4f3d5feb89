package assessment_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"onboard/internal/assessment"
	"onboard/internal/assessment/mocks"
	"onboard/internal/token"
	id "onboard/pkg/domain"
	dErrors "onboard/pkg/domain-errors"
)

func newTestServer(t *testing.T, client assessment.Client) (*httptest.Server, *token.Service) {
	t.Helper()
	tokens := token.New("assessment-test-key", "onboard-test", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	assessment.NewHandler(client, tokens, logger, nil).Register(r)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, tokens
}

func Test_OpenAssessment(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	server, tokens := newTestServer(t, client)

	sessionID := id.SessionID(uuid.New())
	accessToken, err := tokens.Issue(sessionID, "COMPLETED")
	require.NoError(t, err)

	client.EXPECT().
		Open(gomock.Any(), sessionID).
		Return(&assessment.Opening{AssessmentID: "asm-1", URL: "https://platform.example/assessment/asm-1"}, nil)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/assessment", strings.NewReader("{}"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body assessment.Opening
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "asm-1", body.AssessmentID)
}

func Test_OpenAssessment_RequiresAccessToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	server, _ := newTestServer(t, client)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token"},
		{name: "opaque registration token", token: "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, server.URL+"/assessment", strings.NewReader("{}"))
			require.NoError(t, err)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}

			resp, err := server.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func Test_OpenAssessment_PlatformUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	server, tokens := newTestServer(t, client)

	sessionID := id.SessionID(uuid.New())
	accessToken, err := tokens.Issue(sessionID, "COMPLETED")
	require.NoError(t, err)

	client.EXPECT().
		Open(gomock.Any(), sessionID).
		Return(nil, dErrors.New(dErrors.CodeUnavailable, "platform api unavailable"))

	req, err := http.NewRequest(http.MethodPost, server.URL+"/assessment", strings.NewReader("{}"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
