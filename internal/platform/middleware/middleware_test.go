package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboard/internal/platform/middleware"
	"onboard/internal/token"
	id "onboard/pkg/domain"
	"onboard/pkg/requestcontext"
	"onboard/pkg/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func Test_RequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	t.Run("generates an ID when none is supplied", func(t *testing.T) {
		rr := testutil.DoRequest(handler, testutil.NewJSONRequest(t, http.MethodGet, "/", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))
	})

	t.Run("honors the edge proxy header", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "edge-42")
		rr := testutil.DoRequest(handler, req)
		assert.Equal(t, "edge-42", seen)
		assert.Equal(t, "edge-42", rr.Header().Get("X-Request-ID"))
	})
}

func Test_ClientMetadata(t *testing.T) {
	var device, ip string
	handler := middleware.ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		device = requestcontext.DeviceName(r.Context())
		ip = requestcontext.ClientIP(r.Context())
	}))

	req := testutil.NewJSONRequest(t, http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	testutil.DoRequest(handler, req)

	assert.Equal(t, "Chrome on GNU/Linux", device)
	assert.Equal(t, "203.0.113.7", ip)
}

func Test_RequireAuth(t *testing.T) {
	tokens := token.New("middleware-test-key", "onboard-test", time.Hour)
	logger := testLogger()

	var gotSession id.SessionID
	handler := middleware.RequireAuth(tokens, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = requestcontext.SessionID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid token passes and exposes the session", func(t *testing.T) {
		sessionID := id.SessionID(uuid.New())
		accessToken, err := tokens.Issue(sessionID, "COMPLETED")
		require.NoError(t, err)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken)
		rr := testutil.DoRequest(handler, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, sessionID, gotSession)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		rr := testutil.DoRequest(handler, testutil.NewJSONRequest(t, http.MethodPost, "/", nil))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rr := testutil.DoRequest(handler, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})
}

func Test_Recovery(t *testing.T) {
	handler := middleware.Recovery(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := testutil.DoRequest(handler, testutil.NewJSONRequest(t, http.MethodGet, "/", nil))
	testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
}
