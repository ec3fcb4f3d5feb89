package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveStatus(t *testing.T) {
	t.Run("decodes the authoritative status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/registration/status", r.URL.Path)
			assert.Equal(t, "Bearer T1", r.Header.Get("Authorization"))

			json.NewEncoder(w).Encode(map[string]any{
				"step":  "EMAIL_SENT",
				"email": "analyst@bank.eg",
				"token": "T2",
			})
		}))
		defer server.Close()

		client := NewHTTP(server.URL)
		status, err := client.ResolveStatus(context.Background(), "T1")
		require.NoError(t, err)

		assert.Equal(t, "EMAIL_SENT", status.StepName)
		assert.Equal(t, "analyst@bank.eg", status.Email)
		assert.Equal(t, "T2", status.FreshToken)
	})

	t.Run("401 and 403 map to ErrInvalidToken", func(t *testing.T) {
		for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
			}))

			client := NewHTTP(server.URL)
			_, err := client.ResolveStatus(context.Background(), "dead-token")
			assert.ErrorIs(t, err, ErrInvalidToken, "status %d", code)
			server.Close()
		}
	})

	t.Run("5xx maps to ErrRemoteUnavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewHTTP(server.URL)
		_, err := client.ResolveStatus(context.Background(), "T1")
		assert.ErrorIs(t, err, ErrRemoteUnavailable)
	})

	t.Run("transport failure maps to ErrRemoteUnavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // refuse connections

		client := NewHTTP(server.URL)
		_, err := client.ResolveStatus(context.Background(), "T1")
		assert.ErrorIs(t, err, ErrRemoteUnavailable)
	})
}

func TestSubmitStep(t *testing.T) {
	t.Run("posts the payload to the step endpoint", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/registration/verify-email", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "482913", payload["code"])

			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"step":    "EMAIL_VERIFIED",
			})
		}))
		defer server.Close()

		client := NewHTTP(server.URL)
		result, err := client.SubmitStep(context.Background(), "EMAIL_SENT", "T1",
			map[string]string{"code": "482913"})
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.Equal(t, "EMAIL_VERIFIED", result.FreshStep)
	})

	t.Run("rejection payloads come back with the message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"message": "incorrect code",
			})
		}))
		defer server.Close()

		client := NewHTTP(server.URL)
		result, err := client.SubmitStep(context.Background(), "EMAIL_SENT", "T1",
			map[string]string{"code": "000000"})
		require.NoError(t, err)

		assert.False(t, result.Success)
		assert.Equal(t, "incorrect code", result.Message)
	})

	t.Run("unknown step has no endpoint", func(t *testing.T) {
		client := NewHTTP("http://unused")
		_, err := client.SubmitStep(context.Background(), "WAITING_ROOM", "T1", nil)
		assert.Error(t, err)
	})
}
