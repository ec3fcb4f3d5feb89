package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "onboard/pkg/domain-errors"
)

func Test_WriteError(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		wantStatus      int
		wantError       string
		wantDescription string
	}{
		{
			name:            "bad request carries description",
			err:             dErrors.New(dErrors.CodeBadRequest, "session has no active step"),
			wantStatus:      http.StatusBadRequest,
			wantError:       "bad_request",
			wantDescription: "session has no active step",
		},
		{
			name:            "validation rejection",
			err:             dErrors.New(dErrors.CodeValidation, "verification code is required"),
			wantStatus:      http.StatusBadRequest,
			wantError:       "validation_error",
			wantDescription: "verification code is required",
		},
		{
			name:            "unauthorized",
			err:             dErrors.New(dErrors.CodeUnauthorized, "registration token rejected"),
			wantStatus:      http.StatusUnauthorized,
			wantError:       "unauthorized",
			wantDescription: "registration token rejected",
		},
		{
			name:            "guard violation maps to forbidden",
			err:             dErrors.New(dErrors.CodeGuardViolation, "cannot move forward to BUSINESS_OBJECTIVES"),
			wantStatus:      http.StatusForbidden,
			wantError:       "navigation_denied",
			wantDescription: "cannot move forward to BUSINESS_OBJECTIVES",
		},
		{
			name:       "unavailable omits description",
			err:        dErrors.New(dErrors.CodeUnavailable, "platform api unavailable"),
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "unavailable",
		},
		{
			name:       "internal never leaks the message",
			err:        dErrors.New(dErrors.CodeInternal, "pq: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal_error",
		},
		{
			name:       "uncoded error treated as internal",
			err:        errors.New("something broke"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body["error"])
			if tt.wantDescription == "" {
				assert.NotContains(t, body, "error_description")
			} else {
				assert.Equal(t, tt.wantDescription, body["error_description"])
			}
		})
	}
}

func Test_WriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]any{"step": "EMAIL_SENT"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"step":"EMAIL_SENT"}`, rec.Body.String())
}
