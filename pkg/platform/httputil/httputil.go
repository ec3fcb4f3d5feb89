// Package httputil holds the JSON response helpers shared by all handlers.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "onboard/pkg/domain-errors"
)

// errorResponse is the wire envelope for every error the API returns.
type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// wireCodes maps domain error codes to their stable wire identifiers.
var wireCodes = map[dErrors.Code]string{
	dErrors.CodeInternal:           "internal_error",
	dErrors.CodeValidation:         "validation_error",
	dErrors.CodeInvalidInput:       "invalid_input",
	dErrors.CodeBadRequest:         "bad_request",
	dErrors.CodeUnauthorized:       "unauthorized",
	dErrors.CodeForbidden:          "forbidden",
	dErrors.CodeNotFound:           "not_found",
	dErrors.CodeConflict:           "conflict",
	dErrors.CodeTimeout:            "timeout",
	dErrors.CodeUnavailable:        "unavailable",
	dErrors.CodeGuardViolation:     "navigation_denied",
	dErrors.CodeUnknownStep:        "unknown_step",
	dErrors.CodeInvariantViolation: "internal_error",
}

// WriteError renders a domain error as the JSON error envelope. Internal
// errors omit the description so implementation details never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	wire, ok := wireCodes[code]
	if !ok {
		wire = "internal_error"
	}
	body := errorResponse{Error: wire}
	if status < http.StatusInternalServerError && wire != "internal_error" {
		body.Description = dErrors.MessageOf(err)
	}

	WriteJSON(w, status, body)
}

// WriteJSON renders v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
