package testutil

import (
	"net/http"

	id "onboard/pkg/domain"
	"onboard/pkg/requestcontext"
)

// WithSession adds a session ID to the request context, simulating what the
// auth middleware does for requests carrying a valid access token. Invalid
// UUIDs are silently ignored.
func WithSession(req *http.Request, sessionID string) *http.Request {
	parsed, err := id.ParseSessionID(sessionID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithSessionID(req.Context(), parsed))
}

// WithRequestID adds a correlation ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
