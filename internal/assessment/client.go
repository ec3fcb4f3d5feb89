// Package assessment bridges completed registrations into the platform's
// assessment phase. The platform API owns the assessment itself; this
// service only opens it for sessions holding a completion access token.
package assessment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	id "onboard/pkg/domain"
	dErrors "onboard/pkg/domain-errors"
)

const tracerName = "onboard/internal/assessment"

//go:generate mockgen -source=client.go -destination=mocks/mocks.go -package=mocks

// Opening is the platform's answer when an assessment is opened.
type Opening struct {
	AssessmentID string `json:"assessment_id"`
	URL          string `json:"url,omitempty"`
}

// Client is the port the handler consumes.
type Client interface {
	// Open starts (or resumes) the assessment for a completed registration.
	Open(ctx context.Context, sessionID id.SessionID) (*Opening, error)
}

// HTTPClient implements Client against the platform API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

// HTTPOption configures the HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) {
		h.http = c
	}
}

// NewHTTP creates an assessment client. baseURL has no trailing slash.
func NewHTTP(baseURL string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type openRequest struct {
	SessionID string `json:"session_id"`
}

// Open posts the completed session to the platform's assessment endpoint.
func (c *HTTPClient) Open(ctx context.Context, sessionID id.SessionID) (*Opening, error) {
	ctx, span := c.tracer.Start(ctx, "assessment.Open")
	defer span.End()

	raw, err := json.Marshal(openRequest{SessionID: sessionID.String()})
	if err != nil {
		return nil, fmt.Errorf("encode assessment request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/assessment", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build assessment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, "transport failure")
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "platform api unavailable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, dErrors.New(dErrors.CodeNotFound, "no completed registration for session")
	case resp.StatusCode >= 500:
		span.SetStatus(codes.Error, "server error")
		return nil, dErrors.Newf(dErrors.CodeUnavailable, "platform api answered %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		return nil, dErrors.Newf(dErrors.CodeInternal, "unexpected assessment status %d", resp.StatusCode)
	}

	var opening Opening
	if err := json.NewDecoder(resp.Body).Decode(&opening); err != nil {
		return nil, fmt.Errorf("decode assessment response: %w", err)
	}
	return &opening, nil
}
