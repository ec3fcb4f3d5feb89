package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"onboard/internal/onboarding/metrics"
	"onboard/internal/onboarding/models"
)

const tracerName = "onboard/internal/onboarding/resolver"

// HTTPClient implements Client against the platform API's REST surface.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// HTTPOption configures the HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client (timeouts, transport).
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) {
		h.http = c
	}
}

// WithMetrics sets the metrics collector for resolver call instrumentation.
func WithMetrics(m *metrics.Metrics) HTTPOption {
	return func(h *HTTPClient) {
		h.metrics = m
	}
}

// NewHTTP creates a platform API client. baseURL has no trailing slash.
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

// statusResponse is the wire shape of the registration-status endpoint.
type statusResponse struct {
	Step             string                   `json:"step"`
	Email            string                   `json:"email,omitempty"`
	PersonalInfo     *models.PersonalInfo     `json:"personal_info,omitempty"`
	OrganizationInfo *models.OrganizationInfo `json:"organization_info,omitempty"`
	ObjectiveInfo    *models.ObjectiveInfo    `json:"objective_info,omitempty"`
	Token            string                   `json:"token,omitempty"`
}

// submitResponse is the wire shape of the step-submission endpoints.
type submitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Step    string `json:"step,omitempty"`
	Token   string `json:"token,omitempty"`
}

// ResolveStatus asks the platform API for the authoritative step and data
// for a token. 401/403 map to ErrInvalidToken, transport failures and 5xx
// to ErrRemoteUnavailable.
func (c *HTTPClient) ResolveStatus(ctx context.Context, token string) (*Status, error) {
	ctx, span := c.tracer.Start(ctx, "resolver.ResolveStatus")
	defer span.End()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/registration/status", nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.observe("resolve_status", "unavailable", start)
		span.SetStatus(codes.Error, "transport failure")
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.observe("resolve_status", "invalid_token", start)
		return nil, ErrInvalidToken
	case resp.StatusCode >= 500:
		c.observe("resolve_status", "unavailable", start)
		span.SetStatus(codes.Error, "server error")
		return nil, fmt.Errorf("%w: status %d", ErrRemoteUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		c.observe("resolve_status", "error", start)
		return nil, fmt.Errorf("unexpected resolver status %d", resp.StatusCode)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.observe("resolve_status", "error", start)
		return nil, fmt.Errorf("decode resolver response: %w", err)
	}

	c.observe("resolve_status", "ok", start)
	return &Status{
		StepName:     body.Step,
		Email:        body.Email,
		Personal:     body.PersonalInfo,
		Organization: body.OrganizationInfo,
		Objectives:   body.ObjectiveInfo,
		FreshToken:   body.Token,
	}, nil
}

// stepPaths maps server-side step names to their submission endpoints.
var stepPaths = map[string]string{
	"EMAIL_SENT":            "/registration/verify-email",
	"EMAIL_VERIFIED":        "/registration/personal-info",
	"PERSONAL_INFO":         "/registration/organization-info",
	"ORGANIZATION_INFO":     "/registration/objective-info",
	"BUSINESS_OBJECTIVES":   "/registration/objective-info",
	"COMPLIANCE_OBJECTIVES": "/registration/objective-info",
}

// SubmitStep posts one step's payload to its submission endpoint.
func (c *HTTPClient) SubmitStep(ctx context.Context, stepName, token string, payload any) (*SubmitResult, error) {
	ctx, span := c.tracer.Start(ctx, "resolver.SubmitStep",
		trace.WithAttributes(attribute.String("onboarding.step", stepName)))
	defer span.End()

	path, ok := stepPaths[stepName]
	if !ok {
		return nil, fmt.Errorf("no submission endpoint for step %q", stepName)
	}

	start := time.Now()
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode step payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.observe("submit_step", "unavailable", start)
		span.SetStatus(codes.Error, "transport failure")
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.observe("submit_step", "invalid_token", start)
		return nil, ErrInvalidToken
	case resp.StatusCode >= 500:
		c.observe("submit_step", "unavailable", start)
		span.SetStatus(codes.Error, "server error")
		return nil, fmt.Errorf("%w: status %d", ErrRemoteUnavailable, resp.StatusCode)
	}

	var body submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.observe("submit_step", "error", start)
		return nil, fmt.Errorf("decode submit response: %w", err)
	}

	c.observe("submit_step", "ok", start)
	return &SubmitResult{
		Success:    body.Success,
		Message:    body.Message,
		FreshStep:  body.Step,
		FreshToken: body.Token,
	}, nil
}

func (c *HTTPClient) observe(call, outcome string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveResolverCall(call, outcome, time.Since(start).Seconds())
}
