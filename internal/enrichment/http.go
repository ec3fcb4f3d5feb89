package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"onboard/internal/onboarding/models"
)

// HTTPClient implements Client against the enrichment API. The two candidate
// dimensions live on separate endpoints and are fetched concurrently.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// HTTPOption configures the HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) {
		h.http = c
	}
}

// NewHTTP creates an enrichment API client. baseURL has no trailing slash.
func NewHTTP(baseURL string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		// Candidate generation is slow; give it more room than the
		// platform API client gets.
		http: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type candidateResponse struct {
	Candidates []struct {
		ID          string `json:"id"`
		Label       string `json:"label"`
		Description string `json:"description,omitempty"`
	} `json:"candidates"`
}

// Candidates fetches objective and framework candidates concurrently. A
// failure on either dimension fails the whole call; the engine falls back to
// submitting without candidates.
func (c *HTTPClient) Candidates(ctx context.Context, org models.OrganizationInfo) (Candidates, error) {
	var out Candidates

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		candidates, err := c.fetch(ctx, "/candidates/objectives", org)
		if err != nil {
			return fmt.Errorf("objective candidates: %w", err)
		}
		out.Objectives = candidates
		return nil
	})
	g.Go(func() error {
		candidates, err := c.fetch(ctx, "/candidates/frameworks", org)
		if err != nil {
			return fmt.Errorf("framework candidates: %w", err)
		}
		out.Frameworks = candidates
		return nil
	})
	if err := g.Wait(); err != nil {
		return Candidates{}, err
	}
	return out, nil
}

func (c *HTTPClient) fetch(ctx context.Context, path string, org models.OrganizationInfo) ([]models.Candidate, error) {
	query := url.Values{}
	query.Set("organization", org.Name)
	if org.Country != "" {
		query.Set("country", org.Country)
	}
	if org.Website != "" {
		query.Set("website", org.Website)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call enrichment api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enrichment api status %d", resp.StatusCode)
	}

	var body candidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}

	candidates := make([]models.Candidate, 0, len(body.Candidates))
	for _, c := range body.Candidates {
		candidates = append(candidates, models.Candidate{
			ID:          c.ID,
			Label:       c.Label,
			Description: c.Description,
		})
	}
	return candidates, nil
}
