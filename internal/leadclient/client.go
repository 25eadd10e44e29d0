// Package leadclient talks to the lead-gen HTTP API.
package leadclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmanzer2/lead-gen/internal/leadform"
	"github.com/dmanzer2/lead-gen/internal/leads"
	"github.com/dmanzer2/lead-gen/internal/referencedata"
)

const defaultTimeout = 10 * time.Second

// ErrMissingBaseURL is returned by New when no API address is given.
var ErrMissingBaseURL = errors.New("leadclient: base url is required")

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
	Details leadform.Errors
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("api %d: %s: %s", e.Status, e.Message, e.Details.Error())
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// Client is a thin JSON client for the public lead endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	c := &Client{baseURL: baseURL, httpClient: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

// BudgetRanges fetches the budget range options.
func (c *Client) BudgetRanges(ctx context.Context) ([]referencedata.BudgetRange, error) {
	var out listEnvelope[referencedata.BudgetRange]
	if err := c.do(ctx, http.MethodGet, "/api/budget-ranges", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ProjectTimelines fetches the project timeline options.
func (c *Client) ProjectTimelines(ctx context.Context) ([]referencedata.ProjectTimeline, error) {
	var out listEnvelope[referencedata.ProjectTimeline]
	if err := c.do(ctx, http.MethodGet, "/api/project-timelines", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Submit posts a lead. The honeypot field is always cleared first.
func (c *Client) Submit(ctx context.Context, s leadform.Submission) (*leads.Lead, error) {
	s.Website = ""
	body, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("leadclient: encode submission: %w", err)
	}
	var out leads.SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/api/submit-lead", body, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("leadclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("leadclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("leadclient: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env leads.ErrorResponse
		if json.Unmarshal(raw, &env) == nil && env.Error != "" {
			apiErr.Message = env.Error
			apiErr.Details = env.Details
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("leadclient: decode response: %w", err)
	}
	return nil
}
