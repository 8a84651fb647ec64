// Package client talks to the document-flow backend's REST API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gubarz/sopmd/internal/sop"
)

const (
	summariesPath  = "/api/sops"
	rawPath        = "/api/sops/raw"
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

// ErrMissingContent is returned when a raw document response has no
// content field.
var ErrMissingContent = errors.New("response has no content field")

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Body)
}

// Client is a sop.Source backed by the REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ sop.Source = (*Client)(nil)

// New creates a client for the backend at baseURL. A zero timeout uses the
// default.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client (useful for testing)
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Summaries lists the documents known to the backend.
func (c *Client) Summaries(ctx context.Context) ([]sop.Summary, error) {
	var summaries []sop.Summary
	if err := c.getJSON(ctx, summariesPath, nil, &summaries); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return summaries, nil
}

// rawResponse distinguishes a missing content field from an empty one.
type rawResponse struct {
	Content *string `json:"content"`
}

// FetchRaw fetches the raw body of the document at path.
func (c *Client) FetchRaw(ctx context.Context, path string) (string, error) {
	var resp rawResponse
	query := url.Values{"path": {path}}
	if err := c.getJSON(ctx, rawPath, query, &resp); err != nil {
		return "", fmt.Errorf("fetch %s: %w", path, err)
	}
	if resp.Content == nil {
		return "", fmt.Errorf("fetch %s: %w", path, ErrMissingContent)
	}
	return *resp.Content, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return sop.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
