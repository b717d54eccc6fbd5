// Package crossref provides a client for the CrossRef works API and a parser
// for the metadata it returns.
package crossref

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the CrossRef REST API base URL.
	BaseURL = "https://api.crossref.org"

	// DefaultTimeout bounds a single metadata fetch.
	DefaultTimeout = 10 * time.Second

	// RateLimit is a conservative request rate for the CrossRef public pool.
	RateLimit = 10.0

	// maxBodySize caps how much of a works response we read.
	maxBodySize = 8 << 20
)

// Fetcher retrieves raw provider metadata for one normalized DOI.
// Implementations make a single attempt; callers decide whether to retry.
type Fetcher interface {
	Fetch(ctx context.Context, doi string) ([]byte, error)
}

// Client is a rate-limited HTTP client for the CrossRef works API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithMailto sets the mailto contact for CrossRef's polite pool.
func WithMailto(mailto string) ClientOption {
	return func(c *Client) {
		c.mailto = mailto
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a new CrossRef works API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch retrieves the raw works record for a normalized DOI.
// It makes exactly one attempt: transport errors, timeouts and non-2xx
// statuses are returned as errors, never retried here.
func (c *Client) Fetch(ctx context.Context, doi string) ([]byte, error) {
	if doi == "" {
		return nil, fmt.Errorf("%w: empty DOI", ErrInvalidResponse)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := c.baseURL + "/works/" + url.PathEscape(doi)
	if c.mailto != "" {
		reqURL += "?mailto=" + url.QueryEscape(c.mailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp, doi); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}

	return body, nil
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response, doi string) error {
	if resp.StatusCode == 404 {
		return fmt.Errorf("%w: %s", ErrNotFound, doi)
	}
	if resp.StatusCode == 429 {
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			DOI:        doi,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
	return nil
}
