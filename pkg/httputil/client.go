// Package httputil provides shared HTTP plumbing for the data providers:
// a JSON client with consistent headers and error mapping, and retry with
// exponential backoff for transient failures.
//
// All provider requests go through [Client], which maps HTTP status classes
// onto the application's error codes: 401/403 become AUTH_ERROR, 5xx become
// retryable NETWORK_ERROR, and everything else non-2xx becomes a plain
// NETWORK_ERROR. Providers then only deal with typed failures.
package httputil

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/mhoffm/paperdash/pkg/errors"
)

// DefaultTimeout bounds a single HTTP request.
const DefaultTimeout = 20 * time.Second

// Client is a thin wrapper around http.Client that decodes JSON responses
// and maps status codes to typed errors.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient creates a Client with the given User-Agent header.
// Some upstream APIs (api.weather.gov in particular) reject requests
// without a contact-identifying User-Agent.
func NewClient(userAgent string) *Client {
	return &Client{
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: userAgent,
	}
}

// GetJSON performs a GET request and decodes the response body into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, headers map[string]string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "build request %s", rawURL)
	}
	req.Header.Set("Accept", "application/json")
	for k, val := range headers {
		req.Header.Set(k, val)
	}
	return c.do(req, v)
}

// PostForm performs a form-encoded POST request and decodes the response into v.
// Used for OAuth token exchanges.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "build request %s", rawURL)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v any) error {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Retryable(apperrors.Wrap(apperrors.ErrCodeNetwork, err, "request %s", req.URL.Host))
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return err
	}

	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeNetwork, err, "decode response from %s", req.URL.Host)
	}
	return nil
}

// statusError maps non-2xx responses to typed errors.
func statusError(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return apperrors.New(apperrors.ErrCodeAuth, "%s returned %s", resp.Request.URL.Host, resp.Status)
	case code >= 500 || code == http.StatusTooManyRequests:
		return Retryable(apperrors.New(apperrors.ErrCodeNetwork, "%s returned %s", resp.Request.URL.Host, resp.Status))
	default:
		return apperrors.New(apperrors.ErrCodeNetwork, "%s returned %s", resp.Request.URL.Host, resp.Status)
	}
}
