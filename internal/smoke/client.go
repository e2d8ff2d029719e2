// Package smoke verifies a running flightdesk deployment over HTTP.
//
// DESIGN: Each Check issues a few requests and asserts on status codes and
// JSON shape. Failures carry the actual status and body so a red run can be
// triaged from the output alone. Checks share nothing and may run in any
// order, concurrently.
//
// FILES:
//   - client.go:    HTTP client and response helpers
//   - checks.go:    The check catalogue
//   - runner.go:    Concurrent runner and report
//   - scheduler.go: Cron-driven repeated runs
package smoke

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Defaults for the target deployment.
const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 10 * time.Second
	UserAgent      = "flightdesk-smoke/1.0"
)

// maxBodyInError bounds how much of a body goes into a failure message.
const maxBodyInError = 512

// Client talks to one deployment.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL. Zero values use the defaults.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the deployment URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Response is a fully read HTTP response.
type Response struct {
	Method string
	Path   string
	Status int
	Header http.Header
	Body   string
}

// Get issues a GET.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, "")
}

// PostJSON issues a POST with a JSON body.
func (c *Client) PostJSON(ctx context.Context, path, body string) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Do issues a request and reads the whole body.
func (c *Client) Do(ctx context.Context, method, path, body string) (*Response, error) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	return &Response{
		Method: method,
		Path:   path,
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   string(raw),
	}, nil
}

// JSON returns the value at a gjson path in the body.
func (r *Response) JSON(path string) gjson.Result {
	return gjson.Get(r.Body, path)
}

// Failf builds a failure that includes the status and (truncated) body.
func (r *Response) Failf(format string, args ...any) error {
	body := r.Body
	if len(body) > maxBodyInError {
		body = body[:maxBodyInError] + "..."
	}
	return fmt.Errorf("%s %s: %s (status %d, body %q)", r.Method, r.Path, fmt.Sprintf(format, args...), r.Status, body)
}

// ExpectStatus fails unless the status is one of want.
func (r *Response) ExpectStatus(want ...int) error {
	for _, w := range want {
		if r.Status == w {
			return nil
		}
	}
	return r.Failf("expected status %v", want)
}

// ChatPayload builds a chat request body. An empty sessionID is sent as
// null.
func ChatPayload(message, sessionID string) (string, error) {
	body, err := sjson.Set(`{}`, "message", message)
	if err != nil {
		return "", err
	}
	if sessionID == "" {
		return sjson.SetRaw(body, "session_id", "null")
	}
	return sjson.Set(body, "session_id", sessionID)
}
