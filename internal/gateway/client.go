// Package gateway is the storefront's REST client for the backend API. It owns
// bearer-token attachment and the global 401 handling that forces a logout.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultTimeout    = 8 * time.Second
	idempotencyHeader = "Idempotency-Key"
)

var (
	// ErrUnauthorized is returned for any 401 response. The configured
	// unauthorized hook has already run by the time callers see it.
	ErrUnauthorized = errors.New("gateway: unauthorized")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("gateway: not found")
)

// HTTPClient matches the subset of http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// CredentialSource supplies the bearer token attached to outbound requests.
type CredentialSource interface {
	BearerToken() string
}

// Client issues authenticated storefront calls against the backend API.
// When no base URL is configured, the client serves fixture data.
type Client struct {
	base           *url.URL
	http           HTTPClient
	creds          CredentialSource
	onUnauthorized func()
	logger         *zap.Logger
}

// Option customises Client behaviour.
type Option func(*Client)

// WithHTTPClient overrides the transport, e.g. to set a timeout or for tests.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCredentials wires the credential store consulted per request.
func WithCredentials(src CredentialSource) Option {
	return func(c *Client) { c.creds = src }
}

// WithUnauthorizedHook registers the callback invoked on any 401 response.
func WithUnauthorizedHook(hook func()) Option {
	return func(c *Client) { c.onUnauthorized = hook }
}

// WithLogger attaches a logger for request failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a gateway client. An empty baseURL selects fixture mode.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{logger: zap.NewNop()}

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("gateway: parse base URL: %w", err)
		}
		c.base = parsed
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	return c, nil
}

// FixtureMode reports whether the client answers from built-in fixtures.
func (c *Client) FixtureMode() bool { return c.base == nil }

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	target, err := c.resolve(endpoint)
	if err != nil {
		return nil, fmt.Errorf("gateway: resolve endpoint: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.creds != nil {
		if tok := c.creds.BearerToken(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	switch method {
	case http.MethodGet, http.MethodHead:
	default:
		req.Header.Set(idempotencyHeader, uuid.NewString())
	}
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, endpoint string, payload any) (*http.Request, error) {
	var buf bytes.Buffer
	if payload != nil {
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(payload); err != nil {
			return nil, fmt.Errorf("gateway: encode payload: %w", err)
		}
	}
	req, err := c.newRequest(ctx, method, endpoint, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: request failed: %w", err)
	}
	return resp, nil
}

// statusError converts a non-2xx response into an error. Every endpoint funnels
// its failure statuses through here so the 401 interception is unconditional.
func (c *Client) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}

	type errorPayload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	var payload errorPayload
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
			return fmt.Errorf("gateway: backend error (%s): %s", strings.TrimSpace(payload.Code), payload.Message)
		}
		return fmt.Errorf("gateway: backend error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return fmt.Errorf("gateway: backend error (%d): %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

// resolve appends the endpoint to the base URL, keeping any path prefix the
// base carries (for example /api/v1).
func (c *Client) resolve(endpoint string) (string, error) {
	if c.base == nil {
		return endpoint, nil
	}
	return url.JoinPath(c.base.String(), endpoint)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
