// Package client provides a typed Go SDK for the revisor REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "revisor-go-client"

	// maxRetryWait caps how long a Retry-After header may stall a call.
	maxRetryWait = 30 * time.Second
)

// Client is the top-level revisor API client.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	retries    int
	httpClient *http.Client

	Content       *ContentService
	Versions      *VersionService
	Audit         *AuditService
	Notifications *NotificationService
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the API key sent as a bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithRetries retries requests rejected with 429 up to n times, waiting as
// the server's Retry-After asks. A 429 means the request was not processed,
// so retrying writes cannot create duplicate versions.
func WithRetries(n int) Option {
	return func(c *Client) { c.retries = max(0, n) }
}

// New creates a client for baseURL, e.g. "http://localhost:3040".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	c.Content = &ContentService{c: c}
	c.Versions = &VersionService{c: c}
	c.Audit = &AuditService{c: c}
	c.Notifications = &NotificationService{c: c}
	return c
}

// Health returns the liveness check response.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, "/api/v1/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ready returns the readiness check response. A not-ready server answers
// 503, which is returned as an *APIError.
func (c *Client) Ready(ctx context.Context) (*ReadyResponse, error) {
	var resp ReadyResponse
	if err := c.get(ctx, "/api/v1/ready", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do sends one logical call. Every attempt carries the same X-Request-ID so
// server logs tie retries together.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	requestID := uuid.NewString()

	for attempt := 0; ; attempt++ {
		status, header, respBody, err := c.send(ctx, method, path, payload, requestID)
		if err != nil {
			return err
		}

		if status == http.StatusTooManyRequests && attempt < c.retries {
			if err := sleepCtx(ctx, retryAfter(header)); err != nil {
				return err
			}
			continue
		}

		if status >= 400 {
			return parseAPIError(status, respBody)
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, requestID string) (int, http.Header, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, resp.Header, respBody, nil
}

// retryAfter reads a delay-seconds Retry-After, defaulting to one second.
func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs < 1 {
		return time.Second
	}
	return min(time.Duration(secs)*time.Second, maxRetryWait)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) get(ctx context.Context, path string, q query, result any) error {
	return c.do(ctx, http.MethodGet, path+q.encode(), nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

func (c *Client) put(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

func (c *Client) del(ctx context.Context, path string, q query, result any) error {
	return c.do(ctx, http.MethodDelete, path+q.encode(), nil, result)
}

// query builds a query string, skipping zero values.
type query url.Values

func (q query) str(key, v string) query {
	if v != "" {
		url.Values(q).Set(key, v)
	}
	return q
}

func (q query) num(key string, n int) query {
	if n > 0 {
		url.Values(q).Set(key, strconv.Itoa(n))
	}
	return q
}

func (q query) flag(key string, on bool) query {
	if on {
		url.Values(q).Set(key, "true")
	}
	return q
}

func (q query) time(key string, t *time.Time) query {
	if t != nil {
		url.Values(q).Set(key, t.UTC().Format(time.RFC3339))
	}
	return q
}

func (q query) encode() string {
	if len(q) == 0 {
		return ""
	}
	return "?" + url.Values(q).Encode()
}
