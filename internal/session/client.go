// Package session is the single HTTP client for the hot-search backend.
//
// Every request passes through two interceptors:
//
//   - on the way out, the stored token (if any) is attached as
//     "Authorization: Bearer <token>";
//   - on the way back, a 401 clears the stored token and cached profile and
//     publishes EventSessionInvalidated before the error reaches the caller.
//
// There is no retry and no token refresh: a 401 ends the session.
package session

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/hotsearch-web/internal/storage"
)

const (
	// DefaultBaseURL is used when Config.BaseURL is empty.
	DefaultBaseURL = "http://localhost:8002"

	defaultTimeout = 30 * time.Second
)

// Config describes how to reach the backend.
type Config struct {
	BaseURL            string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      storage.Store
	events     *Events
}

// Option customises a Client.
type Option func(*clientOptions)

type clientOptions struct {
	base   http.RoundTripper
	events *Events
}

// WithTransport sets the transport the interceptors wrap.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.base = rt }
}

// WithEvents shares an existing hub, e.g. one the application shell already
// subscribed to.
func WithEvents(e *Events) Option {
	return func(o *clientOptions) { o.events = e }
}

// New builds a Client that reads and clears credentials in store.
func New(cfg Config, store storage.Store, opts ...Option) *Client {
	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.base == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.InsecureSkipVerify {
			tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for local backends
		}
		o.base = tr
	}
	if o.events == nil {
		o.events = NewEvents()
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &bearerTransport{base: o.base, store: store},
		},
		store:  store,
		events: o.events,
	}
}

// BaseURL returns the backend address requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

// Store returns the credential store the client reads and clears.
func (c *Client) Store() storage.Store { return c.store }

// Events returns the hub EventSessionInvalidated is published on.
func (c *Client) Events() *Events { return c.events }

// Interceptor wraps base with the client's request and response interceptors
// for traffic that does not go through Do, such as the dev proxy: the stored
// token is attached, and a 401 clears the store and publishes
// EventSessionInvalidated before the response is handed back.
func (c *Client) Interceptor(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &bearerTransport{
		base:  &unauthorizedTransport{base: base, client: c},
		store: c.store,
	}
}

// Get issues a GET and decodes a JSON response into out (if non-nil).
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with body and decodes a JSON response into out.
func (c *Client) Post(ctx context.Context, path string, body Body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Do sends one request. Non-2xx responses come back as *APIError.
func (c *Client) Do(ctx context.Context, method, path string, body Body, out any) error {
	var reader io.Reader
	if body != nil {
		r, err := body.Encode()
		if err != nil {
			return err
		}
		reader = r
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", ContentTypeJSON)
	if body != nil {
		req.Header.Set("Content-Type", body.ContentType())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: request failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: data}
		if resp.StatusCode == http.StatusUnauthorized {
			c.invalidate(ctx, apiErr)
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}

// invalidate drops stored credentials and tells subscribers. It runs before
// the caller sees the error.
func (c *Client) invalidate(ctx context.Context, apiErr *APIError) {
	if err := storage.Clear(ctx, c.store); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("session: failed to clear credentials after 401")
	}

	log.Ctx(ctx).Info().
		Str("method", apiErr.Method).
		Str("path", apiErr.Path).
		Msg("session: invalidated by 401 response")

	c.events.Publish(ctx, Event{
		Type:       EventSessionInvalidated,
		Method:     apiErr.Method,
		Path:       apiErr.Path,
		StatusCode: apiErr.StatusCode,
	})
}
