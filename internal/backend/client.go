// Package backend is the console's client for the A2A routing backend API.
// Every call is credentialed: the operator's backend session cookies are
// forwarded as they arrived at the console.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/a2a-routing/console/internal/logger"
	"github.com/a2a-routing/console/internal/models"
)

var (
	// ErrTransport wraps failures where no HTTP response was received
	ErrTransport = errors.New("backend unreachable")
	// ErrDecode wraps responses whose body did not match the expected shape
	ErrDecode = errors.New("unexpected backend response")
)

// APIError is a non-2xx answer from the backend
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

// Credentials are the backend session cookies of the operator
type Credentials []*http.Cookie

// Observer receives one call per backend round trip; status is 0 when no
// response was received.
type Observer interface {
	ObserveBackendCall(method, route string, status int, elapsed time.Duration)
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithObserver attaches a metrics observer
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// Client talks to the backend API
type Client struct {
	baseURL  string
	http     *http.Client
	observer Observer
	log      *logrus.Entry
}

// New creates a backend client. A zero timeout leaves requests unbounded.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     logger.Component("backend"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes one backend request; route is the path template used for
// logging and metrics.
type call struct {
	method string
	route  string
	path   string
	in     interface{}
	out    interface{}
}

// do executes a call and returns the response headers on success
func (c *Client) do(ctx context.Context, creds Credentials, cl call) (http.Header, error) {
	var body io.Reader
	if cl.in != nil {
		payload, err := json.Marshal(cl.in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if cl.in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range creds {
		req.AddCookie(cookie)
	}

	entry := c.log.WithFields(logrus.Fields{
		"method":     cl.method,
		"route":      cl.route,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.observe(cl, 0, elapsed)
		entry.WithField("error", err.Error()).Warn("Backend request failed")
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	c.observe(cl, resp.StatusCode, elapsed)

	entry = entry.WithFields(logrus.Fields{
		"status":      resp.StatusCode,
		"duration_ms": elapsed.Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope models.BackendError
		if raw, readErr := io.ReadAll(resp.Body); readErr == nil && json.Unmarshal(raw, &envelope) == nil {
			apiErr.Detail = envelope.Detail
		}
		entry.WithField("detail", apiErr.Detail).Debug("Backend returned non-OK status")
		return nil, apiErr
	}

	if cl.out != nil && resp.StatusCode != http.StatusNoContent {
		// an empty body leaves out untouched
		if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil && !errors.Is(err, io.EOF) {
			entry.WithField("error", err.Error()).Warn("Failed to decode backend response")
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
	}

	entry.Debug("Backend request completed")
	return resp.Header, nil
}

func (c *Client) observe(cl call, status int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveBackendCall(cl.method, cl.route, status, elapsed)
	}
}

// PostJSON posts in to a fixed backend path and decodes the answer into out
func (c *Client) PostJSON(ctx context.Context, creds Credentials, path string, in, out interface{}) error {
	_, err := c.do(ctx, creds, call{method: http.MethodPost, route: path, path: path, in: in, out: out})
	return err
}

// GetJSON fetches a fixed backend path into out
func (c *Client) GetJSON(ctx context.Context, creds Credentials, path string, out interface{}) error {
	_, err := c.do(ctx, creds, call{method: http.MethodGet, route: path, path: path, out: out})
	return err
}

// IsStatus reports whether err is an APIError with the given status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Describe turns a call error into the message shown to the operator:
// the backend detail when there is one, failed for other backend refusals,
// errored when no usable response came back.
func Describe(err error, failed, errored string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return failed
	}
	return errored
}
