// Package client sends book form submissions to the remote book generation
// endpoint and returns the generated document as opaque bytes.
package client

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

	"go.uber.org/zap"

	"github.com/goliatone/go-bookform/pkg/model"
)

// DefaultEndpoint is the books API the original form posts to.
const DefaultEndpoint = "http://localhost:8000/api/books/"

// maxErrorBody caps how much of a failed response is read for the payload.
const maxErrorBody = 1 << 20

// RequestError is the single failure kind the client reports. StatusCode is
// zero for transport failures, in which case Err holds the cause.
type RequestError struct {
	StatusCode int
	Payload    model.ErrorPayload
	Err        error
}

func (e *RequestError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("client: request failed: %v", e.Err)
	}
	return fmt.Sprintf("client: unexpected status %d", e.StatusCode)
}

func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Client posts FormState payloads as JSON.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides DefaultEndpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(endpoint); trimmed != "" {
			c.endpoint = trimmed
		}
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds each request. Zero keeps requests unbounded; callers
// can still cancel through the context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(ua)
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a Client with defaults applied.
func New(options ...Option) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		httpClient: http.DefaultClient,
		userAgent:  "go-bookform",
		logger:     zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Endpoint reports the target URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Generate submits state and returns the response body. Any failure is a
// *RequestError carrying whatever error payload the server returned.
func (c *Client) Generate(ctx context.Context, state model.FormState) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("client: context is required")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(state)
	if err != nil {
		return nil, &RequestError{Payload: model.NoPayload(), Err: fmt.Errorf("encode body: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Payload: model.NoPayload(), Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf, application/octet-stream")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("book request failed", zap.String("endpoint", c.endpoint), zap.Error(err))
		return nil, &RequestError{Payload: model.NoPayload(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		payload := model.NoPayload()
		if readErr == nil {
			payload = model.DecodePayload(raw)
		}
		c.logger.Warn("book request rejected",
			zap.String("endpoint", c.endpoint),
			zap.Int("status", resp.StatusCode),
			zap.Stringer("payload", payload.Kind),
		)
		return nil, &RequestError{StatusCode: resp.StatusCode, Payload: payload, Err: readErr}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{StatusCode: 0, Payload: model.NoPayload(), Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Debug("book generated",
		zap.String("endpoint", c.endpoint),
		zap.Int("bytes", len(data)),
		zap.String("content_type", resp.Header.Get("Content-Type")),
		zap.Duration("elapsed", time.Since(started)),
	)
	return data, nil
}

// PayloadOf extracts the error payload carried by err, if any.
func PayloadOf(err error) model.ErrorPayload {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr != nil {
		return reqErr.Payload
	}
	return model.NoPayload()
}
