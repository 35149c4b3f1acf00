// Package transport is the single point of outbound HTTP traffic for the SDK.
// It applies base URL and default headers, enforces the retry policy, and
// normalizes every outcome into either a Response or a coded AppError.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dope-network/dope-go/internal/infra/config"
	apperrors "github.com/dope-network/dope-go/pkg/errors"
)

const responseBodyLimit = 8 << 20

// TokenSource supplies the current bearer credential, empty when signed out.
type TokenSource func() string

// Client issues JSON requests against the DOPE API.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	timeout        time.Duration
	retries        int
	retryDelay     time.Duration
	defaultHeaders map[string]string
	limiter        *rate.Limiter
	tokens         TokenSource
	onUnauthorized func()
	logger         *slog.Logger
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenSource installs the credential hook used for the Authorization header.
func WithTokenSource(src TokenSource) Option {
	return func(c *Client) { c.tokens = src }
}

// New builds a transport client from configuration.
func New(cfg config.APIConfig, logger *slog.Logger, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("transport base url cannot be empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = 3
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	c := &Client{
		baseURL:        base,
		httpClient:     &http.Client{},
		timeout:        timeout,
		retries:        retries,
		retryDelay:     delay,
		defaultHeaders: cfg.DefaultHeaders,
		logger:         logger.With("component", "transport"),
	}
	if cfg.RateLimit.Enabled {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetTokenSource replaces the credential hook after construction.
func (c *Client) SetTokenSource(src TokenSource) {
	c.tokens = src
}

// OnUnauthorized registers a callback fired whenever an authenticated call
// receives HTTP 401. Used by the session manager for silent teardown.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// Request describes a single API call.
type Request struct {
	Method  string
	Path    string
	Body    any
	Params  url.Values
	Headers map[string]string
	// Timeout overrides the client default for this call when positive.
	Timeout time.Duration
	// Retries overrides the configured attempt budget when non-nil.
	Retries *int
	// NoAuth suppresses the Authorization header; 401 responses on such
	// calls do not trigger the unauthorized callback.
	NoAuth bool
}

// Response is the normalized success envelope: status in [200,300).
type Response struct {
	Status int
	Body   []byte
	Header http.Header
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidResponse, "decode response body", err)
	}
	return nil
}

var allowedMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodHead:    {},
	http.MethodOptions: {},
}

// Do executes the request, retrying per policy: retries apply only to network
// failures, client-side timeouts, and 5xx responses. 4xx responses are
// terminal. Exactly one of (*Response, nil) or (nil, error) is returned.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if _, ok := allowedMethods[req.Method]; !ok {
		return nil, apperrors.Wrap(apperrors.CodeRequest, fmt.Sprintf("unsupported method %q", req.Method), nil)
	}

	var payload []byte
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeRequest, "encode request body", err)
		}
		payload = encoded
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Params) > 0 {
		endpoint += "?" + req.Params.Encode()
	}

	attempts := c.retries
	if req.Retries != nil {
		attempts = *req.Retries
	}
	if attempts < 1 {
		attempts = 1
	}

	requestID := uuid.NewString()
	log := c.logger.With("method", req.Method, "path", req.Path, "request_id", requestID)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := c.waitRetry(ctx); err != nil {
				return nil, lastErr
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, apperrors.Wrap(apperrors.CodeRequest, "rate limiter wait", err)
			}
		}

		log.Debug("outbound request", "attempt", attempt)
		resp, retryable, err := c.attempt(ctx, req, endpoint, payload, requestID)
		if err == nil {
			log.Info("request completed", "status", resp.Status)
			return resp, nil
		}
		lastErr = err
		if !retryable {
			log.Warn("request failed", "status", apperrors.StatusOf(err), "error", err)
			return nil, err
		}
		log.Warn("transient request failure", "attempt", attempt, "error", err)
		// parent context gone: surface immediately instead of burning attempts
		if ctx.Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// attempt performs one round trip. The bool reports whether the failure is
// eligible for another attempt.
func (c *Client) attempt(ctx context.Context, req Request, endpoint string, payload []byte, requestID string) (*Response, bool, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, endpoint, body)
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.CodeRequest, "build request", err)
	}
	for k, v := range c.defaultHeaders {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	httpReq.Header.Set("X-Request-ID", requestID)
	if !req.NoAuth && c.tokens != nil {
		if token := c.tokens(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// No response reached us; both plain network failures and
		// client-side timeouts are retryable.
		return nil, true, apperrors.Wrap(apperrors.CodeNetwork, "no response received", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return nil, true, apperrors.Wrap(apperrors.CodeInvalidResponse, "read response body", err)
	}

	status := resp.StatusCode
	switch {
	case status >= 200 && status < 300:
		return &Response{Status: status, Body: raw, Header: resp.Header}, false, nil
	case status >= 500 && status < 600:
		return nil, true, c.httpError(status, raw)
	case status == http.StatusUnauthorized:
		if !req.NoAuth && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, false, c.httpError(status, raw)
	default:
		return nil, false, c.httpError(status, raw)
	}
}

func (c *Client) httpError(status int, body []byte) error {
	message := extractMessage(body)
	if message == "" {
		message = http.StatusText(status)
	}
	return &apperrors.AppError{
		Code:    apperrors.CodeHTTP(status),
		Message: message,
		Status:  status,
		Details: body,
	}
}

func (c *Client) waitRetry(ctx context.Context) error {
	timer := time.NewTimer(c.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func extractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Error
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Params: params})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}
