package httpclient

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

	"github.com/google/uuid"

	"github.com/answerline/svckit/logger"
	"github.com/answerline/svckit/registry"
	"github.com/answerline/svckit/resilience"
)

// Client is the resilient client for one destination service.
type Client struct {
	httpClient *http.Client
	config     Config
	breaker    *resilience.CircuitBreaker
	log        *logger.Logger
}

// New creates a client from explicit configuration.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	c := &Client{
		// The transport has no global timeout; each attempt carries its
		// own deadline so retries get a fresh budget.
		httpClient: &http.Client{},
		config:     cfg,
		log:        log.WithComponent("httpclient").WithFields(map[string]interface{}{
			logger.FieldService: cfg.ServiceName,
		}),
	}

	if !cfg.DisableBreaker {
		bc := resilience.DefaultCircuitBreakerConfig(cfg.ServiceName)
		if cfg.Breaker != nil {
			bc = *cfg.Breaker
		}
		if bc.Name == "" {
			bc.Name = cfg.ServiceName
		}
		c.breaker = resilience.NewCircuitBreaker(bc)
	}

	return c, nil
}

// NewFromRegistry creates a client for a registered service, deriving the
// base URL and default timeout from the registry.
func NewFromRegistry(reg *registry.Registry, name string, log *logger.Logger) (*Client, error) {
	ep, ok := reg.Get(name)
	if !ok {
		return nil, fmt.Errorf("httpclient: %q: %w", name, registry.ErrNotRegistered)
	}
	baseURL, err := reg.URL(name, "")
	if err != nil {
		return nil, err
	}

	return New(Config{
		ServiceName: name,
		BaseURL:     baseURL,
		Timeout:     ep.Timeout,
	}, log)
}

// Do executes a request and returns the response, or an *Error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	requestID := uuid.NewString()
	start := time.Now()
	url := c.resolveURL(req)

	c.log.Debug("request start", logger.Fields(
		logger.FieldMethod, req.Method,
		logger.FieldURL, url,
		logger.FieldRequestID, requestID,
	))

	gated := c.breaker != nil && !req.SkipBreaker
	if gated {
		if err := c.breaker.Allow(); err != nil {
			apiErr := NewCircuitOpenError(c.config.ServiceName, req.Path, err)
			apiErr.RequestID = requestID
			c.log.Warn("request rejected by circuit breaker", logger.Fields(
				logger.FieldMethod, req.Method,
				logger.FieldURL, url,
				logger.FieldRequestID, requestID,
			))
			return nil, apiErr
		}
	}

	attempt := 0
	resp, err := resilience.Retry(ctx, c.retryOptions(req), func() (*Response, error) {
		attempt++
		return c.doOnce(ctx, req, url, requestID, attempt)
	})

	duration := time.Since(start)
	if gated {
		if err != nil {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}

	if err != nil {
		apiErr := c.normalizeError(err, req, requestID)
		c.log.Error("request failed", logger.Fields(
			logger.FieldMethod, req.Method,
			logger.FieldURL, url,
			logger.FieldRequestID, requestID,
			logger.FieldStatus, apiErr.StatusCode,
			logger.FieldDuration, duration.Milliseconds(),
			logger.FieldError, apiErr.Message,
		))
		return nil, apiErr
	}

	resp.Duration = duration
	c.log.Info("request complete", logger.Fields(
		logger.FieldMethod, req.Method,
		logger.FieldURL, url,
		logger.FieldRequestID, requestID,
		logger.FieldStatus, resp.StatusCode,
		logger.FieldDuration, duration.Milliseconds(),
	))
	return resp, nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.request(ctx, http.MethodGet, path, nil, opts...)
}

// Post issues a POST request with a JSON-encoded body.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.request(ctx, http.MethodPost, path, body, opts...)
}

// Put issues a PUT request with a JSON-encoded body.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.request(ctx, http.MethodPut, path, body, opts...)
}

// Patch issues a PATCH request with a JSON-encoded body.
func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.request(ctx, http.MethodPatch, path, body, opts...)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.request(ctx, http.MethodDelete, path, nil, opts...)
}

// HealthCheck probes the destination's health endpoint: short timeout, at
// most one retry, circuit breaker bypassed. Returns true for a 2xx
// response and false for any failure; it never returns an error.
func (c *Client) HealthCheck(ctx context.Context, path string) bool {
	if path == "" {
		path = defaultHealthPath
	}

	resp, err := c.Do(ctx, Request{
		Method:  http.MethodGet,
		Path:    path,
		Timeout: defaultHealthCheckTimeout,
		Retry: &resilience.RetryOptions{
			MaxRetries:   1,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     time.Second,
		},
		SkipBreaker: true,
	})
	return err == nil && resp.IsSuccess()
}

// ServiceName returns the logical destination name.
func (c *Client) ServiceName() string {
	return c.config.ServiceName
}

// CircuitBreakerStatus returns a snapshot of the breaker, or a zero
// Status when gating is disabled.
func (c *Client) CircuitBreakerStatus() resilience.Status {
	if c.breaker == nil {
		return resilience.Status{Name: c.config.ServiceName, State: "disabled"}
	}
	return c.breaker.GetStatus()
}

// ResetCircuitBreaker force-clears the breaker's failure history.
func (c *Client) ResetCircuitBreaker() {
	if c.breaker != nil {
		c.breaker.Reset()
	}
}

func (c *Client) request(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	req := Request{Method: method, Path: path, Body: body}
	for _, opt := range opts {
		opt(&req)
	}
	return c.Do(ctx, req)
}

// doOnce executes a single attempt with its own deadline.
func (c *Client) doOnce(ctx context.Context, req Request, url, requestID string, attempt int) (*Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.config.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	info := &RequestInfo{
		RequestID: requestID,
		Service:   c.config.ServiceName,
		Method:    req.Method,
		URL:       url,
		Attempt:   attempt,
		Start:     time.Now(),
	}
	for _, h := range c.config.Hooks {
		ctx = h.OnRequestStart(ctx, info)
	}

	resp, err := c.executeRequest(ctx, req, url, requestID)

	for i := len(c.config.Hooks) - 1; i >= 0; i-- {
		c.config.Hooks[i].OnRequestEnd(ctx, info, resp, err)
	}
	return resp, err
}

// executeRequest builds and sends the HTTP request.
func (c *Client) executeRequest(ctx context.Context, req Request, url, requestID string) (*Response, error) {
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, &Error{
			Code:      ErrCodeValidation,
			Message:   fmt.Sprintf("encode body: %v", err),
			Retryable: false,
			Err:       err,
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, &Error{
			Code:      ErrCodeValidation,
			Message:   fmt.Sprintf("create request: %v", err),
			Retryable: false,
			Err:       err,
		}
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("X-Request-ID", requestID)
	if body != nil && httpReq.Header.Get("Content-Type") == "" && contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, NewTimeoutError(err)
		}
		return nil, NewConnectionError(err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewConnectionError(fmt.Errorf("read response body: %w", err))
	}

	if classErr := ClassifyStatusCode(httpResp.StatusCode, respBody); classErr != nil {
		return nil, classErr
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    flattenHeaders(httpResp.Header),
		Body:       respBody,
	}, nil
}

// retryOptions resolves the effective retry options for a request.
func (c *Client) retryOptions(req Request) resilience.RetryOptions {
	var opts resilience.RetryOptions
	switch {
	case req.Retry != nil:
		opts = *req.Retry
	case c.config.Retry != nil:
		opts = *c.config.Retry
	default:
		opts = resilience.DefaultRetryOptions()
	}
	if opts.RetryIf == nil {
		opts.RetryIf = IsRetryable
	}
	return opts
}

// resolveURL joins the base URL with the request path.
func (c *Client) resolveURL(req Request) string {
	if strings.HasPrefix(req.Path, "http://") || strings.HasPrefix(req.Path, "https://") {
		return req.Path
	}
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(req.Path, "/")
}

// normalizeError guarantees callers always see an *Error carrying the
// destination, endpoint and request identity.
func (c *Client) normalizeError(err error, req Request, requestID string) *Error {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			apiErr = NewTimeoutError(err)
		} else {
			apiErr = NewConnectionError(err)
		}
	}
	if apiErr.Service == "" {
		apiErr.Service = c.config.ServiceName
	}
	if apiErr.Endpoint == "" {
		apiErr.Endpoint = req.Path
	}
	if apiErr.RequestID == "" {
		apiErr.RequestID = requestID
	}
	return apiErr
}

// encodeBody converts a body value into an io.Reader and content type.
func encodeBody(body any) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch v := body.(type) {
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
