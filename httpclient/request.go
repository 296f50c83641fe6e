package httpclient

import (
	"encoding/json"
	"time"

	"github.com/answerline/svckit/resilience"
)

// Request describes an outbound request.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, PATCH, DELETE).
	Method string
	// Path is appended to the client's BaseURL.
	Path string
	// Headers are request-specific headers (merged over client defaults).
	Headers map[string]string
	// Query are URL query parameters.
	Query map[string]string
	// Body is the request body. Accepts []byte, string, or any value
	// that will be JSON-encoded.
	Body any
	// Timeout overrides the client's default timeout for this call.
	Timeout time.Duration
	// Retry overrides the client's retry options for this call.
	Retry *resilience.RetryOptions
	// SkipBreaker opts this call out of circuit-breaker gating. Used by
	// the health check path, which must be able to probe a tripped circuit.
	SkipBreaker bool
}

// Response is the result of a completed call.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Body is the raw response body.
	Body []byte
	// Duration is the total call duration including retries.
	Duration time.Duration
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// RequestOption configures a single request.
type RequestOption func(*Request)

// WithHeader adds a header to the request.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		r.Headers[key] = value
	}
}

// WithQueryParam adds a query parameter to the request.
func WithQueryParam(key, value string) RequestOption {
	return func(r *Request) {
		if r.Query == nil {
			r.Query = make(map[string]string)
		}
		r.Query[key] = value
	}
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) RequestOption {
	return func(r *Request) {
		r.Timeout = d
	}
}

// WithRetry overrides the retry options for the request.
func WithRetry(opts resilience.RetryOptions) RequestOption {
	return func(r *Request) {
		r.Retry = &opts
	}
}

// WithoutBreaker opts the request out of circuit-breaker gating.
func WithoutBreaker() RequestOption {
	return func(r *Request) {
		r.SkipBreaker = true
	}
}
