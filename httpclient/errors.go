package httpclient

import (
	"errors"
	"fmt"
)

// ErrorCode classifies client errors.
type ErrorCode int

const (
	// ErrCodeTimeout indicates a request or connection timeout.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection indicates a connection failure (refused, DNS, etc).
	ErrCodeConnection
	// ErrCodeCircuitOpen indicates the call was rejected by the circuit
	// breaker without any network attempt.
	ErrCodeCircuitOpen
	// ErrCodeAuth indicates an authentication failure (401/403).
	ErrCodeAuth
	// ErrCodeNotFound indicates the resource was not found (404).
	ErrCodeNotFound
	// ErrCodeRateLimit indicates rate limiting (429).
	ErrCodeRateLimit
	// ErrCodeValidation indicates a client-side error (other 4xx).
	ErrCodeValidation
	// ErrCodeServer indicates a server-side error (5xx).
	ErrCodeServer
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeCircuitOpen:
		return "circuit_open"
	case ErrCodeAuth:
		return "auth"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeRateLimit:
		return "rate_limit"
	case ErrCodeValidation:
		return "validation"
	case ErrCodeServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is the normalized failure for an outbound call.
type Error struct {
	// Message describes the failure.
	Message string
	// StatusCode is the HTTP status code (0 for transport-level errors).
	StatusCode int
	// Code classifies the failure.
	Code ErrorCode
	// Service is the logical destination name.
	Service string
	// Endpoint is the request path.
	Endpoint string
	// RequestID is the tracing identifier assigned to the call.
	RequestID string
	// Retryable indicates whether the call can be retried.
	Retryable bool
	// Details carries an opaque diagnostic payload (response body, etc).
	Details map[string]any
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s %s: %s (HTTP %d): %s",
			e.Service, e.Endpoint, e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s %s: %s: %s", e.Service, e.Endpoint, e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(err error) *Error {
	return &Error{
		Code:      ErrCodeTimeout,
		Message:   err.Error(),
		Retryable: true,
		Err:       err,
	}
}

// NewConnectionError creates a connection error.
func NewConnectionError(err error) *Error {
	return &Error{
		Code:      ErrCodeConnection,
		Message:   err.Error(),
		Retryable: true,
		Err:       err,
	}
}

// NewCircuitOpenError creates a circuit-open error. No network call was
// attempted; the destination is known-bad.
func NewCircuitOpenError(service, endpoint string, err error) *Error {
	return &Error{
		Code:      ErrCodeCircuitOpen,
		Message:   fmt.Sprintf("circuit breaker for %s is open", service),
		Service:   service,
		Endpoint:  endpoint,
		Retryable: false,
		Err:       err,
	}
}

// ClassifyStatusCode converts a non-2xx HTTP status into a typed error.
// Returns nil for 2xx status codes.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	var code ErrorCode
	retryable := false

	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == 401 || statusCode == 403:
		code = ErrCodeAuth
	case statusCode == 404:
		code = ErrCodeNotFound
	case statusCode == 429:
		code = ErrCodeRateLimit
	case statusCode >= 400 && statusCode < 500:
		code = ErrCodeValidation
	default:
		code = ErrCodeServer
		retryable = true
	}

	e := &Error{
		StatusCode: statusCode,
		Code:       code,
		Message:    fmt.Sprintf("HTTP %d", statusCode),
		Retryable:  retryable,
	}
	if len(body) > 0 {
		e.Details = map[string]any{"body": string(body)}
	}
	return e
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeTimeout
}

// IsConnection checks if an error is a connection error.
func IsConnection(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeConnection
}

// IsCircuitOpen checks if a call was rejected by an open circuit.
func IsCircuitOpen(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeCircuitOpen
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeNotFound
}

// IsServerError checks if an error is a server error.
func IsServerError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeServer
}

// IsRetryable reports whether the call that produced err may be retried.
// Client errors (4xx) are not retryable; server and transport errors are.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return true
}
