package httpclient

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassifyStatusCode(t *testing.T) {
	tests := []struct {
		status    int
		wantCode  ErrorCode
		retryable bool
	}{
		{401, ErrCodeAuth, false},
		{403, ErrCodeAuth, false},
		{404, ErrCodeNotFound, false},
		{422, ErrCodeValidation, false},
		{429, ErrCodeRateLimit, false},
		{500, ErrCodeServer, true},
		{503, ErrCodeServer, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			e := ClassifyStatusCode(tt.status, nil)
			if e == nil {
				t.Fatal("expected an error")
			}
			if e.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, e.Code)
			}
			if e.Retryable != tt.retryable {
				t.Errorf("expected retryable=%v", tt.retryable)
			}
			if e.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, e.StatusCode)
			}
		})
	}
}

func TestClassifyStatusCode_SuccessIsNil(t *testing.T) {
	for _, status := range []int{200, 201, 204, 299} {
		if e := ClassifyStatusCode(status, nil); e != nil {
			t.Errorf("expected nil for %d, got %v", status, e)
		}
	}
}

func TestClassifyStatusCode_AttachesBody(t *testing.T) {
	e := ClassifyStatusCode(500, []byte("boom"))
	if e.Details["body"] != "boom" {
		t.Errorf("expected body in details, got %v", e.Details)
	}
}

func TestIsRetryable_ClientVersusServer(t *testing.T) {
	if IsRetryable(ClassifyStatusCode(404, nil)) {
		t.Error("4xx must not be retryable")
	}
	if !IsRetryable(ClassifyStatusCode(503, nil)) {
		t.Error("5xx must be retryable")
	}
	if !IsRetryable(NewTimeoutError(errors.New("deadline"))) {
		t.Error("timeouts must be retryable")
	}
	if !IsRetryable(NewConnectionError(errors.New("refused"))) {
		t.Error("connection errors must be retryable")
	}
	if IsRetryable(NewCircuitOpenError("whitelist", "/x", nil)) {
		t.Error("circuit-open must not be retryable")
	}
}

func TestErrorPredicates(t *testing.T) {
	timeout := NewTimeoutError(errors.New("deadline"))
	if !IsTimeout(timeout) || IsConnection(timeout) || IsCircuitOpen(timeout) {
		t.Error("timeout predicate mismatch")
	}

	open := NewCircuitOpenError("users", "/api", nil)
	if !IsCircuitOpen(open) || IsTimeout(open) {
		t.Error("circuit-open predicate mismatch")
	}
}

func TestError_WrapsUnderlyingError(t *testing.T) {
	cause := errors.New("connection refused")
	e := NewConnectionError(cause)

	if !errors.Is(e, cause) {
		t.Error("expected errors.Is to find the cause")
	}

	wrapped := fmt.Errorf("outer: %w", e)
	var apiErr *Error
	if !errors.As(wrapped, &apiErr) {
		t.Error("expected errors.As through wrapping")
	}
}

func TestError_MessageIncludesIdentity(t *testing.T) {
	e := &Error{
		Message:    "HTTP 503",
		StatusCode: 503,
		Code:       ErrCodeServer,
		Service:    "analytics",
		Endpoint:   "/api/v1/report",
	}

	msg := e.Error()
	for _, want := range []string{"analytics", "/api/v1/report", "503", "server"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestErrorCode_String(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrCodeTimeout, "timeout"},
		{ErrCodeConnection, "connection"},
		{ErrCodeCircuitOpen, "circuit_open"},
		{ErrCodeAuth, "auth"},
		{ErrCodeNotFound, "not_found"},
		{ErrCodeRateLimit, "rate_limit"},
		{ErrCodeValidation, "validation"},
		{ErrCodeServer, "server"},
		{ErrorCode(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("ErrorCode(%d).String() = %s, want %s", tt.code, got, tt.want)
		}
	}
}
