package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetryOptions(maxRetries int) RetryOptions {
	return RetryOptions{
		MaxRetries:    maxRetries,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastRetryOptions(3), func() (string, error) {
		calls++
		return "ok", nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "ok" {
		t.Errorf("expected ok, got %s", result)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastRetryOptions(3), func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != 42 {
		t.Errorf("expected 42, got %d", result)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_ExhaustsAndReturnsLastError(t *testing.T) {
	lastErr := errors.New("still broken")
	calls := 0

	_, err := Retry(context.Background(), fastRetryOptions(2), func() (int, error) {
		calls++
		return 0, lastErr
	})

	if !errors.Is(err, lastErr) {
		t.Errorf("expected last error surfaced unchanged, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected MaxRetries+1 = 3 calls, got %d", calls)
	}
}

func TestRetry_PredicateStopsRetrying(t *testing.T) {
	permanent := errors.New("client error")
	calls := 0

	opts := fastRetryOptions(5)
	opts.RetryIf = func(err error) bool { return !errors.Is(err, permanent) }

	_, err := Retry(context.Background(), opts, func() (int, error) {
		calls++
		return 0, permanent
	})

	if !errors.Is(err, permanent) {
		t.Errorf("expected the permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", calls)
	}
}

func TestRetry_ZeroRetriesMeansOneAttempt(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastRetryOptions(0), func() (int, error) {
		calls++
		return 0, errors.New("fail")
	})

	if err == nil {
		t.Error("expected an error")
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt, got %d", calls)
	}
}

func TestRetry_ContextCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	opts := RetryOptions{
		MaxRetries:    10,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}

	calls := 0
	_, err := Retry(ctx, opts, func() (int, error) {
		calls++
		cancel()
		return 0, errors.New("fail")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestRetry_OnRetryCallback(t *testing.T) {
	var attempts []int
	opts := fastRetryOptions(2)
	opts.OnRetry = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
	}

	_, _ = Retry(context.Background(), opts, func() (int, error) {
		return 0, errors.New("fail")
	})

	// Called before each retry sleep, not after the final attempt.
	if len(attempts) != 2 {
		t.Fatalf("expected 2 callbacks, got %d", len(attempts))
	}
	if attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected attempts [1 2], got %v", attempts)
	}
}

func TestBackoff_CappedAtMaxDelay(t *testing.T) {
	opts := RetryOptions{
		InitialDelay:  time.Second,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}

	for attempt := 1; attempt <= 20; attempt++ {
		for i := 0; i < 50; i++ {
			if d := Backoff(attempt, opts); d > opts.MaxDelay {
				t.Fatalf("attempt %d: delay %v exceeds max %v", attempt, d, opts.MaxDelay)
			}
		}
	}
}

func TestBackoff_FullJitterIsNonNegative(t *testing.T) {
	opts := RetryOptions{
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}

	for i := 0; i < 200; i++ {
		if d := Backoff(1, opts); d < 0 {
			t.Fatalf("negative delay %v", d)
		}
	}
}

func TestRetryFunc(t *testing.T) {
	calls := 0
	err := RetryFunc(context.Background(), fastRetryOptions(2), func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}
