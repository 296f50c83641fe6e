package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryOptions configures retry behavior.
type RetryOptions struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the computed backoff delay.
	MaxDelay time.Duration
	// BackoffFactor is the multiplier for exponential backoff.
	BackoffFactor float64
	// RetryIf determines whether an error should be retried.
	RetryIf func(error) bool
	// OnRetry is called before each retry sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryOptions returns sensible defaults.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:    3,
		InitialDelay:  1 * time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
	}
}

// applyDefaults fills zero-valued fields.
func (o *RetryOptions) applyDefaults() {
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = 1 * time.Second
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 10 * time.Second
	}
	if o.BackoffFactor <= 0 {
		o.BackoffFactor = 2.0
	}
	if o.RetryIf == nil {
		o.RetryIf = func(err error) bool { return true }
	}
}

// Retry executes fn up to MaxRetries+1 times. The first attempt is never
// delayed; each retry sleeps for the jittered backoff delay. When all
// attempts are exhausted the last observed error is returned unchanged.
func Retry[T any](ctx context.Context, opts RetryOptions, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	opts.applyDefaults()
	attempts := opts.MaxRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !opts.RetryIf(err) {
			return zero, err
		}
		if attempt == attempts {
			break
		}

		delay := Backoff(attempt, opts)

		if opts.OnRetry != nil {
			opts.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// RetryFunc executes a function that returns only an error.
func RetryFunc(ctx context.Context, opts RetryOptions, fn func() error) error {
	_, err := Retry(ctx, opts, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Backoff returns the sleep duration before the retry following the given
// attempt: exponential backoff capped at MaxDelay, then full jitter
// (uniform in [0, delay]) to desynchronize concurrent retrying callers.
func Backoff(attempt int, opts RetryOptions) time.Duration {
	delay := float64(opts.InitialDelay) * math.Pow(opts.BackoffFactor, float64(attempt-1))
	if delay > float64(opts.MaxDelay) {
		delay = float64(opts.MaxDelay)
	}
	return time.Duration(rand.Float64() * delay)
}
