package httpclient

import (
	"fmt"
	"time"

	"github.com/answerline/svckit/resilience"
)

const (
	defaultTimeout            = 30 * time.Second
	defaultHealthCheckTimeout = 5 * time.Second
	defaultHealthPath         = "/health"
)

// Config configures a resilient client for one destination.
type Config struct {
	// ServiceName is the logical name of the destination.
	ServiceName string `mapstructure:"service_name"`

	// BaseURL is prepended to all request paths.
	BaseURL string `mapstructure:"base_url"`

	// Timeout is the default request timeout. Defaults to 30s.
	Timeout time.Duration `mapstructure:"timeout"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `mapstructure:"headers"`

	// Retry configures retry behavior. Nil uses defaults.
	Retry *resilience.RetryOptions `yaml:"-" mapstructure:"-"`

	// Breaker configures the circuit breaker. Nil uses defaults named
	// after the service.
	Breaker *resilience.CircuitBreakerConfig `yaml:"-" mapstructure:"-"`

	// DisableBreaker turns off circuit-breaker gating for this client.
	DisableBreaker bool `mapstructure:"disable_breaker"`

	// Hooks are invoked around each request attempt.
	Hooks []Hook `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("httpclient: service name is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("httpclient: base URL is required")
	}
	return nil
}

// DefaultRetryOptions returns retry defaults with the HTTP retry
// predicate: 4xx failures are surfaced immediately, everything else is
// retried.
func DefaultRetryOptions() resilience.RetryOptions {
	opts := resilience.DefaultRetryOptions()
	opts.RetryIf = IsRetryable
	return opts
}
