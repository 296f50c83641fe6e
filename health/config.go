package health

import "time"

const (
	defaultCheckInterval = 30 * time.Second
	defaultProbeTimeout  = 5 * time.Second
	defaultProbeRetries  = 1
	defaultWaitPoll      = 2 * time.Second
)

// Config configures a health check Manager.
type Config struct {
	// CheckInterval is the period between periodic check passes.
	CheckInterval time.Duration `mapstructure:"check_interval"`

	// Timeout bounds a single health probe.
	Timeout time.Duration `mapstructure:"timeout"`

	// Retries is the number of retries per probe.
	Retries int `mapstructure:"retries"`

	// Parallel fans probes out concurrently; sequential mode probes one
	// service at a time.
	Parallel bool `mapstructure:"parallel"`

	// WaitPollInterval is the polling period of WaitForHealthy.
	WaitPollInterval time.Duration `mapstructure:"wait_poll_interval"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		CheckInterval:    defaultCheckInterval,
		Timeout:          defaultProbeTimeout,
		Retries:          defaultProbeRetries,
		Parallel:         true,
		WaitPollInterval: defaultWaitPoll,
	}
}

// applyDefaults fills zero-valued fields.
func (c *Config) applyDefaults() {
	if c.CheckInterval <= 0 {
		c.CheckInterval = defaultCheckInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultProbeTimeout
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.WaitPollInterval <= 0 {
		c.WaitPollInterval = defaultWaitPoll
	}
}
