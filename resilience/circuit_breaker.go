package resilience

import (
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows requests to pass through.
	StateClosed State = iota
	// StateOpen blocks all requests until the reset timeout elapses.
	StateOpen
	// StateHalfOpen allows the next request through to probe recovery.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when a call is rejected without being
// attempted because the circuit is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the protected destination for logging.
	Name string
	// Threshold is the failure count that trips the breaker.
	Threshold int
	// ResetTimeout is how long an open circuit waits before allowing a probe.
	ResetTimeout time.Duration
	// MonitoringPeriod is the window after which accumulated failures are
	// forgiven when no new failure has occurred.
	MonitoringPeriod time.Duration
	// OnStateChange is called when the state changes.
	OnStateChange func(name string, from, to State)
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		Threshold:        5,
		ResetTimeout:     30 * time.Second,
		MonitoringPeriod: 5 * time.Minute,
	}
}

// Status is a read-only snapshot of the breaker for observability.
type Status struct {
	Name            string    `json:"name"`
	State           string    `json:"state"`
	Failures        int       `json:"failures"`
	Successes       int       `json:"successes"`
	LastFailureTime time.Time `json:"last_failure_time,omitzero"`
	LastSuccessTime time.Time `json:"last_success_time,omitzero"`
	NextAttemptTime time.Time `json:"next_attempt_time,omitzero"`
}

// CircuitBreaker prevents a caller from hammering a destination that is
// currently failing and automatically probes for recovery.
//
// One instance exists per logical destination for the process lifetime.
// Counter updates are guarded by a mutex so concurrent callers to the
// same destination never interleave mid-update.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time
	lastSuccess time.Time
	nextAttempt time.Time

	now func() time.Time
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.Threshold <= 0 {
		config.Threshold = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.MonitoringPeriod <= 0 {
		config.MonitoringPeriod = 5 * time.Minute
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
}

// Allow reports whether a call may proceed. An open circuit whose reset
// timeout has elapsed transitions to half-open and lets the call through
// as a probe. Returns ErrCircuitOpen when the call must be rejected.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.forgiveStaleFailures()

	if cb.state == StateOpen {
		if cb.now().Before(cb.nextAttempt) {
			return ErrCircuitOpen
		}
		cb.toState(StateHalfOpen)
	}
	return nil
}

// Execute runs fn through the circuit breaker. The underlying error is
// always rethrown after bookkeeping; a rejected call fails with
// ErrCircuitOpen before fn is invoked.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.Allow(); err != nil {
		return err
	}

	err := fn()
	if err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}

// RecordSuccess records a successful call. A half-open probe success
// closes the circuit and clears the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.successes++
	cb.lastSuccess = cb.now()

	if cb.state == StateHalfOpen {
		cb.toState(StateClosed)
		cb.failures = 0
	}
	cb.forgiveStaleFailures()
}

// RecordFailure records a failed call. Reaching the threshold trips the
// breaker; a failed half-open probe re-opens it immediately.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = cb.now()

	if cb.failures >= cb.config.Threshold || cb.state == StateHalfOpen {
		cb.toState(StateOpen)
		cb.nextAttempt = cb.now().Add(cb.config.ResetTimeout)
	}
}

// Reset forces the breaker closed and zeroes all counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.toState(StateClosed)
	cb.failures = 0
	cb.successes = 0
	cb.lastFailure = time.Time{}
	cb.lastSuccess = time.Time{}
	cb.nextAttempt = time.Time{}
}

// ForceOpen trips the breaker regardless of call outcomes.
func (cb *CircuitBreaker) ForceOpen() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.toState(StateOpen)
	cb.nextAttempt = cb.now().Add(cb.config.ResetTimeout)
}

// ForceClosed closes the breaker regardless of call outcomes. Counters
// are preserved.
func (cb *CircuitBreaker) ForceClosed() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.toState(StateClosed)
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// FailureRate returns failures / (failures + successes), or 0 with no samples.
func (cb *CircuitBreaker) FailureRate() float64 {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	total := cb.failures + cb.successes
	if total == 0 {
		return 0
	}
	return float64(cb.failures) / float64(total)
}

// GetStatus returns a read-only snapshot of the breaker.
func (cb *CircuitBreaker) GetStatus() Status {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	s := Status{
		Name:            cb.config.Name,
		State:           cb.state.String(),
		Failures:        cb.failures,
		Successes:       cb.successes,
		LastFailureTime: cb.lastFailure,
		LastSuccessTime: cb.lastSuccess,
	}
	if cb.state == StateOpen {
		s.NextAttemptTime = cb.nextAttempt
	}
	return s
}

// forgiveStaleFailures zeroes the failure count once the monitoring
// period has elapsed without a new failure. Caller must hold cb.mu.
func (cb *CircuitBreaker) forgiveStaleFailures() {
	if cb.state != StateClosed || cb.failures == 0 || cb.lastFailure.IsZero() {
		return
	}
	if cb.now().Sub(cb.lastFailure) > cb.config.MonitoringPeriod {
		cb.failures = 0
	}
}

// toState transitions to a new state. Caller must hold cb.mu.
func (cb *CircuitBreaker) toState(to State) {
	if cb.state == to {
		return
	}

	from := cb.state
	cb.state = to

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
