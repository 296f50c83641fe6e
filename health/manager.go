package health

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/answerline/svckit/httpclient"
	"github.com/answerline/svckit/logger"
	"github.com/answerline/svckit/registry"
	"github.com/answerline/svckit/resilience"
)

// Status classifies one service's health.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// Result is the most recent health check outcome for one service.
// Exactly one Result per service is retained as current at any time.
type Result struct {
	Service      string         `json:"service"`
	Status       Status         `json:"status"`
	Timestamp    time.Time      `json:"timestamp"`
	ResponseTime time.Duration  `json:"response_time_ms"`
	Details      map[string]any `json:"details,omitempty"`
}

// Summary is the derived system-wide health. It is recomputed on demand
// and never stored.
type Summary struct {
	OverallStatus string            `json:"overall_status"`
	Healthy       int               `json:"healthy"`
	Unhealthy     int               `json:"unhealthy"`
	Total         int               `json:"total"`
	LastCheck     time.Time         `json:"last_check,omitzero"`
	Services      map[string]Result `json:"services"`
}

// Manager polls all registered services and aggregates system health.
type Manager struct {
	reg     *registry.Registry
	cfg     Config
	log     *logger.Logger
	clients map[string]*httpclient.Client

	mu      sync.RWMutex
	results map[string]Result

	runMu  sync.Mutex
	stopCh chan struct{}
}

// NewManager creates a Manager with one resilient client per service
// registered at the time of construction.
func NewManager(reg *registry.Registry, cfg Config, log *logger.Logger) (*Manager, error) {
	cfg.applyDefaults()
	if log == nil {
		log = logger.Nop()
	}

	m := &Manager{
		reg:     reg,
		cfg:     cfg,
		log:     log.WithComponent("health"),
		clients: make(map[string]*httpclient.Client),
		results: make(map[string]Result),
	}

	for _, ep := range reg.All() {
		client, err := httpclient.NewFromRegistry(reg, ep.Name, log)
		if err != nil {
			return nil, fmt.Errorf("health: client for %q: %w", ep.Name, err)
		}
		m.clients[ep.Name] = client
	}

	return m, nil
}

// CheckService probes one service's health endpoint and stores the
// outcome as its new current result. A probe failure is classified
// unhealthy, never propagated.
func (m *Manager) CheckService(ctx context.Context, name string) (Result, error) {
	ep, ok := m.reg.Get(name)
	if !ok {
		return Result{}, fmt.Errorf("health: %q: %w", name, registry.ErrNotRegistered)
	}
	client, ok := m.clients[name]
	if !ok {
		return Result{}, fmt.Errorf("health: no client for %q", name)
	}

	start := time.Now()
	resp, err := client.Do(ctx, httpclient.Request{
		Method:  http.MethodGet,
		Path:    ep.HealthPath,
		Timeout: m.cfg.Timeout,
		Retry: &resilience.RetryOptions{
			MaxRetries:   m.cfg.Retries,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     time.Second,
		},
		// The probe must be able to reach a destination whose main
		// breaker is currently open.
		SkipBreaker: true,
	})

	result := Result{
		Service:      name,
		Timestamp:    time.Now(),
		ResponseTime: time.Since(start),
		Details: map[string]any{
			"circuit_breaker": client.CircuitBreakerStatus(),
		},
	}

	if err != nil {
		result.Status = StatusUnhealthy
		result.Details["error"] = err.Error()
		m.log.Warn("service unhealthy", logger.Fields(
			logger.FieldService, name,
			logger.FieldError, err.Error(),
			logger.FieldDuration, result.ResponseTime.Milliseconds(),
		))
	} else {
		result.Status = StatusHealthy
		result.Details["status_code"] = resp.StatusCode
		m.log.Debug("service healthy", logger.Fields(
			logger.FieldService, name,
			logger.FieldDuration, result.ResponseTime.Milliseconds(),
		))
	}

	m.mu.Lock()
	m.results[name] = result
	m.mu.Unlock()

	return result, nil
}

// CheckAll probes every registered service and returns one result per
// service, sorted by name. In parallel mode each probe's failure is
// isolated so one slow destination cannot delay or fail the batch.
func (m *Manager) CheckAll(ctx context.Context) []Result {
	names := m.reg.Names()
	results := make([]Result, len(names))

	if m.cfg.Parallel {
		var wg sync.WaitGroup
		for i, name := range names {
			wg.Add(1)
			go func(i int, name string) {
				defer wg.Done()
				results[i] = m.checkOrUnknown(ctx, name)
			}(i, name)
		}
		wg.Wait()
	} else {
		for i, name := range names {
			results[i] = m.checkOrUnknown(ctx, name)
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Service < results[j].Service })
	return results
}

func (m *Manager) checkOrUnknown(ctx context.Context, name string) Result {
	result, err := m.CheckService(ctx, name)
	if err != nil {
		return Result{
			Service:   name,
			Status:    StatusUnknown,
			Timestamp: time.Now(),
			Details:   map[string]any{"error": err.Error()},
		}
	}
	return result
}

// ServiceHealth returns the current result for one service.
func (m *Manager) ServiceHealth(name string) (Result, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result, ok := m.results[name]
	return result, ok
}

// AllServiceHealth returns a copy of every current result.
func (m *Manager) AllServiceHealth() map[string]Result {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Result, len(m.results))
	for name, result := range m.results {
		out[name] = result
	}
	return out
}

// Summary derives the system-wide health from the current result set:
// healthy when every service is healthy, degraded when more than half
// are, unhealthy otherwise.
func (m *Manager) Summary() Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Summary{
		Services: make(map[string]Result, len(m.results)),
	}

	for name, result := range m.results {
		s.Services[name] = result
		s.Total++
		if result.Status == StatusHealthy {
			s.Healthy++
		} else {
			s.Unhealthy++
		}
		if result.Timestamp.After(s.LastCheck) {
			s.LastCheck = result.Timestamp
		}
	}

	switch {
	case s.Total == 0:
		s.OverallStatus = string(StatusUnknown)
	case s.Healthy == s.Total:
		s.OverallStatus = string(StatusHealthy)
	case s.Healthy*2 > s.Total:
		s.OverallStatus = "degraded"
	default:
		s.OverallStatus = string(StatusUnhealthy)
	}
	return s
}

// StartPeriodicChecks runs an immediate check pass, then repeats every
// CheckInterval until stopped. The returned function stops the loop and
// is the same capability exposed as StopPeriodicChecks. Starting while
// already running is a no-op.
func (m *Manager) StartPeriodicChecks() func() {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.stopCh != nil {
		m.log.Warn("periodic health checks already running")
		return m.StopPeriodicChecks
	}

	stopCh := make(chan struct{})
	m.stopCh = stopCh

	m.log.Info("periodic health checks started", logger.Fields(
		"interval", m.cfg.CheckInterval.String(),
	))
	go m.run(stopCh)

	return m.StopPeriodicChecks
}

// StopPeriodicChecks cancels the periodic check loop and releases its
// timer. Stopping an already stopped manager is a no-op.
func (m *Manager) StopPeriodicChecks() {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.stopCh == nil {
		return
	}
	close(m.stopCh)
	m.stopCh = nil
	m.log.Info("periodic health checks stopped")
}

func (m *Manager) run(stopCh chan struct{}) {
	ctx := context.Background()
	m.CheckAll(ctx)

	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			m.CheckAll(ctx)
		}
	}
}

// WaitForHealthy polls CheckAll until every target service (default: all
// registered services) reports healthy, or the timeout elapses. Returns
// false on timeout or context cancellation rather than an error.
func (m *Manager) WaitForHealthy(ctx context.Context, timeout time.Duration, services ...string) bool {
	targets := services
	if len(targets) == 0 {
		targets = m.reg.Names()
	}

	deadline := time.Now().Add(timeout)
	for {
		m.CheckAll(ctx)
		if m.allHealthy(targets) {
			return true
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			m.log.Warn("timed out waiting for healthy services", logger.Fields(
				"services", targets,
			))
			return false
		}

		poll := m.cfg.WaitPollInterval
		if poll > remaining {
			poll = remaining
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(poll):
		}
	}
}

func (m *Manager) allHealthy(targets []string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, name := range targets {
		result, ok := m.results[name]
		if !ok || result.Status != StatusHealthy {
			return false
		}
	}
	return true
}

// ResetCircuitBreaker force-clears one service's breaker history.
func (m *Manager) ResetCircuitBreaker(name string) error {
	client, ok := m.clients[name]
	if !ok {
		return fmt.Errorf("health: %q: %w", name, registry.ErrNotRegistered)
	}
	client.ResetCircuitBreaker()
	m.log.Info("circuit breaker reset", logger.Fields(logger.FieldService, name))
	return nil
}

// ResetAllCircuitBreakers force-clears every breaker's history.
func (m *Manager) ResetAllCircuitBreakers() {
	for name, client := range m.clients {
		client.ResetCircuitBreaker()
		m.log.Info("circuit breaker reset", logger.Fields(logger.FieldService, name))
	}
}

// Client returns the resilient client the manager owns for a service.
func (m *Manager) Client(name string) (*httpclient.Client, bool) {
	client, ok := m.clients[name]
	return client, ok
}
