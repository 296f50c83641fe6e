package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/answerline/svckit/logger"
)

// ErrNotRegistered is returned when a service name is unknown.
var ErrNotRegistered = errors.New("service is not registered")

// Config configures a Registry.
type Config struct {
	// Environment overrides topology detection. Empty means detect.
	Environment Environment `mapstructure:"environment"`
	// Namespace is the kubernetes namespace used for host resolution.
	Namespace string `mapstructure:"namespace"`
	// Services are registered at construction.
	Services []Endpoint `mapstructure:"services"`
}

// Registry maps logical service names to network locations. It is
// constructed explicitly and passed to consumers; there is no ambient
// global instance.
type Registry struct {
	env       Environment
	namespace string
	log       *logger.Logger

	mu        sync.RWMutex
	endpoints map[string]Endpoint
}

// New creates a Registry, detecting the deployment topology unless the
// config overrides it, and registers any configured services.
func New(cfg Config, log *logger.Logger) (*Registry, error) {
	if log == nil {
		log = logger.Nop()
	}

	env := cfg.Environment
	if env == "" {
		env = DetectEnvironment()
	}
	if !env.Valid() {
		return nil, fmt.Errorf("registry: unknown environment %q", env)
	}

	r := &Registry{
		env:       env,
		namespace: cfg.Namespace,
		log:       log.WithComponent("registry"),
		endpoints: make(map[string]Endpoint),
	}

	r.log.Info("service registry initialized", logger.Fields("environment", string(env)))

	for _, ep := range cfg.Services {
		if err := r.Register(ep); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Environment returns the detected deployment topology.
func (r *Registry) Environment() Environment {
	return r.env
}

// Register adds or replaces an endpoint. A missing host is derived from
// the topology's host-resolution strategy at registration time.
func (r *Registry) Register(ep Endpoint) error {
	ep.applyDefaults()
	if err := ep.Validate(); err != nil {
		return fmt.Errorf("registry: invalid endpoint %q: %w", ep.Name, err)
	}
	if ep.Host == "" {
		ep.Host = r.env.ResolveHost(ep.Name, r.namespace)
	}

	r.mu.Lock()
	r.endpoints[ep.Name] = ep
	r.mu.Unlock()

	r.log.Debug("service registered", logger.Fields(
		logger.FieldService, ep.Name,
		"host", ep.Host,
		"port", ep.Port,
	))
	return nil
}

// Get returns the endpoint for a service name.
func (r *Registry) Get(name string) (Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ep, ok := r.endpoints[name]
	return ep, ok
}

// All returns every registered endpoint, sorted by name.
func (r *Registry) All() []Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	eps := make([]Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		eps = append(eps, ep)
	}
	sort.Slice(eps, func(i, j int) bool { return eps[i].Name < eps[j].Name })
	return eps
}

// Names returns every registered service name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.endpoints))
	for name := range r.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// URL constructs protocol://host:port with an optional path appended.
// Fails when the service is not registered.
func (r *Registry) URL(name, path string) (string, error) {
	ep, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("registry: %q: %w", name, ErrNotRegistered)
	}

	base := fmt.Sprintf("%s://%s:%d", ep.Protocol, ep.Host, ep.Port)
	if path == "" {
		return base, nil
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path, nil
}

// HealthCheckURL constructs the URL of the service's health endpoint.
func (r *Registry) HealthCheckURL(name string) (string, error) {
	ep, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("registry: %q: %w", name, ErrNotRegistered)
	}
	return r.URL(name, ep.HealthPath)
}

// Update applies a partial update to a registered endpoint.
func (r *Registry) Update(name string, update EndpointUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep, ok := r.endpoints[name]
	if !ok {
		return fmt.Errorf("registry: %q: %w", name, ErrNotRegistered)
	}

	if update.Host != nil {
		ep.Host = *update.Host
	}
	if update.Port != nil {
		ep.Port = *update.Port
	}
	if update.Protocol != nil {
		ep.Protocol = *update.Protocol
	}
	if update.HealthPath != nil {
		ep.HealthPath = *update.HealthPath
	}
	if update.Timeout != nil {
		ep.Timeout = *update.Timeout
	}

	if err := ep.Validate(); err != nil {
		return fmt.Errorf("registry: invalid update for %q: %w", name, err)
	}

	r.endpoints[name] = ep
	r.log.Debug("service updated", logger.Fields(logger.FieldService, name))
	return nil
}

// Unregister removes an endpoint. Removing an unknown name is a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	delete(r.endpoints, name)
	r.mu.Unlock()
}
