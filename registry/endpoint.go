package registry

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	defaultHealthPath = "/health"
	defaultProtocol   = "http"
	defaultTimeout    = 30 * time.Second
)

var validate = validator.New()

// Endpoint describes one destination service.
type Endpoint struct {
	// Name is the unique logical identifier of the service.
	Name string `mapstructure:"name" validate:"required"`
	// Host is the network host. Left empty, it is derived from the
	// registry's topology at registration time.
	Host string `mapstructure:"host"`
	// Port is the service port.
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
	// Protocol is http or https. Defaults to http.
	Protocol string `mapstructure:"protocol" validate:"omitempty,oneof=http https"`
	// HealthPath is the health endpoint path. Defaults to /health.
	HealthPath string `mapstructure:"health_path"`
	// Timeout is the default request timeout for this destination.
	Timeout time.Duration `mapstructure:"timeout"`
}

// applyDefaults fills zero-valued optional fields.
func (e *Endpoint) applyDefaults() {
	if e.Protocol == "" {
		e.Protocol = defaultProtocol
	}
	if e.HealthPath == "" {
		e.HealthPath = defaultHealthPath
	}
	if e.Timeout <= 0 {
		e.Timeout = defaultTimeout
	}
}

// Validate checks the endpoint fields.
func (e *Endpoint) Validate() error {
	return validate.Struct(e)
}

// EndpointUpdate carries a partial update for a registered endpoint.
// Nil fields are left unchanged.
type EndpointUpdate struct {
	Host       *string
	Port       *int
	Protocol   *string
	HealthPath *string
	Timeout    *time.Duration
}
