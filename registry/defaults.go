package registry

import (
	"time"

	"github.com/answerline/svckit/logger"
)

// DefaultEndpoints returns the platform's standard service set. Hosts are
// left empty so each registry derives them from its own topology.
func DefaultEndpoints() []Endpoint {
	return []Endpoint{
		{Name: "users", Port: 3001},
		{Name: "conversations", Port: 3002},
		{Name: "realtime", Port: 3003, Timeout: 60 * time.Second},
		{Name: "analytics", Port: 3005},
		{Name: "whitelist", Port: 3006},
	}
}

// NewDefault creates a registry pre-loaded with the platform's standard
// service set.
func NewDefault(log *logger.Logger) (*Registry, error) {
	return New(Config{Services: DefaultEndpoints()}, log)
}
