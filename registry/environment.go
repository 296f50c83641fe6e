package registry

import (
	"fmt"
	"os"
)

// Environment identifies the deployment topology.
type Environment string

const (
	// EnvDevelopment means services run directly on the host machine.
	EnvDevelopment Environment = "development"
	// EnvDocker means services run on a shared container network.
	EnvDocker Environment = "docker"
	// EnvKubernetes means services are reached through cluster DNS.
	EnvKubernetes Environment = "kubernetes"
)

// DetectEnvironment inspects the process environment once and returns the
// deployment topology: kubernetes when the cluster service-discovery
// marker is present, development when a development flag is set outside a
// container, docker otherwise.
func DetectEnvironment() Environment {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return EnvKubernetes
	}
	if isDevelopment() && !inContainer() {
		return EnvDevelopment
	}
	return EnvDocker
}

// ResolveHost derives the host for a service name under this topology.
func (e Environment) ResolveHost(service, namespace string) string {
	switch e {
	case EnvDevelopment:
		return "localhost"
	case EnvKubernetes:
		if namespace == "" {
			namespace = defaultNamespace()
		}
		return fmt.Sprintf("%s.%s.svc.cluster.local", service, namespace)
	default:
		// Container-network DNS resolves the service name directly.
		return service
	}
}

// Valid reports whether e is a recognized topology.
func (e Environment) Valid() bool {
	switch e {
	case EnvDevelopment, EnvDocker, EnvKubernetes:
		return true
	}
	return false
}

func isDevelopment() bool {
	for _, key := range []string{"APP_ENV", "GO_ENV", "ENVIRONMENT"} {
		if os.Getenv(key) == string(EnvDevelopment) {
			return true
		}
	}
	return false
}

func inContainer() bool {
	for _, marker := range []string{"/.dockerenv", "/run/.containerenv"} {
		if _, err := os.Stat(marker); err == nil {
			return true
		}
	}
	return false
}

func defaultNamespace() string {
	if ns := os.Getenv("POD_NAMESPACE"); ns != "" {
		return ns
	}
	return "default"
}
