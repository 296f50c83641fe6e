package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/answerline/svckit/logger"
)

func newTestRegistry(t *testing.T, env Environment) *Registry {
	t.Helper()
	r, err := New(Config{Environment: env}, logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestRegistry_DevelopmentResolvesLocalhost(t *testing.T) {
	r := newTestRegistry(t, EnvDevelopment)

	if err := r.Register(Endpoint{Name: "whitelist", Port: 3006}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	url, err := r.URL("whitelist", "/health")
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if url != "http://localhost:3006/health" {
		t.Errorf("expected http://localhost:3006/health, got %s", url)
	}
}

func TestRegistry_DockerResolvesServiceName(t *testing.T) {
	r := newTestRegistry(t, EnvDocker)

	if err := r.Register(Endpoint{Name: "users", Port: 3001}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	url, err := r.URL("users", "")
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if url != "http://users:3001" {
		t.Errorf("expected http://users:3001, got %s", url)
	}
}

func TestRegistry_KubernetesResolvesClusterDNS(t *testing.T) {
	r, err := New(Config{Environment: EnvKubernetes, Namespace: "platform"}, logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := r.Register(Endpoint{Name: "analytics", Port: 3005}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	ep, ok := r.Get("analytics")
	if !ok {
		t.Fatal("endpoint not found")
	}
	if ep.Host != "analytics.platform.svc.cluster.local" {
		t.Errorf("unexpected host: %s", ep.Host)
	}
}

func TestRegistry_ExplicitHostIsKept(t *testing.T) {
	r := newTestRegistry(t, EnvDevelopment)

	if err := r.Register(Endpoint{Name: "ext", Host: "10.0.0.9", Port: 8080}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	ep, _ := r.Get("ext")
	if ep.Host != "10.0.0.9" {
		t.Errorf("expected explicit host kept, got %s", ep.Host)
	}
}

func TestRegistry_URLIsIdempotent(t *testing.T) {
	r := newTestRegistry(t, EnvDevelopment)

	ep := Endpoint{Name: "conversations", Port: 3002, Protocol: "https"}
	if err := r.Register(ep); err != nil {
		t.Fatalf("Register: %v", err)
	}

	for i := 0; i < 3; i++ {
		url, err := r.URL("conversations", "")
		if err != nil {
			t.Fatalf("URL: %v", err)
		}
		if url != "https://localhost:3002" {
			t.Errorf("expected https://localhost:3002, got %s", url)
		}
	}
}

func TestRegistry_URLAddsLeadingSlash(t *testing.T) {
	r := newTestRegistry(t, EnvDevelopment)
	_ = r.Register(Endpoint{Name: "users", Port: 3001})

	url, err := r.URL("users", "api/v1/users")
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if url != "http://localhost:3001/api/v1/users" {
		t.Errorf("unexpected url: %s", url)
	}
}

func TestRegistry_UnknownServiceFails(t *testing.T) {
	r := newTestRegistry(t, EnvDevelopment)

	if _, err := r.URL("ghost", "/health"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("expected ErrNotRegistered, got %v", err)
	}
	if _, err := r.HealthCheckURL("ghost"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("expected ErrNotRegistered, got %v", err)
	}
}

func TestRegistry_HealthCheckURLUsesConfiguredPath(t *testing.T) {
	r := newTestRegistry(t, EnvDevelopment)
	_ = r.Register(Endpoint{Name: "realtime", Port: 3003, HealthPath: "/healthz"})

	url, err := r.HealthCheckURL("realtime")
	if err != nil {
		t.Fatalf("HealthCheckURL: %v", err)
	}
	if url != "http://localhost:3003/healthz" {
		t.Errorf("unexpected url: %s", url)
	}
}

func TestRegistry_DefaultsApplied(t *testing.T) {
	r := newTestRegistry(t, EnvDevelopment)
	_ = r.Register(Endpoint{Name: "users", Port: 3001})

	ep, _ := r.Get("users")
	if ep.Protocol != "http" {
		t.Errorf("expected default protocol http, got %s", ep.Protocol)
	}
	if ep.HealthPath != "/health" {
		t.Errorf("expected default health path /health, got %s", ep.HealthPath)
	}
	if ep.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", ep.Timeout)
	}
}

func TestRegistry_RejectsInvalidEndpoint(t *testing.T) {
	r := newTestRegistry(t, EnvDevelopment)

	if err := r.Register(Endpoint{Name: "", Port: 3001}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := r.Register(Endpoint{Name: "bad", Port: 0}); err == nil {
		t.Error("expected error for missing port")
	}
	if err := r.Register(Endpoint{Name: "bad", Port: 3001, Protocol: "ftp"}); err == nil {
		t.Error("expected error for unsupported protocol")
	}
}

func TestRegistry_Update(t *testing.T) {
	r := newTestRegistry(t, EnvDevelopment)
	_ = r.Register(Endpoint{Name: "users", Port: 3001})

	port := 4001
	proto := "https"
	if err := r.Update("users", EndpointUpdate{Port: &port, Protocol: &proto}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	url, _ := r.URL("users", "")
	if url != "https://localhost:4001" {
		t.Errorf("unexpected url after update: %s", url)
	}
}

func TestRegistry_UpdateUnknownFails(t *testing.T) {
	r := newTestRegistry(t, EnvDevelopment)

	port := 4001
	if err := r.Update("ghost", EndpointUpdate{Port: &port}); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("expected ErrNotRegistered, got %v", err)
	}
}

func TestRegistry_Unregister(t *testing.T) {
	r := newTestRegistry(t, EnvDevelopment)
	_ = r.Register(Endpoint{Name: "users", Port: 3001})

	r.Unregister("users")

	if _, ok := r.Get("users"); ok {
		t.Error("expected endpoint removed")
	}

	// Unregistering again is a no-op.
	r.Unregister("users")
}

func TestRegistry_AllSortedByName(t *testing.T) {
	r := newTestRegistry(t, EnvDevelopment)
	_ = r.Register(Endpoint{Name: "whitelist", Port: 3006})
	_ = r.Register(Endpoint{Name: "analytics", Port: 3005})
	_ = r.Register(Endpoint{Name: "users", Port: 3001})

	all := r.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 endpoints, got %d", len(all))
	}
	if all[0].Name != "analytics" || all[1].Name != "users" || all[2].Name != "whitelist" {
		t.Errorf("endpoints not sorted: %v", []string{all[0].Name, all[1].Name, all[2].Name})
	}
}

func TestNewDefault_RegistersPlatformServices(t *testing.T) {
	r, err := New(Config{Environment: EnvDevelopment, Services: DefaultEndpoints()}, logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, name := range []string{"users", "conversations", "realtime", "analytics", "whitelist"} {
		if _, ok := r.Get(name); !ok {
			t.Errorf("expected %s registered", name)
		}
	}
}

func TestEnvironment_ResolveHost(t *testing.T) {
	tests := []struct {
		env       Environment
		service   string
		namespace string
		want      string
	}{
		{EnvDevelopment, "users", "", "localhost"},
		{EnvDocker, "users", "", "users"},
		{EnvKubernetes, "users", "platform", "users.platform.svc.cluster.local"},
	}

	for _, tt := range tests {
		if got := tt.env.ResolveHost(tt.service, tt.namespace); got != tt.want {
			t.Errorf("%s.ResolveHost(%s, %s) = %s, want %s",
				tt.env, tt.service, tt.namespace, got, tt.want)
		}
	}
}

func TestDetectEnvironment_Kubernetes(t *testing.T) {
	t.Setenv("KUBERNETES_SERVICE_HOST", "10.96.0.1")

	if env := DetectEnvironment(); env != EnvKubernetes {
		t.Errorf("expected kubernetes, got %s", env)
	}
}

func TestNew_RejectsUnknownEnvironment(t *testing.T) {
	if _, err := New(Config{Environment: "staging"}, logger.Nop()); err == nil {
		t.Error("expected error for unknown environment")
	}
}
