package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	orig, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("default http.addr should be :8080, got %s", cfg.HTTP.Addr)
	}
	if cfg.RequestID.Strategy != "random" {
		t.Errorf("default strategy should be random, got %s", cfg.RequestID.Strategy)
	}
	if cfg.RequestID.Header != "X-Request-Id" {
		t.Errorf("default header should be X-Request-Id, got %s", cfg.RequestID.Header)
	}
	if cfg.HTTP.Timeout != 30*time.Second {
		t.Errorf("default timeout should be 30s, got %v", cfg.HTTP.Timeout)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("default shutdown timeout should be 10s, got %v", cfg.ShutdownTimeout)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	chdirTemp(t)

	t.Setenv("REQUEST_ID_STRATEGY", "prefixed")
	t.Setenv("REQUEST_ID_PREFIX", "edge")
	t.Setenv("HTTP_MAX_IN_FLIGHT", "16")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RequestID.Strategy != "prefixed" || cfg.RequestID.Prefix != "edge" {
		t.Errorf("request_id from env = %+v", cfg.RequestID)
	}
	if cfg.HTTP.MaxInFlight != 16 {
		t.Errorf("max_in_flight should be 16 from env, got %d", cfg.HTTP.MaxInFlight)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := []byte(`
service:
  name: edge
http:
  addr: ":3000"
  timeout: 5s
request_id:
  strategy: sequential
  header: X-Correlation-Id
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "edge" {
		t.Errorf("service.name = %s", cfg.Service.Name)
	}
	if cfg.HTTP.Addr != ":3000" || cfg.HTTP.Timeout != 5*time.Second {
		t.Errorf("http = %+v", cfg.HTTP)
	}
	if cfg.RequestID.Strategy != "sequential" || cfg.RequestID.Header != "X-Correlation-Id" {
		t.Errorf("request_id = %+v", cfg.RequestID)
	}
}

func TestLoad_RejectsBlankPrefix(t *testing.T) {
	chdirTemp(t)

	t.Setenv("REQUEST_ID_STRATEGY", "prefixed")
	t.Setenv("REQUEST_ID_PREFIX", "   ")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected validation error for blank prefix")
	}
	if !strings.Contains(err.Error(), "prefix") {
		t.Errorf("error should mention prefix, got %v", err)
	}
}

func TestLoad_RejectsUnknownStrategy(t *testing.T) {
	chdirTemp(t)
	t.Setenv("REQUEST_ID_STRATEGY", "snowflake")

	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error for unknown strategy")
	}
}

func TestGetenv(t *testing.T) {
	t.Setenv("STAMPD_TEST_VALUE", " set ")
	if got := Getenv("STAMPD_TEST_VALUE", "fallback"); got != "set" {
		t.Errorf("Getenv = %q", got)
	}
	if got := Getenv("STAMPD_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("Getenv unset = %q", got)
	}
}
