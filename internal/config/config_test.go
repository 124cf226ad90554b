package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// cliWithPath returns a CLI struct pointing at the given config file.
func cliWithPath(path string) *CLI {
	return &CLI{Config: path}
}

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "127.0.0.1"
port = 9000
body_max_bytes = 5242880

[backend]
base_url = "http://127.0.0.1:8001"
timeout_seconds = 60
idle_connections = 50

[log]
level = "debug"
format = "text"
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9000)
	}
	if cfg.Backend.BaseURL != "http://127.0.0.1:8001" {
		t.Errorf("Backend.BaseURL = %q, want %q", cfg.Backend.BaseURL, "http://127.0.0.1:8001")
	}
	if cfg.Backend.TimeoutSeconds != 60 {
		t.Errorf("Backend.TimeoutSeconds = %d, want %d", cfg.Backend.TimeoutSeconds, 60)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	// No --config and no file in the search paths: built-in defaults apply.
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(cwd) }()

	cfg, err := Load(&CLI{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.BaseURL != "http://127.0.0.1:8001" {
		t.Errorf("Backend.BaseURL = %q, want default %q", cfg.Backend.BaseURL, "http://127.0.0.1:8001")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default %d", cfg.Server.Port, 8080)
	}
	if cfg.Backend.TimeoutSeconds != 120 {
		t.Errorf("Backend.TimeoutSeconds = %d, want default %d", cfg.Backend.TimeoutSeconds, 120)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want default %q", cfg.Log.Format, "json")
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want default %q", cfg.Metrics.Path, "/metrics")
	}
}

func TestLoad_CLIOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "0.0.0.0"
port = 9000

[backend]
base_url = "http://backend:8001"
`)

	cfg, err := Load(&CLI{
		Config:     path,
		Host:       "127.0.0.1",
		Port:       9100,
		BackendURL: "http://other:8001",
		LogLevel:   "warn",
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want CLI override %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want CLI override %d", cfg.Server.Port, 9100)
	}
	if cfg.Backend.BaseURL != "http://other:8001" {
		t.Errorf("Backend.BaseURL = %q, want CLI override %q", cfg.Backend.BaseURL, "http://other:8001")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want CLI override %q", cfg.Log.Level, "warn")
	}
}

func TestLoad_InvalidBackendScheme(t *testing.T) {
	path := writeConfig(t, `
[backend]
base_url = "ftp://backend:8001"
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for non-http scheme, got nil")
	}
	if !strings.Contains(err.Error(), "http or https") {
		t.Errorf("error = %q, want mention of http or https", err)
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "verbose"
`)

	if _, err := Load(cliWithPath(path)); err == nil {
		t.Fatal("Load() expected error for invalid log level, got nil")
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 70000
`)

	if _, err := Load(cliWithPath(path)); err == nil {
		t.Fatal("Load() expected error for out-of-range port, got nil")
	}
}

func TestLoad_RateLimitNeedsRate(t *testing.T) {
	path := writeConfig(t, `
[server.rate_limit]
enabled = true
requests_per_second = 0.0
`)

	if _, err := Load(cliWithPath(path)); err == nil {
		t.Fatal("Load() expected error for enabled rate limit without rate, got nil")
	}
}

func TestLoad_MetricsPathConflict(t *testing.T) {
	path := writeConfig(t, `
[metrics]
enabled = true
path = "/api/search"
`)

	if _, err := Load(cliWithPath(path)); err == nil {
		t.Fatal("Load() expected error for metrics path shadowing an API route, got nil")
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(cliWithPath(filepath.Join(t.TempDir(), "nope.toml"))); err == nil {
		t.Fatal("Load() expected error for missing explicit config file, got nil")
	}
}

func TestAddr(t *testing.T) {
	s := &ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := s.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:8080")
	}
}

func TestFindConfigInPaths(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(existing, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	got := findConfigInPaths([]string{filepath.Join(dir, "missing.toml"), existing})
	if got != existing {
		t.Errorf("findConfigInPaths() = %q, want %q", got, existing)
	}

	if got := findConfigInPaths([]string{filepath.Join(dir, "missing.toml")}); got != "" {
		t.Errorf("findConfigInPaths() = %q, want empty", got)
	}
}
