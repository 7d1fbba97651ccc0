package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "empty.yaml"))
	if err == nil {
		t.Fatal("an explicit path that does not exist should fail")
	}

	cfg, err = Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.BaseURL != "http://localhost:8000" {
		t.Fatalf("base URL default = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 90*time.Second {
		t.Fatalf("timeout default = %s", cfg.Backend.Timeout)
	}
	if cfg.Downloads.Dir == "" {
		t.Fatal("downloads dir default should be set")
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("log level default = %q", cfg.Log.Level)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: https://askdesk.internal:9443
  timeout: 30s
downloads:
  dir: /srv/askdesk/out
log:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.BaseURL != "https://askdesk.internal:9443" {
		t.Fatalf("base URL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 30*time.Second {
		t.Fatalf("timeout = %s", cfg.Backend.Timeout)
	}
	if cfg.Downloads.Dir != "/srv/askdesk/out" {
		t.Fatalf("downloads dir = %q", cfg.Downloads.Dir)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("ASKDESK_BACKEND_BASE_URL", "http://env.example:8080")

	cfg, err := Load(writeConfig(t, "backend:\n  base_url: http://file.example\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.BaseURL != "http://env.example:8080" {
		t.Fatalf("env override lost, base URL = %q", cfg.Backend.BaseURL)
	}
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "backend: [unclosed\n")); err == nil {
		t.Fatal("broken YAML should fail loudly")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "askdesk.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
