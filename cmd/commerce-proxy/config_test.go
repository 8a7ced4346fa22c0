package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.Listen != ":8080" {
		t.Errorf("Listen = %q, want :8080", cfg.Listen)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
listen: ":9090"
base_url: "https://api.example-commerce.com/v1"
user_agent: "my-agent/2.0"
log_level: debug
cache:
  ttl_seconds: 120
  persistent: true
  max_entries: 500
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("Listen = %q, want :9090", cfg.Listen)
	}
	if cfg.BaseURL != "https://api.example-commerce.com/v1" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Cache.TTL() != 120*time.Second {
		t.Errorf("Cache.TTL() = %v, want 120s", cfg.Cache.TTL())
	}
	if !cfg.Cache.Persistent {
		t.Error("Cache.Persistent = false, want true")
	}
	if cfg.Cache.MaxEntries != 500 {
		t.Errorf("Cache.MaxEntries = %d, want 500", cfg.Cache.MaxEntries)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("COMMERCE_BASE_URL", "https://env.example.com")
	t.Setenv("COMMERCE_ACCESS_TOKEN", "env-token")
	t.Setenv("COMMERCE_LISTEN", ":7070")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.BaseURL != "https://env.example.com" {
		t.Errorf("BaseURL = %q, want env override", cfg.BaseURL)
	}
	if cfg.AccessToken != "env-token" {
		t.Errorf("AccessToken = %q, want env-token", cfg.AccessToken)
	}
	if cfg.Listen != ":7070" {
		t.Errorf("Listen = %q, want :7070", cfg.Listen)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := loadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("loadConfig() with missing file should fail")
	}
}
