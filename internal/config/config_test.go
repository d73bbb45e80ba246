package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"adforge/internal/config"
)

func TestDefaultValidatesWithKey(t *testing.T) {
	cfg := config.Default()
	cfg.API.Key = "test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := config.Default()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
	if !strings.Contains(err.Error(), "api.key") {
		t.Fatalf("error should name api.key, got %v", err)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[api]
base_url = "https://backend.example.com/"
key = "abc"

[poll]
job_interval = 2

[logging]
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("expected existing config, got exists=%v path=%q", exists, resolved)
	}
	if cfg.API.BaseURL != "https://backend.example.com" {
		t.Fatalf("base URL not trimmed: %q", cfg.API.BaseURL)
	}
	if cfg.Poll.JobInterval != 2 {
		t.Fatalf("job interval = %d", cfg.Poll.JobInterval)
	}
	if cfg.Poll.TaskRefreshInterval != 30 {
		t.Fatalf("task refresh default = %d", cfg.Poll.TaskRefreshInterval)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level not lowered: %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsBadListen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[api]
key = "abc"

[oauth]
listen = "not-a-bind"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for invalid oauth.listen")
	}
}

func TestAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv("ADFORGE_API_KEY", "env-key")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[api]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.Key != "env-key" {
		t.Fatalf("expected env key, got %q", cfg.API.Key)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := config.WriteSample(path, false); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := config.WriteSample(path, false); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
	if err := config.WriteSample(path, true); err != nil {
		t.Fatalf("forced overwrite failed: %v", err)
	}
}
