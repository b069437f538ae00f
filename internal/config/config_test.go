package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
email: a@b.c
password: pw
base_url: https://example.test
proxies:
  https: http://proxy.local:8080
timeout: 30s
logging:
  debug: true
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Email != "a@b.c" || cfg.Password != "pw" {
		t.Errorf("Credentials not loaded: %+v", cfg)
	}
	if cfg.BaseURL != "https://example.test" {
		t.Errorf("Unexpected base_url %q", cfg.BaseURL)
	}
	if cfg.Proxies["https"] != "http://proxy.local:8080" {
		t.Errorf("Unexpected proxies %v", cfg.Proxies)
	}
	if cfg.TimeoutDuration() != 30*time.Second {
		t.Errorf("Unexpected timeout %v", cfg.TimeoutDuration())
	}
	if !cfg.Logging.Debug {
		t.Error("Expected debug logging enabled")
	}
}

func TestLoad_MissingFileIsZeroConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Missing config file should not error, got %v", err)
	}
	if cfg.Email != "" || cfg.APIKey != "" {
		t.Errorf("Expected zero config, got %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("email: file@b.c\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DEEPSEEK_EMAIL", "env@b.c")
	t.Setenv("DEEPSEEK_API_KEY", "sk-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Email != "env@b.c" {
		t.Errorf("Environment must win over the file, got %q", cfg.Email)
	}
	if cfg.APIKey != "sk-env" {
		t.Errorf("Expected sk-env, got %q", cfg.APIKey)
	}
}

func TestTimeoutDuration_Defaults(t *testing.T) {
	cfg := &Config{}
	if cfg.TimeoutDuration() != 120*time.Second {
		t.Errorf("Expected 120s default, got %v", cfg.TimeoutDuration())
	}
	cfg.Timeout = "garbage"
	if cfg.TimeoutDuration() != 120*time.Second {
		t.Errorf("Malformed timeout should fall back to default, got %v", cfg.TimeoutDuration())
	}
}
