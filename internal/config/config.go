// Package config loads CLI configuration from ~/.deepseek/config.yaml with
// DEEPSEEK_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the deepseek CLI.
type Config struct {
	// Account credentials. Required for a fresh login unless APIKey or a
	// cached credential record is present.
	Email    string `yaml:"email"`
	Password string `yaml:"password"`

	// APIKey bypasses the login flow entirely when set.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the service origin. Empty means production.
	BaseURL string `yaml:"base_url"`

	// Proxies maps URL scheme ("http", "https", "socks5") to a proxy URL.
	Proxies map[string]string `yaml:"proxies"`

	// Timeout for HTTP calls, as a Go duration string ("120s").
	Timeout string `yaml:"timeout"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig controls the file-based diagnostic logs.
type LoggingConfig struct {
	Debug bool   `yaml:"debug"`
	Dir   string `yaml:"dir"` // defaults to ~/.deepseek/logs
}

// DefaultPath returns the canonical config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".deepseek", "config.yaml"), nil
}

// Load reads the config file at path. A missing file is not an error: the
// zero config plus environment overrides is returned.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies DEEPSEEK_* environment variables on top of the
// file values. Environment always wins.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DEEPSEEK_EMAIL"); v != "" {
		c.Email = v
	}
	if v := os.Getenv("DEEPSEEK_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("DEEPSEEK_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("DEEPSEEK_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("DEEPSEEK_TIMEOUT"); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv("DEEPSEEK_DEBUG"); v == "1" || v == "true" {
		c.Logging.Debug = true
	}
}

// TimeoutDuration parses the Timeout field, falling back to the default
// when unset or malformed.
func (c *Config) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 120 * time.Second
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// LogDir returns the configured log directory, defaulting next to the
// config file.
func (c *Config) LogDir() string {
	if c.Logging.Dir != "" {
		return c.Logging.Dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".deepseek", "logs")
}
