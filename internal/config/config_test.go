package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Port)
	}
	if cfg.GateAutoCloseMs != 3000 {
		t.Errorf("Expected default auto-close 3000ms, got %d", cfg.GateAutoCloseMs)
	}
	if cfg.AuthEnabled {
		t.Error("Auth should be disabled by default")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.LogLevel)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoadWithoutConfigFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load without config file should fall back to defaults: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Expected default port, got %d", cfg.Port)
	}
}

func TestLoadFromFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	content := `
port: 9090
gate_auto_close_ms: 5000
log_level: debug
auth_enabled: true
jwt_secret: test-secret
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Port)
	}
	if cfg.GateAutoCloseMs != 5000 {
		t.Errorf("Expected auto-close 5000ms, got %d", cfg.GateAutoCloseMs)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.LogLevel)
	}
	if !cfg.AuthEnabled {
		t.Error("Expected auth to be enabled")
	}

	// Unspecified values keep their defaults
	if cfg.Host != "0.0.0.0" {
		t.Errorf("Expected default host, got %s", cfg.Host)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"invalid port", func(c *Config) { c.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Port = 70000 }, true},
		{"missing database path", func(c *Config) { c.DatabasePath = "" }, true},
		{"non-positive auto-close", func(c *Config) { c.GateAutoCloseMs = 0 }, true},
		{"auth without secret", func(c *Config) { c.AuthEnabled = true }, true},
		{"auth with secret", func(c *Config) { c.AuthEnabled = true; c.JWTSecret = "s" }, false},
		{"invalid log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"rate limit without quota", func(c *Config) { c.RateLimitEnabled = true; c.RequestsPerMin = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}
