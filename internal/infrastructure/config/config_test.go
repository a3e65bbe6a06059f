package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
service:
  id: "test-instance"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
gateway:
  url: "http://gateway.local:7000"
  token: "secret-token"
  timeout: 10
api:
  host: "127.0.0.1"
  port: 9090
sources:
  github:
    secret: "gh-secret"
  slack:
    secret: "slack-secret"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.ID != "test-instance" {
		t.Errorf("Service.ID = %q, want %q", cfg.Service.ID, "test-instance")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Gateway.URL != "http://gateway.local:7000" {
		t.Errorf("Gateway.URL = %q", cfg.Gateway.URL)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}

	secret, ok := cfg.SourceSecret("github")
	if !ok || secret != "gh-secret" {
		t.Errorf("SourceSecret(github) = %q, %v", secret, ok)
	}
	if _, ok := cfg.SourceSecret("unknown"); ok {
		t.Error("SourceSecret(unknown) should not resolve")
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	cfg, err := Load(writeConfig(t, "service:\n  id: minimal\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.Port != 8080 {
		t.Errorf("default API.Port = %d, want 8080", cfg.API.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Database.Path == "" {
		t.Error("default Database.Path should be set")
	}
	if cfg.Gateway.Timeout != 30 {
		t.Errorf("default Gateway.Timeout = %d, want 30", cfg.Gateway.Timeout)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "service: [unclosed")); err == nil {
		t.Error("Load() expected error for malformed YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SPRITEWIRE_DATABASE_PATH", "/override/db.sqlite")
	t.Setenv("SPRITEWIRE_GATEWAY_TOKEN", "env-token")
	t.Setenv("SPRITEWIRE_SOURCE_GITHUB_SECRET", "env-gh-secret")
	t.Setenv("SPRITEWIRE_SOURCE_LINEAR_SECRET", "env-linear-secret")

	content := `
service:
  id: test
database:
  path: /file/db.sqlite
gateway:
  url: http://localhost:7000
  token: file-token
sources:
  github:
    secret: file-secret
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/override/db.sqlite" {
		t.Errorf("Database.Path = %q, env override not applied", cfg.Database.Path)
	}
	if cfg.Gateway.Token != "env-token" {
		t.Errorf("Gateway.Token = %q, env override not applied", cfg.Gateway.Token)
	}

	// Env replaces a file secret and creates a missing source entry.
	if secret, _ := cfg.SourceSecret("github"); secret != "env-gh-secret" {
		t.Errorf("SourceSecret(github) = %q, want env-gh-secret", secret)
	}
	if secret, _ := cfg.SourceSecret("linear"); secret != "env-linear-secret" {
		t.Errorf("SourceSecret(linear) = %q, want env-linear-secret", secret)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty service id", func(c *Config) { c.Service.ID = "" }},
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"empty gateway url", func(c *Config) { c.Gateway.URL = "" }},
		{"port zero", func(c *Config) { c.API.Port = 0 }},
		{"port too high", func(c *Config) { c.API.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() error = nil, want error")
			}
		})
	}
}

func TestValidate_MissingSecretsAllowed(t *testing.T) {
	// Missing gateway token and source secrets fail closed at dispatch
	// time, not at startup.
	cfg := defaultConfig()
	cfg.Gateway.Token = ""
	cfg.Sources = nil

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}
