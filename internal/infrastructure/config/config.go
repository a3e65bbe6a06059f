package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Spritewire.
// All configuration is loaded from YAML and can be overridden by
// environment variables.
type Config struct {
	Service  ServiceConfig           `yaml:"service"`
	Database DatabaseConfig          `yaml:"database"`
	Gateway  GatewayConfig           `yaml:"gateway"`
	API      APIConfig               `yaml:"api"`
	Sources  map[string]SourceConfig `yaml:"sources"`
	Logging  LoggingConfig           `yaml:"logging"`
}

// ServiceConfig contains instance-level information.
type ServiceConfig struct {
	ID string `yaml:"id"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// GatewayConfig contains sprite gateway connection settings.
// The gateway hosts the long-lived sprite execution environments that
// receive rendered instructions.
type GatewayConfig struct {
	// URL is the base URL of the sprite gateway (no trailing slash needed).
	URL string `yaml:"url"`

	// Token is the bearer credential for execution calls. An empty token
	// is not a startup error: executions fail closed per-automation.
	Token string `yaml:"token"`

	// Timeout is the outbound HTTP timeout in seconds. 0 uses the
	// transport default.
	Timeout int `yaml:"timeout"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	TLS       TLSConfig        `yaml:"tls"`
	Timeouts  APITimeoutConfig `yaml:"timeouts"`
	CORS      CORSConfig       `yaml:"cors"`
	AuthToken string           `yaml:"auth_token"` // bearer token guarding admin routes
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// SourceConfig contains per-source webhook settings, keyed by the
// adapter name in the Sources map.
type SourceConfig struct {
	// Secret is the validation secret shared with the upstream sender.
	Secret string `yaml:"secret"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern SPRITEWIRE_SECTION_KEY, for
// example SPRITEWIRE_DATABASE_PATH or SPRITEWIRE_GATEWAY_TOKEN. Source
// secrets use SPRITEWIRE_SOURCE_<NAME>_SECRET.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			ID: "spritewire-001",
		},
		Database: DatabaseConfig{
			Path:        "./data/spritewire.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Gateway: GatewayConfig{
			URL:     "http://localhost:7000",
			Timeout: 30,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Sources: map[string]SourceConfig{},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Secrets in particular should come from the environment
// rather than the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SPRITEWIRE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("SPRITEWIRE_GATEWAY_URL"); v != "" {
		cfg.Gateway.URL = v
	}
	if v := os.Getenv("SPRITEWIRE_GATEWAY_TOKEN"); v != "" {
		cfg.Gateway.Token = v
	}

	if v := os.Getenv("SPRITEWIRE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("SPRITEWIRE_API_AUTH_TOKEN"); v != "" {
		cfg.API.AuthToken = v
	}

	// Source secrets: SPRITEWIRE_SOURCE_GITHUB_SECRET sets
	// Sources["github"].Secret, creating the entry if absent.
	const prefix = "SPRITEWIRE_SOURCE_"
	const suffix = "_SECRET"
	for _, env := range os.Environ() {
		key, value, found := strings.Cut(env, "=")
		if !found || !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, suffix) {
			continue
		}
		name := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(key, prefix), suffix))
		if name == "" || value == "" {
			continue
		}
		if cfg.Sources == nil {
			cfg.Sources = map[string]SourceConfig{}
		}
		cfg.Sources[name] = SourceConfig{Secret: value}
	}
}

// Validate checks the configuration for errors.
//
// A missing gateway token or source secret is deliberately not a
// validation failure: those fail closed at dispatch time so the rest of
// the service keeps running.
func (c *Config) Validate() error {
	var errs []string

	if c.Service.ID == "" {
		errs = append(errs, "service.id is required")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.Gateway.URL == "" {
		errs = append(errs, "gateway.url is required")
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// SourceSecret returns the validation secret for a source adapter name.
func (c *Config) SourceSecret(name string) (string, bool) {
	src, ok := c.Sources[name]
	if !ok || src.Secret == "" {
		return "", false
	}
	return src.Secret, true
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetGatewayTimeout returns the outbound gateway timeout as a Duration.
func (c *Config) GetGatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.Timeout) * time.Second
}
