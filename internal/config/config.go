// Package config loads and validates the flightdesk configuration.
//
// DESIGN: Configuration comes from YAML files with ${VAR:-default} expansion.
// A handful of deployment values (DSN, environment, commit SHA, Redis URL)
// can also be injected directly through the environment.
//
// FILES:
//   - config.go:     Root Config struct, Load(), Validate()
//   - monitoring.go: Logging, Sentry and metrics settings
//   - service.go:    Store, chat and smoke settings
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment names with special meaning.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the root configuration for flightdesk.
type Config struct {
	Server     ServerConfig     `yaml:"server"`     // HTTP server settings
	App        AppConfig        `yaml:"app"`        // Deployment identity
	Monitoring MonitoringConfig `yaml:"monitoring"` // Logging, Sentry and metrics
	Store      StoreConfig      `yaml:"store"`      // Session store
	Chat       ChatConfig       `yaml:"chat"`       // Chat endpoint limits
	Smoke      SmokeConfig      `yaml:"smoke"`      // Smoke suite defaults
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // Port to listen on
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // Max time to read request
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // Max time to write response
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // Graceful shutdown budget
	RateLimit       int           `yaml:"rate_limit"`       // Requests per second per IP (0 disables)
}

// AppConfig identifies the running deployment.
type AppConfig struct {
	Env          string `yaml:"env"`            // development, staging, production
	GitCommitSHA string `yaml:"git_commit_sha"` // Release identifier
	ServiceName  string `yaml:"service_name"`   // Reported as server name
}

// expandEnvWithDefaults expands environment variables with support for default values.
// Supports both ${VAR} and ${VAR:-default} syntax.
func expandEnvWithDefaults(s string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// Load reads configuration from a YAML file.
// Returns an error if the file doesn't exist or is invalid.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from raw YAML bytes.
// Supports ${VAR:-default} env var expansion, env overrides, and validation.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvWithDefaults(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// ExpandEnvWithDefaults expands environment variables with support for default values.
func ExpandEnvWithDefaults(s string) string {
	return expandEnvWithDefaults(s)
}

// applyEnvOverrides lets the deployment platform inject secrets and build
// identity without editing config files.
func (c *Config) applyEnvOverrides() {
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		c.Monitoring.SentryDSN = dsn
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		c.App.Env = env
	}
	if sha := os.Getenv("GIT_COMMIT_SHA"); sha != "" {
		c.App.GitCommitSHA = sha
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		c.Store.Type = StoreRedis
		c.Store.Redis.URL = url
	}
}

// applyDefaults fills the few values that have a single sensible default.
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = EnvDevelopment
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Chat.MaxMessageLength == 0 {
		c.Chat.MaxMessageLength = DefaultMaxMessageLength
	}
	if c.Smoke.BaseURL == "" {
		c.Smoke.BaseURL = DefaultSmokeBaseURL
	}
	if c.Smoke.Timeout == 0 {
		c.Smoke.Timeout = DefaultSmokeTimeout
	}
}

// IsProduction reports whether the deployment runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ReadTimeout == 0 {
		return fmt.Errorf("server.read_timeout is required")
	}
	if c.Server.WriteTimeout == 0 {
		return fmt.Errorf("server.write_timeout is required")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("invalid server.rate_limit: %d", c.Server.RateLimit)
	}

	if err := c.Monitoring.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Chat.Validate(); err != nil {
		return err
	}

	return nil
}
