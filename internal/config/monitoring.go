// Monitoring configuration - logging, error tracking and metrics settings.
//
// DESIGN: Separates logging (zerolog) from error tracking (Sentry).
// Logging is for operators, Sentry is for incident triage.
// Sentry is optional: an empty DSN disables it without failing startup.
package config

import (
	"fmt"
	"time"
)

// MonitoringConfig contains all monitoring settings.
type MonitoringConfig struct {
	// Logging settings
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // json, console
	LogOutput string `yaml:"log_output"` // stdout, stderr, or file path

	// Error tracking
	SentryDSN    string        `yaml:"sentry_dsn"`    // Empty disables Sentry
	SentryDebug  bool          `yaml:"sentry_debug"`  // SDK debug output
	FlushTimeout time.Duration `yaml:"flush_timeout"` // Drain budget on shutdown

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled"` // Expose /metrics

	// Alerts
	HighLatencyThreshold time.Duration `yaml:"high_latency_threshold"`

	// Filled from AppConfig after loading; not read from the monitoring block.
	Environment string `yaml:"-"`
	Release     string `yaml:"-"`
	ServerName  string `yaml:"-"`
}

// Validate checks the monitoring block.
func (m *MonitoringConfig) Validate() error {
	switch m.LogFormat {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid monitoring.log_format: %q (must be json or console)", m.LogFormat)
	}
	if m.FlushTimeout < 0 {
		return fmt.Errorf("invalid monitoring.flush_timeout: %s", m.FlushTimeout)
	}
	return nil
}

// MonitoringSettings returns the monitoring block with deployment identity
// copied in from the app block.
func (c *Config) MonitoringSettings() MonitoringConfig {
	m := c.Monitoring
	m.Environment = c.App.Env
	m.Release = c.App.GitCommitSHA
	m.ServerName = c.App.ServiceName
	if m.FlushTimeout == 0 {
		m.FlushTimeout = 2 * time.Second
	}
	return m
}
