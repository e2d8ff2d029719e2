package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compresr/flightdesk/internal/config"
)

const validYAML = `
server:
  port: 8000
  read_timeout: 15s
  write_timeout: 60s
  rate_limit: 10
app:
  env: staging
  git_commit_sha: abc123
monitoring:
  log_level: debug
  log_format: console
  sentry_dsn: ${TEST_FLIGHTDESK_DSN:-}
store:
  type: memory
  ttl: 1h
`

func TestLoadFromBytes_Valid(t *testing.T) {
	cfg, err := config.LoadFromBytes([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "staging", cfg.App.Env)
	assert.Equal(t, config.StoreMemory, cfg.Store.Type)
	assert.Empty(t, cfg.Monitoring.SentryDSN)
}

func TestLoadFromBytes_Defaults(t *testing.T) {
	cfg, err := config.LoadFromBytes([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultMaxMessageLength, cfg.Chat.MaxMessageLength)
	assert.Equal(t, config.DefaultSmokeBaseURL, cfg.Smoke.BaseURL)
	assert.Equal(t, config.DefaultSmokeTimeout, cfg.Smoke.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoadFromBytes_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_FLIGHTDESK_DSN", "https://key@sentry.example.com/1")

	cfg, err := config.LoadFromBytes([]byte(validYAML))
	require.NoError(t, err)
	assert.Equal(t, "https://key@sentry.example.com/1", cfg.Monitoring.SentryDSN)
}

func TestLoadFromBytes_EnvOverrides(t *testing.T) {
	t.Setenv("SENTRY_DSN", "https://override@sentry.example.com/2")
	t.Setenv("APP_ENV", "production")
	t.Setenv("GIT_COMMIT_SHA", "deadbeef")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")

	cfg, err := config.LoadFromBytes([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "https://override@sentry.example.com/2", cfg.Monitoring.SentryDSN)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "deadbeef", cfg.App.GitCommitSHA)
	assert.Equal(t, config.StoreRedis, cfg.Store.Type)
	assert.Equal(t, "redis://cache:6379/1", cfg.Store.Redis.URL)
}

func TestLoadFromBytes_DefaultEnvironment(t *testing.T) {
	yml := `
server:
  port: 8000
  read_timeout: 1s
  write_timeout: 1s
store:
  type: memory
  ttl: 1h
`
	cfg, err := config.LoadFromBytes([]byte(yml))
	require.NoError(t, err)
	assert.Equal(t, config.EnvDevelopment, cfg.App.Env)
	assert.False(t, cfg.IsProduction())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing port",
			yaml:    "server:\n  read_timeout: 1s\n  write_timeout: 1s\nstore:\n  type: memory\n  ttl: 1h\n",
			wantErr: "server.port is required",
		},
		{
			name:    "port out of range",
			yaml:    "server:\n  port: 70000\n  read_timeout: 1s\n  write_timeout: 1s\nstore:\n  type: memory\n  ttl: 1h\n",
			wantErr: "invalid server.port",
		},
		{
			name:    "missing store type",
			yaml:    "server:\n  port: 80\n  read_timeout: 1s\n  write_timeout: 1s\nstore:\n  ttl: 1h\n",
			wantErr: "store.type is required",
		},
		{
			name:    "unknown store type",
			yaml:    "server:\n  port: 80\n  read_timeout: 1s\n  write_timeout: 1s\nstore:\n  type: etcd\n  ttl: 1h\n",
			wantErr: "invalid store.type",
		},
		{
			name:    "redis without url",
			yaml:    "server:\n  port: 80\n  read_timeout: 1s\n  write_timeout: 1s\nstore:\n  type: redis\n  ttl: 1h\n",
			wantErr: "store.redis.url is required",
		},
		{
			name:    "bad log format",
			yaml:    "server:\n  port: 80\n  read_timeout: 1s\n  write_timeout: 1s\nmonitoring:\n  log_format: xml\nstore:\n  type: memory\n  ttl: 1h\n",
			wantErr: "invalid monitoring.log_format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("REDIS_URL", "")
			_, err := config.LoadFromBytes([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMonitoringSettings_CopiesAppIdentity(t *testing.T) {
	cfg, err := config.LoadFromBytes([]byte(validYAML))
	require.NoError(t, err)

	m := cfg.MonitoringSettings()
	assert.Equal(t, "staging", m.Environment)
	assert.Equal(t, "abc123", m.Release)
	assert.Equal(t, 2*time.Second, m.FlushTimeout)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = config.Load("")
	assert.Error(t, err)
}
