package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compresr/flightdesk/internal/config"
	"github.com/compresr/flightdesk/internal/smoke"
)

func TestResolveConfig_ExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0600))

	data, source, err := resolveConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, source)
	assert.Contains(t, string(data), "9000")
}

func TestResolveConfig_MissingExplicitFile(t *testing.T) {
	_, _, err := resolveConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestResolveConfig_EmbeddedFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	data, source, err := resolveConfig("")
	require.NoError(t, err)
	assert.Equal(t, "(embedded) config.yaml", source)

	embedded, err := getEmbeddedConfig("config.yaml")
	require.NoError(t, err)
	assert.Equal(t, embedded, data)
}

func TestResolveConfig_PrefersUserConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	dir := filepath.Join(home, ".config", "flightdesk")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("# user\n"), 0600))

	data, source, err := resolveConfig("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), source)
	assert.Equal(t, "# user\n", string(data))
}

func TestEmbeddedConfig_Loads(t *testing.T) {
	for _, key := range []string{"SENTRY_DSN", "APP_ENV", "GIT_COMMIT_SHA", "REDIS_URL", "STORE_TYPE", "LOG_FORMAT", "PORT", "SMOKE_BASE_URL"} {
		t.Setenv(key, "")
	}

	data, err := getEmbeddedConfig("config")
	require.NoError(t, err)

	cfg, err := config.LoadFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, config.EnvDevelopment, cfg.App.Env)
	assert.Equal(t, config.StoreRedis, cfg.Store.Type)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Store.Redis.URL)
	assert.Equal(t, 10, cfg.Server.RateLimit)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTL)
	assert.Equal(t, "", cfg.Monitoring.LogFormat)
	assert.Equal(t, "", cfg.Monitoring.SentryDSN)
	assert.True(t, cfg.Monitoring.MetricsEnabled)
	assert.Equal(t, 2000, cfg.Chat.MaxMessageLength)
	assert.Equal(t, "http://localhost:8000", cfg.Smoke.BaseURL)
}

func TestEmbeddedConfig_RedisURLSwitchesStore(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://cache:6379/1")

	data, err := getEmbeddedConfig("config")
	require.NoError(t, err)

	cfg, err := config.LoadFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, config.StoreRedis, cfg.Store.Type)
	assert.Equal(t, "redis://cache:6379/1", cfg.Store.Redis.URL)
}

func TestEmbeddedConfig_MemoryStoreIsOptIn(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("STORE_TYPE", "memory")

	data, err := getEmbeddedConfig("config")
	require.NoError(t, err)

	cfg, err := config.LoadFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, config.StoreMemory, cfg.Store.Type)
}

func TestDefaultLogFormat(t *testing.T) {
	tests := []struct {
		output   string
		terminal bool
		want     string
	}{
		{"", true, "console"},
		{"stdout", true, "console"},
		{"stdout", false, "json"},
		{"stderr", true, "json"},
		{"/var/log/flightdesk.log", true, "json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, defaultLogFormat(tt.output, tt.terminal), "output=%q terminal=%v", tt.output, tt.terminal)
	}
}

func TestParseSmokeFlags(t *testing.T) {
	defaults := config.SmokeConfig{BaseURL: "http://staging:8000", Timeout: 5 * time.Second, Schedule: "@every 10m"}

	opts, err := parseSmokeFlags(nil, defaults)
	require.NoError(t, err)
	assert.Equal(t, "http://staging:8000", opts.baseURL)
	assert.Equal(t, 5*time.Second, opts.timeout)
	assert.Equal(t, "@every 10m", opts.schedule)
	assert.Equal(t, smoke.DefaultConcurrency, opts.concurrency)
	assert.Empty(t, opts.checks)

	opts, err = parseSmokeFlags([]string{
		"--base-url", "https://prod.example.com",
		"--timeout", "30s",
		"--checks", "liveness, readiness,,",
		"--json",
		"--concurrency", "2",
	}, defaults)
	require.NoError(t, err)
	assert.Equal(t, "https://prod.example.com", opts.baseURL)
	assert.Equal(t, 30*time.Second, opts.timeout)
	assert.Equal(t, []string{"liveness", "readiness"}, opts.checks)
	assert.True(t, opts.json)
	assert.Equal(t, 2, opts.concurrency)
}

func TestParseSmokeFlags_BadFlag(t *testing.T) {
	_, err := parseSmokeFlags([]string{"--nope"}, config.SmokeConfig{})
	assert.Error(t, err)
}
