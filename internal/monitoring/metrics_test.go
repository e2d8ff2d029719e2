package monitoring_test

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compresr/flightdesk/internal/monitoring"
)

func TestMetricsCollector_Records(t *testing.T) {
	mc := monitoring.NewMetricsCollector()

	mc.RecordRequest("chat.message", 200, 30*time.Millisecond)
	mc.RecordRequest("chat.message", 200, 50*time.Millisecond)
	mc.RecordRequest("chat.message", 422, time.Millisecond)
	mc.RecordFilterDecision(monitoring.EventKindError, monitoring.DecisionScrubbed)
	mc.RecordStoreOp(monitoring.BackendRedis, "get", nil)
	mc.RecordStoreOp(monitoring.BackendRedis, "get", errors.New("down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(mc.RequestCounter().WithLabelValues("chat.message", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.RequestCounter().WithLabelValues("chat.message", "422")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.SentryEventCounter().WithLabelValues("error", "scrubbed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.StoreOpCounter().WithLabelValues("redis", "get", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.StoreOpCounter().WithLabelValues("redis", "get", "error")))
}

func TestMetricsCollector_NilIsSafe(t *testing.T) {
	var mc *monitoring.MetricsCollector
	mc.RecordRequest("x", 200, time.Millisecond)
	mc.RecordFilterDecision(monitoring.EventKindTransaction, monitoring.DecisionDropped)
	mc.RecordStoreOp(monitoring.BackendMemory, "save", nil)
}

func TestMetricsCollector_Handler(t *testing.T) {
	mc := monitoring.NewMetricsCollector()
	mc.RecordRequest("health.live", 200, time.Millisecond)

	srv := httptest.NewServer(mc.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "flightdesk_http_requests_total")
	assert.Contains(t, string(body), `endpoint="health.live"`)
}

func TestAlertManager_HighLatency(t *testing.T) {
	var buf bytes.Buffer
	am := monitoring.NewAlertManager(monitoring.NewWithWriter(&buf, zerolog.DebugLevel), monitoring.AlertConfig{
		HighLatencyThreshold: 100 * time.Millisecond,
	})

	assert.False(t, am.FlagHighLatency("r1", 10*time.Millisecond, "chat.message"))
	assert.Empty(t, buf.String())

	assert.True(t, am.FlagHighLatency("r2", time.Second, "chat.message"))
	assert.Contains(t, buf.String(), "high_latency")
	assert.Contains(t, buf.String(), `"request_id":"r2"`)
}

func TestAlertManager_DefaultThreshold(t *testing.T) {
	am := monitoring.NewAlertManager(monitoring.Nop(), monitoring.AlertConfig{})
	assert.False(t, am.FlagHighLatency("r", 4*time.Second, "x"))
	assert.True(t, am.FlagHighLatency("r", 6*time.Second, "x"))
}
