// Package monitoring - metrics.go provides Prometheus counters.
//
// DESIGN: One registry per collector so tests never share global state:
//   - http_requests_total / http_request_duration_seconds by endpoint
//   - sentry_events_total by event kind and pre-send decision
//   - store_operations_total by backend, operation and result
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "flightdesk"

// MetricsCollector collects operational metrics.
type MetricsCollector struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	sentryEvents    *prometheus.CounterVec
	storeOps        *prometheus.CounterVec
}

// NewMetricsCollector creates a collector with its own registry.
func NewMetricsCollector() *MetricsCollector {
	reg := prometheus.NewRegistry()

	mc := &MetricsCollector{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		}, []string{"endpoint", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by endpoint.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		sentryEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sentry_events_total",
			Help:      "Events seen by the Sentry pre-send filter, by kind and decision.",
		}, []string{"kind", "decision"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "store_operations_total",
			Help:      "Session store operations by backend, operation and result.",
		}, []string{"backend", "operation", "result"}),
	}

	reg.MustRegister(mc.requests, mc.requestDuration, mc.sentryEvents, mc.storeOps)
	return mc
}

// RecordRequest records a request.
func (mc *MetricsCollector) RecordRequest(endpoint string, status int, latency time.Duration) {
	if mc == nil {
		return
	}
	mc.requests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	mc.requestDuration.WithLabelValues(endpoint).Observe(latency.Seconds())
}

// RecordFilterDecision records what the pre-send filter did with an event
// of the given kind.
func (mc *MetricsCollector) RecordFilterDecision(kind EventKind, decision FilterDecision) {
	if mc == nil {
		return
	}
	mc.sentryEvents.WithLabelValues(string(kind), string(decision)).Inc()
}

// RecordStoreOp records a session store operation.
func (mc *MetricsCollector) RecordStoreOp(backend Backend, operation string, err error) {
	if mc == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	mc.storeOps.WithLabelValues(string(backend), operation, result).Inc()
}

// Registry exposes the underlying registry.
func (mc *MetricsCollector) Registry() *prometheus.Registry { return mc.registry }

// Handler serves the registry in the Prometheus text format.
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}

// RequestCounter exposes the request counter for tests.
func (mc *MetricsCollector) RequestCounter() *prometheus.CounterVec { return mc.requests }

// SentryEventCounter exposes the filter decision counter for tests.
func (mc *MetricsCollector) SentryEventCounter() *prometheus.CounterVec { return mc.sentryEvents }

// StoreOpCounter exposes the store operation counter for tests.
func (mc *MetricsCollector) StoreOpCounter() *prometheus.CounterVec { return mc.storeOps }
