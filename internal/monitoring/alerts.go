// Package monitoring - alerts.go flags anomalies and errors.
//
// DESIGN: AlertManager logs notable events at appropriate levels:
//   - FlagHighLatency:  Warn when request exceeds threshold
//   - FlagServerError:  Warn on 5xx responses
//   - FlagStoreFailure: Warn when the session store fails (captured separately)
//   - FlagPanic:        Error on recovered panics
//
// Error-level flags reach Sentry through the log bridge when it is enabled.
package monitoring

import "time"

// AlertManager flags anomalies and errors.
type AlertManager struct {
	logger               *Logger
	highLatencyThreshold time.Duration
}

// NewAlertManager creates a new alert manager.
func NewAlertManager(logger *Logger, cfg AlertConfig) *AlertManager {
	threshold := cfg.HighLatencyThreshold
	if threshold == 0 {
		threshold = 5 * time.Second
	}
	return &AlertManager{logger: logger, highLatencyThreshold: threshold}
}

// FlagHighLatency logs when request latency exceeds threshold.
// Reports whether it flagged.
func (am *AlertManager) FlagHighLatency(requestID string, latency time.Duration, endpoint string) bool {
	if latency < am.highLatencyThreshold {
		return false
	}
	am.logger.Warn().
		Str("request_id", requestID).
		Dur("latency", latency).
		Str("endpoint", endpoint).
		Msg("high_latency")
	return true
}

// FlagServerError logs a 5xx response.
func (am *AlertManager) FlagServerError(requestID, path string, status int) {
	am.logger.Warn().
		Str("request_id", requestID).
		Str("path", path).
		Int("status", status).
		Msg("server_error")
}

// FlagStoreFailure logs a session store failure.
func (am *AlertManager) FlagStoreFailure(requestID string, backend Backend, err error) {
	am.logger.Warn().
		Str("request_id", requestID).
		Str("backend", string(backend)).
		Err(err).
		Msg("store_failed")
}

// FlagPanic logs recovered panic.
func (am *AlertManager) FlagPanic(requestID string, panicValue interface{}, stack string) {
	am.logger.Error().
		Str("request_id", requestID).
		Interface("panic", panicValue).
		Str("stack", stack).
		Msg("panic_recovered")
}
