// Package monitoring - types.go defines shared types.
//
// DESIGN: These types are used by the api, chat and session packages as well
// as by monitoring itself. Defined here ONCE to avoid circular imports.
//
// TYPES:
//   - Backend:            Identifies an infrastructure dependency
//   - FilterDecision:     Outcome of the pre-send filter
//   - EventKind:          Error event or performance transaction
//   - Config types:       LoggerConfig, AlertConfig
package monitoring

import "time"

// =============================================================================
// BACKENDS - Infrastructure the service talks to
// =============================================================================

// Backend identifies an infrastructure dependency.
type Backend string

const (
	BackendRedis  Backend = "redis"
	BackendMemory Backend = "memory"
)

// =============================================================================
// FILTER DECISIONS - Recorded per event passing the pre-send hook
// =============================================================================

// FilterDecision is what the pre-send filter did with an event.
type FilterDecision string

const (
	DecisionDropped  FilterDecision = "dropped"
	DecisionScrubbed FilterDecision = "scrubbed"
	DecisionPassed   FilterDecision = "passed"
)

// EventKind separates error events from transactions in filter metrics.
type EventKind string

const (
	EventKindError       EventKind = "error"
	EventKindTransaction EventKind = "transaction"
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

// LoggerConfig contains logging configuration.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	Output string `yaml:"output"` // stdout, stderr, or file path
}

// AlertConfig contains alert thresholds.
type AlertConfig struct {
	HighLatencyThreshold time.Duration `yaml:"high_latency_threshold"`
}
