// Package monitoring - sentry.go initializes error tracking.
//
// DESIGN: Sentry is an explicit handle passed to whoever captures events.
// It never touches the SDK's global hub, so tests can build as many
// independent handles as they like.
//
// Without a DSN the handle is disabled: one warning at startup, and every
// capture, span and log-bridge call becomes a no-op.
package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/compresr/flightdesk/internal/config"
)

// Sampling and release defaults.
const (
	ErrorSampleRate            = 1.0
	ProductionTracesSampleRate = 0.1
	DefaultTracesSampleRate    = 1.0
	UnknownRelease             = "unknown"
)

// TracesSampleRate returns the performance sampling rate for an environment.
// Production traffic is sampled at 10%, everything else at 100%.
func TracesSampleRate(environment string) float64 {
	if environment == config.EnvProduction {
		return ProductionTracesSampleRate
	}
	return DefaultTracesSampleRate
}

// Sentry is the error tracking handle.
type Sentry struct {
	hub     *sentry.Hub
	enabled bool

	filter  *EventFilter
	metrics *MetricsCollector
	logger  *Logger

	environment string
	release     string
	tracesRate  float64
}

// Option customizes NewSentry.
type Option func(*sentryOptions)

type sentryOptions struct {
	metrics       *MetricsCollector
	clientOptions []func(*sentry.ClientOptions)
}

// WithMetrics records pre-send filter decisions into mc.
func WithMetrics(mc *MetricsCollector) Option {
	return func(o *sentryOptions) { o.metrics = mc }
}

// WithClientOptions adjusts the SDK options after defaults are applied.
func WithClientOptions(fn func(*sentry.ClientOptions)) Option {
	return func(o *sentryOptions) { o.clientOptions = append(o.clientOptions, fn) }
}

// NewSentry builds the error tracking handle from monitoring settings.
// On error the returned handle is still usable, in disabled mode.
func NewSentry(cfg config.MonitoringConfig, logger *Logger, opts ...Option) (*Sentry, error) {
	var o sentryOptions
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = Nop()
	}

	environment := cfg.Environment
	if environment == "" {
		environment = config.EnvDevelopment
	}
	release := cfg.Release
	if release == "" {
		release = UnknownRelease
	}

	s := &Sentry{
		hub:         sentry.NewHub(nil, sentry.NewScope()),
		filter:      NewEventFilter(environment),
		metrics:     o.metrics,
		logger:      logger,
		environment: environment,
		release:     release,
		tracesRate:  TracesSampleRate(environment),
	}

	if cfg.SentryDSN == "" {
		logger.Warn().
			Str("component", "monitoring").
			Msg("Sentry DSN not configured - error tracking disabled")
		return s, nil
	}

	clientOptions := sentry.ClientOptions{
		Dsn:                   cfg.SentryDSN,
		Debug:                 cfg.SentryDebug,
		Environment:           environment,
		Release:               release,
		ServerName:            cfg.ServerName,
		SampleRate:            ErrorSampleRate,
		EnableTracing:         true,
		TracesSampleRate:      s.tracesRate,
		AttachStacktrace:      true,
		SendDefaultPII:        false,
		BeforeSend:            s.beforeSend,
		BeforeSendTransaction: s.beforeSendTransaction,
	}
	for _, fn := range o.clientOptions {
		fn(&clientOptions)
	}

	client, err := sentry.NewClient(clientOptions)
	if err != nil {
		logger.Error().
			Err(err).
			Str("component", "monitoring").
			Msg("Sentry client init failed - error tracking disabled")
		return s, fmt.Errorf("failed to create sentry client: %w", err)
	}

	s.hub = sentry.NewHub(client, sentry.NewScope())
	s.enabled = true

	logger.Info().
		Str("environment", environment).
		Str("release", release).
		Float64("traces_sample_rate", s.tracesRate).
		Msg("Sentry initialized")

	return s, nil
}

func (s *Sentry) beforeSend(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	return s.applyFilter(EventKindError, event, hint)
}

func (s *Sentry) beforeSendTransaction(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	return s.applyFilter(EventKindTransaction, event, hint)
}

// applyFilter runs the redaction filter and counts its decision under kind.
func (s *Sentry) applyFilter(kind EventKind, event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	out, decision := s.filter.Decide(event, hint)
	s.metrics.RecordFilterDecision(kind, decision)
	return out
}

// Enabled reports whether events are actually sent.
func (s *Sentry) Enabled() bool { return s.enabled }

// Environment returns the environment events are tagged with.
func (s *Sentry) Environment() string { return s.environment }

// Release returns the release events are tagged with.
func (s *Sentry) Release() string { return s.release }

// TracesSampleRate returns the configured performance sampling rate.
func (s *Sentry) TracesSampleRate() float64 { return s.tracesRate }

// Hub returns the base hub. Request handlers should prefer the hub bound to
// their context.
func (s *Sentry) Hub() *sentry.Hub { return s.hub }

// Flush waits up to timeout for queued events to be sent.
func (s *Sentry) Flush(timeout time.Duration) bool {
	if !s.enabled {
		return true
	}
	return s.hub.Flush(timeout)
}

// hubFor returns the request-scoped hub from ctx, falling back to the base hub.
func (s *Sentry) hubFor(ctx context.Context) *sentry.Hub {
	if ctx != nil {
		if hub := sentry.GetHubFromContext(ctx); hub != nil {
			return hub
		}
	}
	return s.hub
}

// bindHub makes sure ctx carries a hub so spans started from it report here.
func (s *Sentry) bindHub(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if sentry.HasHubOnContext(ctx) {
		return ctx
	}
	return sentry.SetHubOnContext(ctx, s.hub)
}
