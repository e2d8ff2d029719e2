// Package api serves the flightdesk HTTP API.
//
// ROUTES:
//   - GET  /health/live           Liveness probe
//   - GET  /health/ready          Readiness probe (session store reachability)
//   - POST /api/v1/chat/message   Chat message
//   - GET  /metrics               Prometheus metrics (when enabled)
//
// Every route is instrumented under a logical endpoint name so traces and
// metrics group by route, not by raw URL.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/compresr/flightdesk/internal/chat"
	"github.com/compresr/flightdesk/internal/config"
	"github.com/compresr/flightdesk/internal/health"
	"github.com/compresr/flightdesk/internal/monitoring"
)

// Endpoint names used for transactions and metrics.
const (
	EndpointLive      = "health.live"
	EndpointReady     = "health.ready"
	EndpointChat      = "chat.message"
	EndpointMetrics   = "metrics"
	EndpointUnmatched = "unmatched"
)

// Deps are the collaborators a Server needs.
type Deps struct {
	Chat    *chat.Service
	Health  *health.Checker
	Sentry  *monitoring.Sentry
	Metrics *monitoring.MetricsCollector // nil disables /metrics
	Logger  *monitoring.Logger
}

// Server is the HTTP API server.
type Server struct {
	cfg           *config.Config
	chat          *chat.Service
	health        *health.Checker
	sentry        *monitoring.Sentry
	metrics       *monitoring.MetricsCollector
	logger        *monitoring.Logger
	requestLogger *monitoring.RequestLogger
	alerts        *monitoring.AlertManager
	rateLimiter   *rateLimiter
	handler       http.Handler

	mu         sync.Mutex
	httpServer *http.Server
}

// New builds the server and its handler chain.
func New(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = monitoring.Nop()
	}
	s := &Server{
		cfg:           cfg,
		chat:          deps.Chat,
		health:        deps.Health,
		sentry:        deps.Sentry,
		metrics:       deps.Metrics,
		logger:        logger,
		requestLogger: monitoring.NewRequestLogger(logger),
		alerts: monitoring.NewAlertManager(logger, monitoring.AlertConfig{
			HighLatencyThreshold: cfg.Monitoring.HighLatencyThreshold,
		}),
	}
	if s.health == nil {
		s.health = health.New(0)
	}
	if cfg.Server.RateLimit > 0 {
		s.rateLimiter = newRateLimiter(cfg.Server.RateLimit)
	}
	s.handler = s.setupRoutes()
	return s
}

// Handler returns the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

// setupRoutes registers routes and wraps them in the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, http.MethodGet, "/health/live", EndpointLive, s.health.LivenessHandler())
	s.route(mux, http.MethodGet, "/health/ready", EndpointReady, s.health.ReadinessHandler())
	s.route(mux, http.MethodPost, "/api/v1/chat/message", EndpointChat, http.HandlerFunc(s.handleChatMessage))
	if s.metrics != nil && s.cfg.Monitoring.MetricsEnabled {
		s.route(mux, http.MethodGet, "/metrics", EndpointMetrics, s.metrics.Handler())
	}
	mux.Handle("/", s.instrument(EndpointUnmatched, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})))

	var handler http.Handler = mux
	handler = s.security(handler)
	handler = s.rateLimit(handler)
	handler = s.loggingMiddleware(handler)
	handler = s.panicRecovery(handler)
	return handler
}

// route registers h for method on path, and a JSON 405 for any other method.
func (s *Server) route(mux *http.ServeMux, method, path, endpoint string, h http.Handler) {
	mux.Handle(method+" "+path, s.instrument(endpoint, h))
	mux.Handle(path, s.instrument(endpoint, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allow := method
		if method == http.MethodGet {
			allow += ", " + http.MethodHead
		}
		w.Header().Set("Allow", allow)
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})))
}

// instrument wraps h with Sentry endpoint tracking, metrics and alerts.
func (s *Server) instrument(endpoint string, h http.Handler) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(sw, r)
		latency := time.Since(start)

		requestID := monitoring.RequestIDFromContext(r.Context())
		s.metrics.RecordRequest(endpoint, sw.status, latency)
		s.alerts.FlagHighLatency(requestID, latency, endpoint)
		if monitoring.IsFailedStatus(sw.status) {
			s.alerts.FlagServerError(requestID, r.URL.Path, sw.status)
		}
	})
	if s.sentry == nil {
		return inner
	}
	return s.sentry.InstrumentEndpoint(endpoint, inner)
}

// Start listens on the configured port and blocks until the server stops.
// Returns nil after a clean Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("api server listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.close()
	}

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info().Msg("api server stopped")
	return nil
}
