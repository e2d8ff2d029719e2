package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/compresr/flightdesk/internal/api"
	"github.com/compresr/flightdesk/internal/chat"
	"github.com/compresr/flightdesk/internal/config"
	"github.com/compresr/flightdesk/internal/health"
	"github.com/compresr/flightdesk/internal/monitoring"
	"github.com/compresr/flightdesk/internal/session"
)

// storePingTimeout bounds the startup store ping.
const storePingTimeout = 3 * time.Second

// runServe starts the API server and blocks until SIGINT/SIGTERM.
func runServe(args []string) int {
	loadEnvFiles()

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config file")
	debug := fs.Bool("debug", false, "enable debug logging")
	noBanner := fs.Bool("no-banner", false, "suppress startup banner")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if !*noBanner {
		printBanner()
	}

	data, source, err := resolveConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	cfg, err := config.LoadFromBytes(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", source, err)
		return 1
	}

	logger := setupLogging(cfg.Monitoring, *debug)
	logger.Info().
		Str("config", source).
		Str("env", cfg.App.Env).
		Str("version", Version).
		Msg("starting flightdesk")

	var mc *monitoring.MetricsCollector
	if cfg.Monitoring.MetricsEnabled {
		mc = monitoring.NewMetricsCollector()
	}

	// A bad DSN leaves Sentry disabled; the service still starts.
	sentry, err := monitoring.NewSentry(cfg.MonitoringSettings(), logger, monitoring.WithMetrics(mc))
	if err != nil {
		logger.Warn().Err(err).Msg("sentry disabled")
	}
	logger = logger.WithWriter(sentry.LogWriter())
	monitoring.SetGlobal(logger)

	store, err := session.Open(cfg.Store, sentry.RedisHook(), mc)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open session store")
		return 1
	}
	if store.Backend() == monitoring.BackendMemory {
		logger.Warn().Msg("memory session store: readiness reports checks.memory, not checks.redis; use it for local work only")
	}
	pingStore(store, logger)

	checker := health.New(0)
	checker.Register(string(store.Backend()), store.Ping)

	srv := api.New(cfg, api.Deps{
		Chat:    chat.NewService(cfg.Chat, store, nil, sentry, logger),
		Health:  checker,
		Sentry:  sentry,
		Metrics: mc,
		Logger:  logger,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	exit := 0
	if err := runUntilSignal(srv, sigChan, cfg.Server.ShutdownTimeout, logger); err != nil {
		logger.Error().Err(err).Msg("server error")
		exit = 1
	}

	// In-flight requests are drained by now; they may still have used both.
	if err := store.Close(); err != nil {
		logger.Warn().Err(err).Msg("session store close failed")
	}
	sentry.Flush(cfg.MonitoringSettings().FlushTimeout)
	return exit
}

// lifecycle is the part of api.Server that runUntilSignal drives.
type lifecycle interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// runUntilSignal serves until a signal arrives, then shuts down and waits
// for in-flight requests to drain (bounded by timeout) before returning.
// A server that fails to start returns its error right away.
func runUntilSignal(srv lifecycle, sigs <-chan os.Signal, timeout time.Duration, logger *monitoring.Logger) error {
	started := make(chan error, 1)
	go func() { started <- srv.Start() }()

	select {
	case err := <-started:
		return err
	case sig := <-sigs:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	shutdownErr := srv.Shutdown(ctx)
	if err := <-started; err != nil {
		return err
	}
	if shutdownErr != nil {
		return fmt.Errorf("shutdown: %w", shutdownErr)
	}
	return nil
}

// pingStore logs whether the session store is reachable. An unreachable
// store does not stop startup: readiness reports it until it recovers.
func pingStore(store session.Store, logger *monitoring.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), storePingTimeout)
	defer cancel()

	if err := store.Ping(ctx); err != nil {
		logger.Warn().Err(err).Str("backend", string(store.Backend())).Msg("session store unreachable at startup")
		return
	}
	logger.Info().Str("backend", string(store.Backend())).Msg("session store connected")
}
