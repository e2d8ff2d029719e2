package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/compresr/flightdesk/internal/config"
	"github.com/compresr/flightdesk/internal/monitoring"
	"github.com/compresr/flightdesk/internal/smoke"
	"github.com/compresr/flightdesk/internal/tui"
)

// smokeOptions holds the resolved smoke command flags.
type smokeOptions struct {
	baseURL     string
	timeout     time.Duration
	schedule    string
	checks      []string
	json        bool
	concurrency int
}

// runSmoke runs the smoke suite once, or on a schedule until interrupted.
func runSmoke(args []string) int {
	loadEnvFiles()

	opts, err := parseSmokeFlags(args, smokeDefaults())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	checks, err := smoke.Select(smoke.DefaultChecks(), opts.checks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	logger := monitoring.New(monitoring.LoggerConfig{
		Level:  "warn",
		Format: defaultLogFormat("stderr", tui.IsTerminal(os.Stderr)),
		Output: "stderr",
	})

	runner := smoke.NewRunner(smoke.NewClient(opts.baseURL, opts.timeout), checks, logger).
		WithConcurrency(opts.concurrency)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	status := tui.New(os.Stderr)

	if opts.schedule == "" {
		status.Step(fmt.Sprintf("running %d checks against %s", len(checks), opts.baseURL))
		report := runner.Run(ctx)
		if err := writeReport(os.Stdout, report, opts.json); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		printSummary(status, report)
		if !report.OK() {
			return 1
		}
		return 0
	}

	scheduler := smoke.NewScheduler(runner, opts.schedule, func(report smoke.Report) {
		if err := writeReport(os.Stdout, report, opts.json); err != nil {
			logger.Error().Err(err).Msg("failed to write smoke report")
		}
		printSummary(status, report)
		if !report.OK() {
			logger.Warn().Int("failed", len(report.Failed())).Str("base_url", report.BaseURL).Msg("smoke run failed")
		}
	}, logger)
	if err := scheduler.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	status.Info(fmt.Sprintf("smoke suite scheduled %q against %s, next run %s",
		opts.schedule, opts.baseURL, scheduler.NextRun().Format(time.RFC3339)))

	<-ctx.Done()
	scheduler.Stop()
	return 0
}

// smokeDefaults reads smoke defaults from the resolved config. A missing or
// invalid config falls back to built-in defaults so the command still works
// from any directory.
func smokeDefaults() config.SmokeConfig {
	defaults := config.SmokeConfig{
		BaseURL: config.DefaultSmokeBaseURL,
		Timeout: config.DefaultSmokeTimeout,
	}
	data, _, err := resolveConfig("")
	if err != nil {
		return defaults
	}
	cfg, err := config.LoadFromBytes(data)
	if err != nil {
		return defaults
	}
	return cfg.Smoke
}

func parseSmokeFlags(args []string, defaults config.SmokeConfig) (smokeOptions, error) {
	fs := flag.NewFlagSet("smoke", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config file for smoke defaults")
	baseURL := fs.String("base-url", "", "deployment under test")
	timeout := fs.Duration("timeout", 0, "per-request timeout")
	schedule := fs.String("schedule", "", "cron schedule, e.g. \"@every 5m\" (empty runs once)")
	checkList := fs.String("checks", "", "comma-separated checks to run (default all)")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	concurrency := fs.Int("concurrency", smoke.DefaultConcurrency, "checks to run at once")
	if err := fs.Parse(args); err != nil {
		return smokeOptions{}, err
	}

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return smokeOptions{}, err
		}
		defaults = cfg.Smoke
	}

	opts := smokeOptions{
		baseURL:     defaults.BaseURL,
		timeout:     defaults.Timeout,
		schedule:    defaults.Schedule,
		json:        *asJSON,
		concurrency: *concurrency,
	}
	if *baseURL != "" {
		opts.baseURL = *baseURL
	}
	if *timeout > 0 {
		opts.timeout = *timeout
	}
	if *schedule != "" {
		opts.schedule = *schedule
	}
	for _, name := range strings.Split(*checkList, ",") {
		if name = strings.TrimSpace(name); name != "" {
			opts.checks = append(opts.checks, name)
		}
	}
	return opts, nil
}

func writeReport(w io.Writer, report smoke.Report, asJSON bool) error {
	if !asJSON {
		report.WriteText(w)
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func printSummary(p *tui.Printer, report smoke.Report) {
	failed := len(report.Failed())
	if failed == 0 {
		p.Success(fmt.Sprintf("all %d checks passed", len(report.Results)))
		return
	}
	p.Error(fmt.Sprintf("%d of %d checks failed", failed, len(report.Results)))
}
