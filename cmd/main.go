// Package main is the entry point for flightdesk.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/compresr/flightdesk/internal/config"
	"github.com/compresr/flightdesk/internal/monitoring"
	"github.com/compresr/flightdesk/internal/tui"
)

// Version is set at build time via ldflags.
var Version = "v0.1.0"

func printBanner() {
	tui.New(os.Stdout).Banner()
}

// loadEnvFiles loads .env from standard locations.
func loadEnvFiles() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		_ = godotenv.Load()
		return
	}

	// ~/.config/flightdesk/.env first
	configEnv := filepath.Join(homeDir, ".config", "flightdesk", ".env")
	if _, err := os.Stat(configEnv); err == nil {
		_ = godotenv.Load(configEnv)
	}

	// Local .env fills anything still unset
	_ = godotenv.Load()
}

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "serve", "start":
		os.Exit(runServe(os.Args[2:]))
	case "smoke":
		os.Exit(runSmoke(os.Args[2:]))
	case "version", "-v", "--version":
		printVersion()
	case "help", "-h", "--help":
		printHelp()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printHelp()
		os.Exit(2)
	}
}

// resolveConfig finds the config to use.
// Checks: user flag -> filesystem locations -> embedded config.
// Returns raw bytes and source description.
func resolveConfig(userConfig string) ([]byte, string, error) {
	if userConfig != "" {
		data, err := os.ReadFile(userConfig)
		if err != nil {
			return nil, "", fmt.Errorf("config file not found: %s", userConfig)
		}
		return data, userConfig, nil
	}

	homeDir, _ := os.UserHomeDir()

	searchPaths := []string{}
	if homeDir != "" {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".config", "flightdesk", "config.yaml"))
	}
	searchPaths = append(searchPaths, "configs/config.yaml")

	for _, path := range searchPaths {
		if data, err := os.ReadFile(path); err == nil {
			return data, path, nil
		}
	}

	data, err := getEmbeddedConfig("config")
	if err != nil {
		return nil, "", fmt.Errorf("no config file found. Specify --config path")
	}
	return data, "(embedded) config.yaml", nil
}

// setupLogging builds the process logger from the monitoring config and
// installs it as the zerolog default. An empty log format picks console
// output on a terminal and JSON otherwise.
func setupLogging(cfg config.MonitoringConfig, debug bool) *monitoring.Logger {
	lc := monitoring.LoggerConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cfg.LogOutput,
	}
	if debug {
		lc.Level = zerolog.DebugLevel.String()
	}
	if lc.Format == "" {
		lc.Format = defaultLogFormat(lc.Output, tui.IsTerminal(os.Stdout))
	}

	logger := monitoring.New(lc)
	monitoring.SetGlobal(logger)
	return logger
}

// defaultLogFormat picks console for interactive stdout, json for everything
// else (files, pipes, containers).
func defaultLogFormat(output string, stdoutIsTerminal bool) string {
	if (output == "" || output == "stdout") && stdoutIsTerminal {
		return "console"
	}
	return "json"
}

func printVersion() {
	fmt.Printf("flightdesk %s\n", Version)
	fmt.Printf("Runtime: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printHelp prints usage information
func printHelp() {
	printBanner()
	fmt.Println("flightdesk - flight-search chat API with error monitoring and smoke checks")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  flightdesk <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve        Start the API server")
	fmt.Println("  smoke        Run the smoke suite against a deployment")
	fmt.Println("  version      Print version information")
	fmt.Println("  help         Show this help message")
	fmt.Println()
	fmt.Println("Server Options:")
	fmt.Println("  flightdesk serve [--config FILE] [--debug] [--no-banner]")
	fmt.Println()
	fmt.Println("Smoke Options:")
	fmt.Println("  flightdesk smoke [--base-url URL] [--timeout D] [--checks a,b] [--schedule SPEC] [--json]")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  flightdesk serve                                   Start with the default config")
	fmt.Println("  flightdesk smoke --base-url https://staging.example.com")
	fmt.Println("  flightdesk smoke --schedule \"@every 5m\"            Re-run every five minutes")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  SENTRY_DSN, APP_ENV, GIT_COMMIT_SHA, REDIS_URL, STORE_TYPE, SMOKE_BASE_URL")
}
