package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	Board           string
	Registers       string
	NATSURL         string
	HTTPPort        int
	PollInterval    time.Duration
	DeferredArm     bool
	BusShift        int
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	ShowVersion     bool
	ShowHelp        bool
	Validate        bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.Board, "board",
		getEnv("CHASSMON_BOARD", "default"),
		"Board id or profile YAML path (env: CHASSMON_BOARD)")

	flag.StringVar(&cfg.Registers, "regs",
		getEnv("CHASSMON_REGS", ""),
		"Register attribute directory, empty for a simulated backend (env: CHASSMON_REGS)")

	flag.StringVar(&cfg.NATSURL, "nats",
		getEnv("CHASSMON_NATS_URL", ""),
		"NATS server URL, empty to disable remote notifications (env: CHASSMON_NATS_URL)")

	flag.IntVar(&cfg.HTTPPort, "http-port",
		getEnvInt("CHASSMON_HTTP_PORT", 8080),
		"HTTP port for metrics/health/ws, 0 to disable (env: CHASSMON_HTTP_PORT)")

	flag.DurationVar(&cfg.PollInterval, "poll-interval",
		getEnvDuration("CHASSMON_POLL_INTERVAL", 0),
		"Detection poll interval, 0 for board default (env: CHASSMON_POLL_INTERVAL)")

	flag.BoolVar(&cfg.DeferredArm, "deferred-arm",
		getEnvBool("CHASSMON_DEFERRED_ARM", false),
		"Start disarmed and wait for a control message (env: CHASSMON_DEFERRED_ARM)")

	flag.IntVar(&cfg.BusShift, "bus-shift",
		getEnvInt("CHASSMON_BUS_SHIFT", -1),
		"Override the profile's logical bus offset, -1 to keep it (env: CHASSMON_BUS_SHIFT)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("CHASSMON_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: CHASSMON_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("CHASSMON_LOG_FORMAT", "json"),
		"Log format: json, text (env: CHASSMON_LOG_FORMAT)")

	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("CHASSMON_SHUTDOWN_TIMEOUT", 30*time.Second),
		"Graceful shutdown timeout (env: CHASSMON_SHUTDOWN_TIMEOUT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate the board profile and exit")

	flag.Usage = printDetailedHelp

	flag.Parse()
	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.HTTPPort < 0 || cfg.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port: %d", cfg.HTTPPort)
	}

	if cfg.PollInterval < 0 {
		return fmt.Errorf("invalid poll interval: %s", cfg.PollInterval)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Chassis presence/health monitor

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Monitor an msn274x chassis with remote notifications
  %s --board=msn274x --nats=nats://localhost:4222

  # Custom board profile, deferred arming via chassmon.control.arm
  %s --board=/etc/chassmon/lab.yaml --deferred-arm --nats=nats://localhost:4222

  # Validate a profile only
  %s --board=/etc/chassmon/lab.yaml --validate

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
