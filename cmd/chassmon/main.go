// Package main implements the entry point for the chassmon daemon.
// Chassmon watches a modular chassis's hotplug register block, binds and
// unbinds device descriptors as field-replaceable units come and go, and
// publishes transition notifications over NATS and WebSocket.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/chassmon/binder"
	"github.com/c360/chassmon/board"
	"github.com/c360/chassmon/event"
	"github.com/c360/chassmon/health"
	"github.com/c360/chassmon/hotplug"
	"github.com/c360/chassmon/metric"
	"github.com/c360/chassmon/natsclient"
	"github.com/c360/chassmon/pkg/retry"
	"github.com/c360/chassmon/regio"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "chassmon"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cfg, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}
	logger := slog.Default()

	profile, err := board.Select(cfg.Board)
	if err != nil {
		return fmt.Errorf("select board profile: %w", err)
	}
	if cfg.BusShift >= 0 {
		profile.BusShift = cfg.BusShift
	}

	if cfg.Validate {
		slog.Info("Board profile is valid",
			"board", profile.Name,
			"items", len(profile.Items),
			"polled", profile.Polled())
		return nil
	}

	ctx := context.Background()

	io, err := setupRegisterIO(cfg, profile, logger)
	if err != nil {
		return err
	}

	registry, err := metric.NewRegistry(logger)
	if err != nil {
		return fmt.Errorf("create metrics registry: %w", err)
	}

	natsClient, sink, wsSink, err := setupSinks(ctx, cfg, registry, logger)
	if err != nil {
		return err
	}
	if natsClient != nil {
		defer func() { _ = natsClient.Close(ctx) }()
	}
	defer wsSink.Close()

	agg, err := hotplug.NewAggregator(hotplug.AggregatorDeps{
		Profile: profile,
		IO:      io,
		Binder: binder.NewBusBinder(binder.BusBinderDeps{
			ShiftNr: profile.BusShift,
			Logger:  logger,
		}),
		Sink:         sink,
		Logger:       logger,
		Metrics:      registry,
		PollInterval: cfg.PollInterval,
		DeferredArm:  cfg.DeferredArm,
	})
	if err != nil {
		return fmt.Errorf("create aggregator: %w", err)
	}

	if err := agg.Initialize(); err != nil {
		return fmt.Errorf("initialize aggregator: %w", err)
	}

	if natsClient != nil {
		if err := subscribeControl(ctx, natsClient, agg); err != nil {
			return err
		}
	}

	httpServer := setupHTTPServer(cfg, registry, agg, wsSink, logger)

	return runWithSignalHandling(ctx, cfg, agg, httpServer)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, bool, error) {
	cfg := parseFlags()
	if err := validateFlags(cfg); err != nil {
		return nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, true, nil
	}

	if cfg.ShowHelp {
		printDetailedHelp()
		return nil, true, nil
	}

	setupLogger(cfg)

	slog.Info("Starting chassmon (chassis hotplug monitor)",
		"version", Version,
		"build_time", BuildTime,
		"board", cfg.Board)

	return cfg, false, nil
}

// setupRegisterIO builds the cached register file over the configured
// backend. With no register directory the monitor runs against a
// simulated chassis seeded from the profile's capability defaults,
// which is only useful for development.
func setupRegisterIO(cfg *CLIConfig, p board.Profile, logger *slog.Logger) (regio.RegisterIO, error) {
	var backend regio.Backend
	if cfg.Registers != "" {
		sysfs, err := regio.NewSysfs(cfg.Registers)
		if err != nil {
			return nil, fmt.Errorf("open register directory: %w", err)
		}
		backend = sysfs
	} else {
		logger.Warn("No register directory configured, using simulated backend")
		backend = regio.NewMem(simulatedRegisters(p))
	}

	io, err := regio.NewFile(backend, p.Access(), p.Defaults())
	if err != nil {
		return nil, fmt.Errorf("create register file: %w", err)
	}
	return io, nil
}

// simulatedRegisters seeds an empty chassis: every status register reads
// zero and capability registers advertise the full slot count.
func simulatedRegisters(p board.Profile) map[uint32]uint32 {
	regs := make(map[uint32]uint32)
	if p.AggrRegister != 0 {
		regs[p.AggrRegister] = 0
	}
	if p.LowAggrRegister != 0 {
		regs[p.LowAggrRegister] = 0
	}
	if p.SignalRegister != 0 {
		regs[p.SignalRegister] = 0
	}
	for _, it := range p.Items {
		regs[it.StatusRegister] = 0
		regs[it.EventRegister()] = 0
		if it.CapabilityRegister != 0 {
			regs[it.CapabilityRegister] = 0xff
		}
		for _, s := range it.Slots {
			if s.CapabilityRegister != 0 {
				regs[s.CapabilityRegister] = 0xff
			}
		}
	}
	return regs
}

// setupSinks builds the notification fan-out. The WebSocket sink is
// always present; the NATS sink joins it when a server URL was given.
func setupSinks(
	ctx context.Context,
	cfg *CLIConfig,
	registry *metric.Registry,
	logger *slog.Logger,
) (*natsclient.Client, event.Sink, *event.WebSocketSink, error) {
	wsSink := event.NewWebSocketSink(logger)
	sinks := event.Multi{wsSink}

	if cfg.NATSURL == "" {
		slog.Info("NATS disabled, notifications are local only")
		return nil, sinks, wsSink, nil
	}

	client, err := natsclient.NewClient(cfg.NATSURL,
		natsclient.WithName(appName),
		natsclient.WithLogger(logger))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create NATS client: %w", err)
	}

	if m := registry.Metrics(); m != nil {
		client.OnHealthChange(func(healthy bool) {
			if healthy {
				m.NATSConnected.Set(1)
			} else {
				m.NATSConnected.Set(0)
			}
		})
	}

	slog.Info("Connecting to NATS", "url", cfg.NATSURL)
	if err := retry.Do(ctx, retry.DefaultConfig(), func() error {
		return client.Connect(ctx)
	}); err != nil {
		return nil, nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	natsSink, err := event.NewNATSSink(event.NATSSinkDeps{
		Client: client,
		Logger: logger,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create NATS sink: %w", err)
	}

	return client, append(sinks, natsSink), wsSink, nil
}

// subscribeControl wires the runtime control subjects. Arm and disarm
// drive the detection lifecycle; trigger nudges the worker the way a
// wired interrupt line would.
func subscribeControl(ctx context.Context, client *natsclient.Client, agg *hotplug.Aggregator) error {
	subs := map[string]func(context.Context, []byte){
		"chassmon.control.arm": func(ctx context.Context, _ []byte) {
			if err := agg.Arm(ctx); err != nil {
				slog.Error("Arm request failed", "error", err)
			}
		},
		"chassmon.control.disarm": func(ctx context.Context, _ []byte) {
			if err := agg.Disarm(ctx); err != nil {
				slog.Error("Disarm request failed", "error", err)
			}
		},
		"chassmon.control.trigger": func(_ context.Context, _ []byte) {
			agg.Trigger()
		},
	}

	for subject, handler := range subs {
		if err := client.Subscribe(ctx, subject, handler); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
	}
	return nil
}

// setupHTTPServer builds the observability surface: Prometheus metrics,
// aggregate health, live slot readout and the WebSocket change feed.
func setupHTTPServer(
	cfg *CLIConfig,
	registry *metric.Registry,
	agg *hotplug.Aggregator,
	wsSink *event.WebSocketSink,
	logger *slog.Logger,
) *http.Server {
	if cfg.HTTPPort == 0 {
		return nil
	}

	monitor := health.NewMonitor()

	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	mux.Handle("/healthz", refreshingHealthHandler(monitor, agg))
	mux.Handle("/ws", wsSink)
	mux.HandleFunc("/slots", func(w http.ResponseWriter, _ *http.Request) {
		slots, err := agg.Slots()
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(slots); err != nil {
			logger.Error("Failed to encode slot readout", "error", err)
		}
	})

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// refreshingHealthHandler recomputes component and per-slot health on
// each request before delegating to the standard health endpoint.
func refreshingHealthHandler(monitor *health.Monitor, agg *hotplug.Aggregator) http.Handler {
	inner := health.Handler(monitor, appName)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		monitor.Update("aggregator", health.FromComponentHealth("aggregator", agg.Health()))
		if slots, err := agg.Slots(); err == nil {
			for _, sv := range slots {
				monitor.Update("slot:"+sv.Label, health.FromSlot(sv))
			}
		}
		inner.ServeHTTP(w, r)
	})
}

// runWithSignalHandling starts the aggregator and HTTP server, then
// blocks until a shutdown signal arrives.
func runWithSignalHandling(
	ctx context.Context,
	cfg *CLIConfig,
	agg *hotplug.Aggregator,
	httpServer *http.Server,
) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := agg.Start(signalCtx); err != nil {
		return fmt.Errorf("start aggregator: %w", err)
	}

	if httpServer != nil {
		go func() {
			slog.Info("HTTP server listening", "addr", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("HTTP server failed", "error", err)
			}
		}()
	}

	slog.Info("Chassmon started successfully",
		"armed", agg.Armed(),
		"deferred_arm", cfg.DeferredArm)

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown failed", "error", err)
		}
	}

	if err := agg.Stop(cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("Chassmon shutdown complete")
	return nil
}
