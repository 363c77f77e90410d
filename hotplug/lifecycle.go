package hotplug

import (
	"context"
	"time"

	"github.com/c360/chassmon/component"
	"github.com/c360/chassmon/errors"
)

// Initialize moves the engine to the initialized state. Hardware is not
// touched until Arm.
func (a *Aggregator) Initialize() error {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()

	if a.state != component.StateCreated {
		return errors.WrapInvalid(
			errors.ErrAlreadyStarted,
			"Aggregator", "Initialize", "state check")
	}
	a.state = component.StateInitialized
	return nil
}

// Start launches the worker and, unless the engine was built with
// DeferredArm, arms the hardware. The context is the owner's shutdown
// signal; it is passed to the worker, never stored.
func (a *Aggregator) Start(ctx context.Context) error {
	a.stateMu.Lock()
	if a.state != component.StateInitialized {
		a.stateMu.Unlock()
		return errors.WrapInvalid(
			errors.ErrNotStarted,
			"Aggregator", "Start", "state check")
	}
	a.state = component.StateStarted
	a.startTime = time.Now()
	a.stateMu.Unlock()

	a.running.Store(true)
	a.wg.Add(1)
	go a.worker(ctx)

	if a.deferredArm {
		a.logger.Info("Started disarmed, waiting for external arm")
		return nil
	}

	if err := a.Arm(ctx); err != nil {
		a.stateMu.Lock()
		a.state = component.StateFailed
		a.stateMu.Unlock()
		return errors.Wrap(err, "Aggregator", "Start", "arming")
	}
	return nil
}

// Stop disarms the engine and waits for the worker to exit, bounded by
// the timeout.
func (a *Aggregator) Stop(timeout time.Duration) error {
	a.stateMu.Lock()
	if a.state != component.StateStarted {
		a.stateMu.Unlock()
		return errors.WrapInvalid(
			errors.ErrNotStarted,
			"Aggregator", "Stop", "state check")
	}
	a.state = component.StateStopped
	a.stateMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.Disarm(ctx); err != nil && !errors.Is(err, errors.ErrNotArmed) {
		a.logger.Error("Disarm during stop failed", "error", err)
	}

	a.running.Store(false)
	close(a.shutdown)

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("Monitor stopped")
		return nil
	case <-ctx.Done():
		return errors.WrapTransient(
			ctx.Err(), "Aggregator", "Stop", "worker shutdown")
	}
}

// worker drains trigger requests and, when configured, the poll ticker.
func (a *Aggregator) worker(ctx context.Context) {
	defer a.wg.Done()

	var tick <-chan time.Time
	if a.pollInterval > 0 {
		ticker := time.NewTicker(a.pollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.shutdown:
			return
		case <-a.kick:
			a.runCycle(ctx)
		case <-tick:
			a.runCycle(ctx)
		}
	}
}

// Meta implements component.Discoverable.
func (a *Aggregator) Meta() component.Metadata {
	return component.Metadata{
		Name:        "hotplug-aggregator",
		Type:        "monitor",
		Description: "Chassis presence/health detection engine for board " + a.profile.Name,
		Version:     "1.0.0",
	}
}

// Health implements component.Discoverable.
func (a *Aggregator) Health() component.HealthStatus {
	a.stateMu.RLock()
	started := a.state == component.StateStarted
	startTime := a.startTime
	a.stateMu.RUnlock()

	var uptime time.Duration
	if started {
		uptime = time.Since(startTime)
	}

	lastErr, _ := a.lastError.Load().(string)
	return component.HealthStatus{
		Healthy:    started && a.running.Load(),
		LastCheck:  time.Now(),
		ErrorCount: int(a.errorCount.Load()),
		LastError:  lastErr,
		Uptime:     uptime,
	}
}

// DataFlow implements component.Discoverable.
func (a *Aggregator) DataFlow() component.FlowMetrics {
	a.stateMu.RLock()
	startTime := a.startTime
	a.stateMu.RUnlock()

	var perSecond, errorRate float64
	if elapsed := time.Since(startTime).Seconds(); !startTime.IsZero() && elapsed > 0 {
		perSecond = float64(a.transitions.Load()) / elapsed
		errorRate = float64(a.errorCount.Load()) / elapsed
	}

	last, _ := a.lastActivity.Load().(time.Time)
	return component.FlowMetrics{
		EventsPerSecond: perSecond,
		ErrorRate:       errorRate,
		LastActivity:    last,
	}
}
