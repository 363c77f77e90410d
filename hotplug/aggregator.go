package hotplug

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/chassmon/binder"
	"github.com/c360/chassmon/board"
	"github.com/c360/chassmon/component"
	"github.com/c360/chassmon/errors"
	"github.com/c360/chassmon/event"
	"github.com/c360/chassmon/metric"
	"github.com/c360/chassmon/regio"
)

// notAssertThreshold is the number of consecutive quiescent cycles
// after which a full re-scan of every item is forced. The value is
// empirically tuned on the original hardware; do not re-derive it.
const notAssertThreshold = 3

// defaultPollInterval drives boards without an aggregation interrupt.
const defaultPollInterval = time.Second

// AggregatorDeps holds the dependencies for an Aggregator.
type AggregatorDeps struct {
	Profile board.Profile
	IO      regio.RegisterIO
	Binder  binder.DeviceBinder

	// Sink receives transition notifications. Nil means notifications
	// are discarded.
	Sink event.Sink

	Logger  *slog.Logger
	Metrics *metric.Registry

	// PollInterval nudges the worker periodically. Required for boards
	// without an aggregation register; optional belt-and-braces on
	// interrupt-driven boards. Zero selects the default on polled
	// boards and disables the ticker otherwise.
	PollInterval time.Duration

	// DeferredArm leaves the engine disarmed after Start until an
	// external Arm call arrives.
	DeferredArm bool

	// Presence and WakeupSignal are optional predicates for boards that
	// raise a backplane signal instead of routing everything through an
	// aggregation register; ClearWakeup acknowledges the signal after
	// dispatch. When the profile names a signal register and no hooks
	// are supplied, register-backed hooks are derived from it.
	Presence     func() bool
	WakeupSignal func() bool
	ClearWakeup  func()
}

// Aggregator is the detection engine. It owns the item list and the
// aggregation-level state and runs the cycle described in the package
// documentation.
type Aggregator struct {
	profile board.Profile
	io      regio.RegisterIO
	binder  binder.DeviceBinder
	sink    event.Sink
	logger  *slog.Logger
	pm      *metric.Metrics

	pollInterval time.Duration
	deferredArm  bool

	presence     func() bool
	wakeupSignal func() bool
	clearWakeup  func()

	items   []*Item
	byLabel map[string]*Slot

	// kick collapses concurrent triggers into at most one pending cycle.
	kick chan struct{}

	// cycleMu serializes detection cycles and teardown; it stands in
	// for the single worker and is never taken on the trigger path.
	cycleMu sync.Mutex

	// mu guards only the armed flag and the quiescence bookkeeping
	// consulted by the reschedule-versus-rearm decision.
	mu        sync.Mutex
	armed     bool
	arming    bool
	aggrCache uint32
	quiet     int
	afterInit bool

	// Lifecycle
	state     component.State
	stateMu   sync.RWMutex
	shutdown  chan struct{}
	wg        sync.WaitGroup
	running   atomic.Bool
	startTime time.Time

	errorCount   atomic.Int64
	lastError    atomic.Value // string
	transitions  atomic.Int64
	lastActivity atomic.Value // time.Time
}

var _ component.LifecycleComponent = (*Aggregator)(nil)

// NewAggregator validates the dependencies and builds the engine. The
// profile is copied at construction and immutable afterwards except for
// the capability-driven mask narrowing performed by Arm.
func NewAggregator(deps AggregatorDeps) (*Aggregator, error) {
	if err := deps.Profile.Validate(); err != nil {
		return nil, err
	}
	if deps.IO == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig,
			"Aggregator", "NewAggregator", "register IO validation")
	}
	if deps.Binder == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig,
			"Aggregator", "NewAggregator", "device binder validation")
	}

	sink := deps.Sink
	if sink == nil {
		sink = event.Nop{}
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "hotplug-aggregator", "board", deps.Profile.Name)

	var pm *metric.Metrics
	if deps.Metrics != nil {
		pm = deps.Metrics.Metrics()
	}

	pollInterval := deps.PollInterval
	if pollInterval == 0 && deps.Profile.Polled() {
		pollInterval = defaultPollInterval
	}

	items, byLabel := buildItems(deps.Profile)

	a := &Aggregator{
		profile:      deps.Profile,
		io:           deps.IO,
		binder:       deps.Binder,
		sink:         sink,
		logger:       logger,
		pm:           pm,
		pollInterval: pollInterval,
		deferredArm:  deps.DeferredArm,
		presence:     deps.Presence,
		wakeupSignal: deps.WakeupSignal,
		clearWakeup:  deps.ClearWakeup,
		items:        items,
		byLabel:      byLabel,
		kick:         make(chan struct{}, 1),
		shutdown:     make(chan struct{}),
		state:        component.StateCreated,
	}

	if a.profile.Polled() && a.profile.SignalRegister != 0 {
		if a.wakeupSignal == nil {
			a.wakeupSignal = a.registerWakeup
		}
		if a.clearWakeup == nil {
			a.clearWakeup = a.registerClearWakeup
		}
	}

	a.lastActivity.Store(time.Time{})
	a.lastError.Store("")
	return a, nil
}

// Trigger requests a detection cycle. It is the interrupt-handler
// equivalent: it never blocks, never touches registers, and concurrent
// calls collapse into a single pending cycle.
func (a *Aggregator) Trigger() {
	select {
	case a.kick <- struct{}{}:
	default:
	}
}

// Armed reports whether the engine is currently armed.
func (a *Aggregator) Armed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.armed
}

// Arm prepares the hardware and runs one synchronous cycle to establish
// the initial device bindings: capability registers narrow each item's
// mask to the slots this SKU populates, caches are reset so every
// present slot reports as a transition to present, and both aggregation
// tiers are unmasked.
func (a *Aggregator) Arm(ctx context.Context) error {
	// Claim the arming slot up front so a second concurrent Arm fails
	// here instead of racing through the hardware setup.
	a.mu.Lock()
	if a.armed || a.arming {
		a.mu.Unlock()
		return errors.ErrAlreadyArmed
	}
	a.arming = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.arming = false
		a.mu.Unlock()
	}()

	a.cycleMu.Lock()

	for _, it := range a.items {
		if err := a.narrowMask(it); err != nil {
			a.cycleMu.Unlock()
			return err
		}

		it.cache = it.initialCache()

		// Acknowledge any stale event, then unmask the group.
		if err := a.io.Write(it.eventReg, 0); err != nil {
			a.cycleMu.Unlock()
			return errors.Wrap(err, "Aggregator", "Arm", "event acknowledge")
		}
		if err := a.io.Write(it.maskReg, it.mask); err != nil {
			a.cycleMu.Unlock()
			return errors.Wrap(err, "Aggregator", "Arm", "group unmask")
		}
	}

	if err := a.unmaskAggregation(); err != nil {
		a.cycleMu.Unlock()
		return errors.Wrap(err, "Aggregator", "Arm", "aggregation unmask")
	}

	a.mu.Lock()
	a.armed = true
	a.aggrCache = 0
	// Start at the threshold so the first cycle forces a full scan.
	a.quiet = notAssertThreshold
	a.afterInit = false
	a.mu.Unlock()
	a.cycleMu.Unlock()

	a.runCycle(ctx)

	a.mu.Lock()
	a.afterInit = true
	a.mu.Unlock()

	if a.pm != nil {
		a.pm.MonitorArmed.Set(1)
	}
	a.logger.Info("Monitor armed", "items", len(a.items))
	return nil
}

// Disarm masks both aggregation tiers and every item, waits for any
// in-flight cycle, and destroys every bound device. After Disarm no
// slot remains attached.
func (a *Aggregator) Disarm(ctx context.Context) error {
	a.mu.Lock()
	if !a.armed {
		a.mu.Unlock()
		return errors.ErrNotArmed
	}
	a.armed = false
	a.mu.Unlock()

	a.cycleMu.Lock()
	defer a.cycleMu.Unlock()

	a.maskAggregation()

	for _, it := range a.items {
		if err := a.io.Write(it.maskReg, 0); err != nil {
			a.logError("group mask", err)
		}
		if err := a.io.Write(it.eventReg, 0); err != nil {
			a.logError("event acknowledge", err)
		}
	}

	for _, it := range a.items {
		for _, s := range it.slots {
			if !s.attached {
				continue
			}
			if err := a.binder.Destroy(ctx, s.handle); err != nil {
				a.logError("device destroy", err)
			}
			s.attached = false
			s.handle = binder.Handle{}
			s.healthRetries = 0
		}
		if a.pm != nil {
			a.pm.SlotsAttached.WithLabelValues(it.name).Set(0)
		}
	}

	if a.pm != nil {
		a.pm.MonitorArmed.Set(0)
	}
	a.logger.Info("Monitor disarmed")
	return nil
}

// narrowMask applies the capability registers: the item-level register
// reports how many slots the SKU populates, per-slot capability bits
// knock individual slots out of the mask.
func (a *Aggregator) narrowMask(it *Item) error {
	if it.capReg != 0 {
		v, err := a.io.Read(it.capReg)
		if err != nil {
			return errors.Wrap(err, "Aggregator", "Arm", "capability read")
		}
		n := v & it.capMask
		it.mask = (uint32(1) << n) - 1
	}

	for _, s := range it.slots {
		if s.capReg == 0 {
			continue
		}
		v, err := a.io.Read(s.capReg)
		if err != nil {
			return errors.Wrap(err, "Aggregator", "Arm", "slot capability read")
		}
		if v&(1<<s.capBit) == 0 {
			it.mask &^= 1 << s.bit
		}
	}

	return nil
}

// runCycle executes detection cycles until the engine can safely
// re-arm. When a cycle dispatched anything, edges may have arrived
// while the aggregation interrupt was masked, so the cycle re-runs
// immediately instead of unmasking; the follow-up run sees no assertion
// and unmasks.
func (a *Aggregator) runCycle(ctx context.Context) {
	a.cycleMu.Lock()
	defer a.cycleMu.Unlock()

	for {
		a.mu.Lock()
		armed := a.armed
		a.mu.Unlock()
		if !armed {
			return
		}

		start := time.Now()
		dispatched, err := a.scanOnce(ctx)
		if a.pm != nil {
			a.pm.CyclesTotal.Inc()
			a.pm.CycleDuration.Observe(time.Since(start).Seconds())
		}
		if err != nil {
			// Abort here; the next trigger or tick re-derives state
			// from the diff.
			a.logError("detection cycle", err)
			return
		}

		if a.profile.Polled() {
			return
		}

		a.mu.Lock()
		rearm := a.armed && !dispatched
		a.mu.Unlock()

		if !dispatched {
			if rearm {
				if err := a.unmaskAggregation(); err != nil {
					a.logError("aggregation unmask", err)
				}
			}
			return
		}
	}
}

// scanOnce runs one pass of the detection algorithm. It reports whether
// any item was dispatched; a register I/O failure aborts the pass at
// that point with partial progress kept.
func (a *Aggregator) scanOnce(ctx context.Context) (bool, error) {
	if a.profile.Polled() {
		return a.scanPolled(ctx)
	}

	// Mask the aggregation interrupt before reading so an edge arriving
	// mid-read cannot be acknowledged away.
	if err := a.io.Write(a.profile.AggrMaskRegister(), 0); err != nil {
		return false, err
	}

	v, err := a.io.Read(a.profile.AggrRegister)
	if err != nil {
		return false, err
	}
	v &= a.profile.AggrMask

	a.mu.Lock()
	asserted := a.aggrCache ^ v
	a.aggrCache = v

	forced := a.quiet >= notAssertThreshold
	if forced {
		a.quiet = 0
		asserted = a.profile.AggrMask
	}
	if asserted == 0 {
		a.quiet++
	}
	afterInit := a.afterInit
	a.mu.Unlock()

	// The arm-time seed also routes through the forced branch; only
	// rescans after the initial scan count as recoveries.
	if forced && afterInit && a.pm != nil {
		a.pm.RescansForced.Inc()
	}

	if asserted == 0 {
		return false, nil
	}

	for _, it := range a.items {
		if it.aggrMask&asserted == 0 {
			continue
		}
		if err := a.dispatchItem(ctx, it); err != nil {
			return true, err
		}
	}

	return true, nil
}

// scanPolled services boards without an aggregation register: every
// item is scanned each pass unless the wakeup predicate reports
// nothing changed.
func (a *Aggregator) scanPolled(ctx context.Context) (bool, error) {
	a.mu.Lock()
	forced := a.quiet >= notAssertThreshold
	if forced {
		a.quiet = 0
	}
	afterInit := a.afterInit
	a.mu.Unlock()

	if forced && afterInit && a.pm != nil {
		a.pm.RescansForced.Inc()
	}

	if !forced {
		idle := a.presence != nil && !a.presence()
		if !idle && a.wakeupSignal != nil {
			idle = !a.wakeupSignal()
		}
		if idle {
			if afterInit {
				a.mu.Lock()
				a.quiet++
				a.mu.Unlock()
			}
			return false, nil
		}
	}

	changed := false
	for _, it := range a.items {
		before := it.cache
		if err := a.dispatchItem(ctx, it); err != nil {
			return changed, err
		}
		if it.cache != before {
			changed = true
		}
	}

	if a.clearWakeup != nil {
		a.clearWakeup()
	}

	if !changed && afterInit {
		a.mu.Lock()
		a.quiet++
		a.mu.Unlock()
	}

	return changed, nil
}

func (a *Aggregator) dispatchItem(ctx context.Context, it *Item) error {
	if it.health {
		return a.dispatchHealth(ctx, it)
	}
	return a.dispatchPresence(ctx, it)
}

func (a *Aggregator) unmaskAggregation() error {
	if a.profile.LowAggrRegister != 0 {
		if err := a.io.Write(a.profile.LowAggrMaskRegister(), a.profile.LowAggrMask); err != nil {
			return err
		}
	}
	if a.profile.AggrRegister != 0 {
		return a.io.Write(a.profile.AggrMaskRegister(), a.profile.AggrMask)
	}
	return nil
}

// maskAggregation masks both tiers, low tier first. Failures are logged
// and teardown continues.
func (a *Aggregator) maskAggregation() {
	if a.profile.LowAggrRegister != 0 {
		if err := a.io.Write(a.profile.LowAggrMaskRegister(), 0); err != nil {
			a.logError("low aggregation mask", err)
		}
	}
	if a.profile.AggrRegister != 0 {
		if err := a.io.Write(a.profile.AggrMaskRegister(), 0); err != nil {
			a.logError("aggregation mask", err)
		}
	}
}

// registerWakeup implements the wakeup predicate from the profile's
// signal (doorbell) register.
func (a *Aggregator) registerWakeup() bool {
	v, err := a.io.Read(a.profile.SignalRegister)
	if err != nil {
		a.logError("signal read", err)
		return true
	}
	return v&a.profile.SignalMask != 0
}

func (a *Aggregator) registerClearWakeup() {
	if err := a.io.Write(a.profile.SignalRegister, 0); err != nil {
		a.logError("signal acknowledge", err)
	}
}

func (a *Aggregator) logError(op string, err error) {
	a.errorCount.Add(1)
	a.lastError.Store(err.Error())
	if a.pm != nil && errors.IsTransient(err) {
		a.pm.RegisterIOErrors.Inc()
	}
	a.logger.Error("Engine operation failed", "operation", op, "error", err)
}
