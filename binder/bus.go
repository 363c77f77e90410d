package binder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/c360/chassmon/errors"
)

// AttachFunc performs the actual bus-level device creation. The bus
// number already includes the binder's shift.
type AttachFunc func(ctx context.Context, bus int, desc Descriptor) error

// DetachFunc performs the actual bus-level device removal.
type DetachFunc func(ctx context.Context, bus int, desc Descriptor) error

// BusBinderDeps holds dependencies for a BusBinder.
type BusBinderDeps struct {
	// ShiftNr is added to every logical bus number. Systems discover the
	// base bus number at startup and all slot descriptors are relative
	// to it.
	ShiftNr int
	Attach  AttachFunc
	Detach  DetachFunc
	Logger  *slog.Logger
}

// BusBinder binds devices behind dynamically numbered buses. It tracks
// live handles so a double create for the same descriptor is rejected
// and a destroy for an unknown or zero handle is a safe no-op.
type BusBinder struct {
	shiftNr int
	attach  AttachFunc
	detach  DetachFunc
	logger  *slog.Logger

	mu   sync.Mutex
	live map[string]Handle
}

// NewBusBinder creates a bus binder. Nil attach/detach hooks make the
// binder bookkeeping-only, which is how notification-only deployments
// and tests run it.
func NewBusBinder(deps BusBinderDeps) *BusBinder {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "bus-binder")
	}

	return &BusBinder{
		shiftNr: deps.ShiftNr,
		attach:  deps.Attach,
		detach:  deps.Detach,
		logger:  logger,
		live:    make(map[string]Handle),
	}
}

// Create binds a new device for the descriptor. A second create without
// an intervening destroy returns ErrAlreadyBound and the original handle
// stays live.
func (b *BusBinder) Create(ctx context.Context, desc Descriptor) (Handle, error) {
	if !desc.Bindable() {
		return Handle{}, errors.WrapInvalid(
			fmt.Errorf("%s: no bus", desc.Type),
			"BusBinder", "Create", "descriptor validation")
	}

	b.mu.Lock()
	if _, ok := b.live[desc.Key()]; ok {
		b.mu.Unlock()
		return Handle{}, errors.WrapInvalid(
			fmt.Errorf("%s: %w", desc.Key(), errors.ErrAlreadyBound),
			"BusBinder", "Create", "duplicate check")
	}
	b.mu.Unlock()

	bus := desc.Bus + b.shiftNr
	if b.attach != nil {
		if err := b.attach(ctx, bus, desc); err != nil {
			return Handle{}, errors.WrapTransient(
				fmt.Errorf("%s at bus %d: %w: %v", desc.Type, bus, errors.ErrBindFailed, err),
				"BusBinder", "Create", "bus attach")
		}
	}

	h := Handle{ID: uuid.New(), Descriptor: desc}

	b.mu.Lock()
	b.live[desc.Key()] = h
	b.mu.Unlock()

	b.logger.Debug("Device bound", "type", desc.Type, "bus", bus, "addr", desc.Addr)
	return h, nil
}

// Destroy removes a bound device. Zero and unknown handles are no-ops.
func (b *BusBinder) Destroy(ctx context.Context, h Handle) error {
	if h.Zero() {
		return nil
	}

	key := h.Descriptor.Key()

	b.mu.Lock()
	live, ok := b.live[key]
	if !ok || live.ID != h.ID {
		b.mu.Unlock()
		return nil
	}
	delete(b.live, key)
	b.mu.Unlock()

	bus := h.Descriptor.Bus + b.shiftNr
	if b.detach != nil {
		if err := b.detach(ctx, bus, h.Descriptor); err != nil {
			return errors.WrapTransient(
				fmt.Errorf("%s at bus %d: %w: %v", h.Descriptor.Type, bus, errors.ErrBindFailed, err),
				"BusBinder", "Destroy", "bus detach")
		}
	}

	b.logger.Debug("Device unbound", "type", h.Descriptor.Type, "bus", bus, "addr", h.Descriptor.Addr)
	return nil
}

// Live returns the number of currently bound devices.
func (b *BusBinder) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.live)
}
