package binder

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Descriptor identifies the child device a slot binds when present. The
// bus number is logical; the binder applies its own shift to obtain the
// final bus on this particular system.
type Descriptor struct {
	// Type names the device driver, e.g. "24c32" or "dps460".
	Type string `yaml:"type"`
	// Addr is the device address on the bus.
	Addr uint32 `yaml:"addr"`
	// Bus is the logical bus number. Negative means the slot carries no
	// bindable device and transitions are notification-only.
	Bus int `yaml:"bus"`
}

// Bindable reports whether the descriptor refers to an actual device.
func (d Descriptor) Bindable() bool {
	return d.Bus >= 0
}

// Key returns the identity used for duplicate detection.
func (d Descriptor) Key() string {
	return fmt.Sprintf("%s@%d:0x%02x", d.Type, d.Bus, d.Addr)
}

// Handle references one bound device instance.
type Handle struct {
	ID         uuid.UUID
	Descriptor Descriptor
}

// Zero reports whether the handle references nothing. Destroying a zero
// handle is always a no-op.
func (h Handle) Zero() bool {
	return h.ID == uuid.Nil
}

// DeviceBinder creates and destroys bound child devices. Implementations
// may block on bus transactions; the engine calls them outside any lock
// shared with the trigger path.
type DeviceBinder interface {
	Create(ctx context.Context, desc Descriptor) (Handle, error)
	Destroy(ctx context.Context, h Handle) error
}
