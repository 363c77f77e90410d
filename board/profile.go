package board

import (
	"fmt"

	"github.com/c360/chassmon/binder"
	"github.com/c360/chassmon/errors"
	"github.com/c360/chassmon/regio"
)

// SlotConfig describes one monitored physical unit within a group. Bit
// is the slot's position in the group's status register; for health
// groups it is the low bit index of the slot's 2-bit health code field.
type SlotConfig struct {
	Label string `yaml:"label"`
	Bit   uint   `yaml:"bit"`

	// CapabilityRegister, when non-zero, names a register whose
	// CapabilityBit reports whether this slot is populated on the
	// running SKU. Absent slots are cleared from the group mask at arm
	// time.
	CapabilityRegister uint32 `yaml:"capability_register,omitempty"`
	CapabilityBit      uint   `yaml:"capability_bit,omitempty"`

	// Device is the child device bound while the slot is present. Nil
	// means transitions are notification-only.
	Device *binder.Descriptor `yaml:"device,omitempty"`
}

// ItemConfig describes a group of slots sharing one status/event/mask
// register triple. The event register sits at status+1 and the mask
// register at status+2; both are derived, never configured.
type ItemConfig struct {
	Name           string `yaml:"name"`
	StatusRegister uint32 `yaml:"status_register"`

	// Mask selects the meaningful bits of the status register.
	Mask uint32 `yaml:"mask"`

	// AggrMask is the bit(s) in the parent aggregation register that
	// summarize this group.
	AggrMask uint32 `yaml:"aggr_mask,omitempty"`

	// CapabilityRegister, when non-zero, reports how many slots the
	// hardware actually populates; CapabilityMask extracts the count.
	// The group mask is narrowed to that many low bits at arm time.
	CapabilityRegister uint32 `yaml:"capability_register,omitempty"`
	CapabilityMask     uint32 `yaml:"capability_mask,omitempty"`

	// Inversed means a set status bit signals absence rather than
	// presence.
	Inversed bool `yaml:"inversed,omitempty"`

	// Health marks the group as carrying 2-bit health codes instead of
	// presence bits.
	Health bool `yaml:"health,omitempty"`

	Slots []SlotConfig `yaml:"slots"`
}

// EventRegister returns the group's event (acknowledge) register.
func (ic ItemConfig) EventRegister() uint32 { return ic.StatusRegister + 1 }

// MaskRegister returns the group's interrupt mask register.
func (ic ItemConfig) MaskRegister() uint32 { return ic.StatusRegister + 2 }

// Profile is the complete register topology of one chassis variant. A
// zero AggrRegister means the board has no top aggregation tier and the
// engine scans every group every cycle (polling mode).
type Profile struct {
	Name string `yaml:"name"`

	AggrRegister uint32 `yaml:"aggr_register,omitempty"`
	AggrMask     uint32 `yaml:"aggr_mask,omitempty"`

	// Low aggregation tier, present on boards that route some sources
	// through a second summary register. Armed and disarmed with the
	// top tier; the detection cycle reads only the top tier.
	LowAggrRegister uint32 `yaml:"low_aggr_register,omitempty"`
	LowAggrMask     uint32 `yaml:"low_aggr_mask,omitempty"`

	// SignalRegister names the doorbell register on boards that raise a
	// backplane signal instead of a true interrupt line. Zero on
	// interrupt-driven boards.
	SignalRegister uint32 `yaml:"signal_register,omitempty"`
	SignalMask     uint32 `yaml:"signal_mask,omitempty"`

	// BusShift offsets logical slot bus numbers onto the system's
	// dynamically numbered buses.
	BusShift int `yaml:"bus_shift,omitempty"`

	Items []ItemConfig `yaml:"items"`
}

// AggrMaskRegister returns the mask register of the top aggregation
// tier. Only meaningful when AggrRegister is non-zero.
func (p Profile) AggrMaskRegister() uint32 { return p.AggrRegister + 1 }

// LowAggrMaskRegister returns the mask register of the low aggregation
// tier. Only meaningful when LowAggrRegister is non-zero.
func (p Profile) LowAggrMaskRegister() uint32 { return p.LowAggrRegister + 1 }

// Polled reports whether the board lacks a top aggregation register and
// must be scanned group-by-group every cycle.
func (p Profile) Polled() bool { return p.AggrRegister == 0 }

// Validate checks the profile for internal consistency. Errors classify
// as invalid.
func (p Profile) Validate() error {
	if p.Name == "" {
		return errors.WrapInvalid(errors.ErrInvalidProfile,
			"board", "Validate", "profile has no name")
	}
	if len(p.Items) == 0 {
		return errors.WrapInvalid(errors.ErrInvalidProfile,
			"board", "Validate", fmt.Sprintf("profile %q has no items", p.Name))
	}
	if p.AggrRegister != 0 && p.AggrMask == 0 {
		return errors.WrapInvalid(errors.ErrInvalidProfile,
			"board", "Validate",
			fmt.Sprintf("profile %q has an aggregation register but no aggregation mask", p.Name))
	}
	if p.LowAggrRegister != 0 && p.LowAggrMask == 0 {
		return errors.WrapInvalid(errors.ErrInvalidProfile,
			"board", "Validate",
			fmt.Sprintf("profile %q has a low aggregation register but no low aggregation mask", p.Name))
	}

	labels := make(map[string]string)
	for _, item := range p.Items {
		if err := p.validateItem(item, labels); err != nil {
			return err
		}
	}
	return nil
}

func (p Profile) validateItem(item ItemConfig, labels map[string]string) error {
	fail := func(format string, args ...any) error {
		return errors.WrapInvalid(errors.ErrInvalidProfile,
			"board", "Validate", fmt.Sprintf(format, args...))
	}

	if item.Name == "" {
		return fail("profile %q contains an unnamed item", p.Name)
	}
	if item.StatusRegister == 0 {
		return fail("item %q has no status register", item.Name)
	}
	if item.Mask == 0 {
		return fail("item %q has an empty group mask", item.Name)
	}
	if p.AggrRegister != 0 && item.AggrMask == 0 {
		return fail("item %q has no aggregation bits on an aggregated board", item.Name)
	}
	if item.CapabilityRegister != 0 && item.CapabilityMask == 0 {
		return fail("item %q has a capability register but no capability mask", item.Name)
	}
	if len(item.Slots) == 0 {
		return fail("item %q has no slots", item.Name)
	}

	for _, slot := range item.Slots {
		if slot.Label == "" {
			return fail("item %q contains an unlabeled slot", item.Name)
		}
		if owner, dup := labels[slot.Label]; dup {
			return fail("slot label %q appears in both %q and %q",
				slot.Label, owner, item.Name)
		}
		labels[slot.Label] = item.Name

		if item.Health {
			// Health slots own a 2-bit code field starting at Bit.
			if (item.Mask>>slot.Bit)&0x3 != 0x3 {
				return fail("slot %q health field at bit %d falls outside item %q mask %#x",
					slot.Label, slot.Bit, item.Name, item.Mask)
			}
		} else if item.Mask&(1<<slot.Bit) == 0 {
			return fail("slot %q bit %d falls outside item %q mask %#x",
				slot.Label, slot.Bit, item.Name, item.Mask)
		}
		if slot.CapabilityRegister != 0 && slot.CapabilityBit > 31 {
			return fail("slot %q capability bit %d out of range",
				slot.Label, slot.CapabilityBit)
		}
	}
	return nil
}

// Defaults returns the power-on values a freshly armed board expects in
// its non-volatile registers: every interrupt mask starts fully masked.
func (p Profile) Defaults() []regio.Default {
	var defs []regio.Default
	if p.AggrRegister != 0 {
		defs = append(defs, regio.Default{Addr: p.AggrMaskRegister(), Value: 0})
	}
	if p.LowAggrRegister != 0 {
		defs = append(defs, regio.Default{Addr: p.LowAggrMaskRegister(), Value: 0})
	}
	for _, item := range p.Items {
		defs = append(defs, regio.Default{Addr: item.MaskRegister(), Value: 0})
	}
	return defs
}
