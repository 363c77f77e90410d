package board

import (
	"github.com/c360/chassmon/regio"
)

// Access derives the register access table a profile implies. Status,
// event and aggregation registers are volatile; mask registers and
// capability registers are cacheable. Event registers are writeable for
// acknowledgement only.
func (p Profile) Access() regio.AccessTable {
	readable := make(map[uint32]bool)
	writeable := make(map[uint32]bool)
	volatile := make(map[uint32]bool)

	addTier := func(reg uint32) {
		readable[reg] = true
		volatile[reg] = true
		readable[reg+1] = true
		writeable[reg+1] = true
	}

	if p.AggrRegister != 0 {
		addTier(p.AggrRegister)
	}
	if p.LowAggrRegister != 0 {
		addTier(p.LowAggrRegister)
	}
	if p.SignalRegister != 0 {
		readable[p.SignalRegister] = true
		writeable[p.SignalRegister] = true
		volatile[p.SignalRegister] = true
	}

	for _, item := range p.Items {
		readable[item.StatusRegister] = true
		volatile[item.StatusRegister] = true

		readable[item.EventRegister()] = true
		writeable[item.EventRegister()] = true
		volatile[item.EventRegister()] = true

		readable[item.MaskRegister()] = true
		writeable[item.MaskRegister()] = true

		if item.CapabilityRegister != 0 {
			readable[item.CapabilityRegister] = true
		}
		for _, slot := range item.Slots {
			if slot.CapabilityRegister != 0 {
				readable[slot.CapabilityRegister] = true
			}
		}
	}

	return regio.SetAccess(readable, writeable, volatile)
}
