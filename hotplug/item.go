package hotplug

import (
	"github.com/c360/chassmon/binder"
	"github.com/c360/chassmon/board"
)

// 2-bit health codes carried by health items.
const (
	healthCodeMask uint32 = 0x3
	healthCodeGood uint32 = 0x2
)

// Slot is the runtime state of one monitored physical unit.
type Slot struct {
	id    int
	label string
	bit   uint

	capReg uint32
	capBit uint

	desc *binder.Descriptor

	item *Item

	// Mutated only by the engine's dispatch step.
	attached      bool
	handle        binder.Handle
	healthRetries int
}

// Label returns the slot's configured label.
func (s *Slot) Label() string { return s.label }

// ID returns the slot's engine-wide numeric id.
func (s *Slot) ID() int { return s.id }

// Attached reports whether the slot currently holds a bound device (or,
// for bindless slots, whether it was last seen present/healthy).
func (s *Slot) Attached() bool { return s.attached }

// healthCode extracts the slot's 2-bit health code from a masked status
// word.
func (s *Slot) healthCode(status uint32) uint32 {
	return (status >> s.bit) & healthCodeMask
}

// Item is the runtime state of one slot group.
type Item struct {
	name      string
	statusReg uint32
	eventReg  uint32
	maskReg   uint32
	aggrMask  uint32

	capReg  uint32
	capMask uint32

	inversed bool
	health   bool

	// mask starts as the configured group mask and is narrowed once at
	// arm time from the capability registers.
	mask  uint32
	cache uint32

	slots []*Slot
	byBit map[uint]*Slot

	// Bits already reported as having no configured slot, so the
	// configuration error is logged once rather than every cycle.
	loggedBadBits uint32
}

// Name returns the item's configured group name.
func (it *Item) Name() string { return it.name }

// Slots returns the item's slots in configuration order.
func (it *Item) Slots() []*Slot { return it.slots }

// effectivePresent applies the inversion law: for inversed items a set
// status bit signals absence.
func (it *Item) effectivePresent(status uint32, bit uint) bool {
	raw := status&(1<<bit) != 0
	return raw != it.inversed
}

// initialCache is the cache value an armed item starts from: "every
// slot absent", so the first scan reports each present slot as a
// transition to present.
func (it *Item) initialCache() uint32 {
	if it.inversed {
		return it.mask
	}
	return 0
}

func newItem(cfg board.ItemConfig, nextID *int) *Item {
	it := &Item{
		name:      cfg.Name,
		statusReg: cfg.StatusRegister,
		eventReg:  cfg.EventRegister(),
		maskReg:   cfg.MaskRegister(),
		aggrMask:  cfg.AggrMask,
		capReg:    cfg.CapabilityRegister,
		capMask:   cfg.CapabilityMask,
		inversed:  cfg.Inversed,
		health:    cfg.Health,
		mask:      cfg.Mask,
		byBit:     make(map[uint]*Slot, len(cfg.Slots)),
	}

	for _, sc := range cfg.Slots {
		*nextID++
		s := &Slot{
			id:     *nextID,
			label:  sc.Label,
			bit:    sc.Bit,
			capReg: sc.CapabilityRegister,
			capBit: sc.CapabilityBit,
			item:   it,
		}
		if sc.Device != nil {
			d := *sc.Device
			s.desc = &d
		}
		it.slots = append(it.slots, s)
		it.byBit[s.bit] = s
	}

	return it
}

func buildItems(p board.Profile) ([]*Item, map[string]*Slot) {
	var items []*Item
	byLabel := make(map[string]*Slot)

	nextID := 0
	for _, cfg := range p.Items {
		it := newItem(cfg, &nextID)
		items = append(items, it)
		for _, s := range it.slots {
			byLabel[s.label] = s
		}
	}

	return items, byLabel
}
