package hotplug

import (
	"context"
	"fmt"
	"time"

	"github.com/c360/chassmon/binder"
	"github.com/c360/chassmon/errors"
)

// dispatchPresence runs the mask/read/diff/acknowledge/unmask sequence
// on one presence item and drives bind/unbind for every changed bit.
func (a *Aggregator) dispatchPresence(ctx context.Context, it *Item) error {
	if err := a.io.Write(it.maskReg, 0); err != nil {
		return err
	}

	v, err := a.io.Read(it.statusReg)
	if err != nil {
		return err
	}
	v &= it.mask

	asserted := it.cache ^ v
	it.cache = v

	for bit := uint(0); bit < 32; bit++ {
		if asserted&(1<<bit) == 0 {
			continue
		}

		s, ok := it.byBit[bit]
		if !ok {
			if it.loggedBadBits&(1<<bit) == 0 {
				it.loggedBadBits |= 1 << bit
				a.logError("slot lookup", errors.WrapInvalid(
					fmt.Errorf("item %s bit %d: %w", it.name, bit, errors.ErrNoSlotForBit),
					"Aggregator", "dispatchPresence", "slot lookup"))
			}
			continue
		}

		if it.effectivePresent(v, bit) {
			a.attach(ctx, s)
		} else {
			a.detach(ctx, s)
		}
	}

	// Acknowledge the event and restore the group mask.
	if err := a.io.Write(it.eventReg, 0); err != nil {
		return err
	}
	return a.io.Write(it.maskReg, it.mask)
}

// dispatchHealth re-evaluates every slot of a health item when the
// masked status word moved at all: multiple health fields can change
// together, so health items do not diff at bit level.
func (a *Aggregator) dispatchHealth(ctx context.Context, it *Item) error {
	if err := a.io.Write(it.maskReg, 0); err != nil {
		return err
	}

	v, err := a.io.Read(it.statusReg)
	if err != nil {
		return err
	}
	v &= it.mask

	if v != it.cache {
		for _, s := range it.slots {
			good := s.healthCode(v) == healthCodeGood
			switch {
			case good && !s.attached:
				a.attach(ctx, s)
			case !good && s.attached:
				// Booting (0b11) and dormant (0b00) are both not-good;
				// only the good boundary drives bind state.
				a.detach(ctx, s)
				s.healthRetries = 0
			}
		}
		it.cache = v
	}

	if err := a.io.Write(it.eventReg, 0); err != nil {
		return err
	}
	return a.io.Write(it.maskReg, it.mask)
}

// attach binds the slot's device, if it declares one, and emits the
// presence notifications. The attached flag reflects the attempted
// state even when the bind fails, so the next edge is the retry rather
// than an endless same-edge loop.
func (a *Aggregator) attach(ctx context.Context, s *Slot) {
	if s.attached {
		return
	}

	if s.desc != nil && s.desc.Bindable() {
		h, err := a.binder.Create(ctx, *s.desc)
		if err != nil {
			a.logBindError(s, "bind", err)
		} else {
			s.handle = h
		}
	}
	s.attached = true

	a.recordTransition(s, true)
	a.notify(ctx, s, true)
}

func (a *Aggregator) detach(ctx context.Context, s *Slot) {
	if !s.attached {
		return
	}

	if err := a.binder.Destroy(ctx, s.handle); err != nil {
		a.logBindError(s, "unbind", err)
	}
	s.handle = binder.Handle{}
	s.attached = false

	a.recordTransition(s, false)
	a.notify(ctx, s, false)
}

func (a *Aggregator) recordTransition(s *Slot, present bool) {
	a.transitions.Add(1)
	a.lastActivity.Store(time.Now())

	if a.pm == nil {
		return
	}
	direction := "absent"
	if present {
		direction = "present"
	}
	a.pm.TransitionsTotal.WithLabelValues(s.item.name, direction).Inc()

	attached := 0
	for _, other := range s.item.slots {
		if other.attached {
			attached++
		}
	}
	a.pm.SlotsAttached.WithLabelValues(s.item.name).Set(float64(attached))
}

// notify fans the transition out to the sink. Emission is gated until
// the first full scan completes so startup does not replay the entire
// chassis as fresh insertions. Delivery failures are logged, never
// propagated.
func (a *Aggregator) notify(ctx context.Context, s *Slot, present bool) {
	a.mu.Lock()
	gated := !a.afterInit
	a.mu.Unlock()
	if gated {
		return
	}

	a.sink.NotifyLocal()
	if a.pm != nil {
		a.pm.NotificationsTotal.WithLabelValues("broadcast").Inc()
	}
	if err := a.sink.NotifyRemote(ctx, s.id, s.label, present); err != nil {
		a.logger.Warn("Remote notification failed",
			"slot", s.label, "present", present, "error", err)
	} else if a.pm != nil {
		a.pm.NotificationsTotal.WithLabelValues("remote").Inc()
	}
}

func (a *Aggregator) logBindError(s *Slot, op string, err error) {
	a.errorCount.Add(1)
	a.lastError.Store(err.Error())
	if a.pm != nil {
		a.pm.BindErrors.Inc()
	}
	a.logger.Error("Device "+op+" failed", "slot", s.label, "error", err)
}

// SlotValue is the point-in-time readout of one slot.
type SlotValue struct {
	Label    string `json:"label"`
	Item     string `json:"item"`
	Health   bool   `json:"health"`
	Present  bool   `json:"present"`
	Code     uint32 `json:"code,omitempty"`
	Good     bool   `json:"good,omitempty"`
	Attached bool   `json:"attached"`
}

// SlotValue reads the slot's status register directly from hardware and
// returns its current effective state: the inversion law for presence
// slots, the extracted 2-bit code for health slots.
func (a *Aggregator) SlotValue(label string) (SlotValue, error) {
	s, ok := a.byLabel[label]
	if !ok {
		return SlotValue{}, errors.WrapInvalid(
			fmt.Errorf("%s: %w", label, errors.ErrUnknownSlot),
			"Aggregator", "SlotValue", "slot lookup")
	}

	// The read happens under the cycle lock so a readout never lands
	// inside a scan's mask window.
	a.cycleMu.Lock()
	defer a.cycleMu.Unlock()

	v, err := a.io.Read(s.item.statusReg)
	if err != nil {
		return SlotValue{}, err
	}
	v &= s.item.mask
	sv := SlotValue{
		Label:    s.label,
		Item:     s.item.name,
		Health:   s.item.health,
		Attached: s.attached,
	}
	if s.item.health {
		sv.Code = s.healthCode(v)
		sv.Good = sv.Code == healthCodeGood
		sv.Present = sv.Good
	} else {
		sv.Present = s.item.effectivePresent(v, s.bit)
	}
	return sv, nil
}

// Slots returns the readout of every configured slot in profile order.
func (a *Aggregator) Slots() ([]SlotValue, error) {
	var out []SlotValue
	for _, it := range a.items {
		for _, s := range it.slots {
			sv, err := a.SlotValue(s.label)
			if err != nil {
				return out, err
			}
			out = append(out, sv)
		}
	}
	return out, nil
}
