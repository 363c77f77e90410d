package event

import (
	"context"
	"time"
)

// Notification is the remote event payload for one slot transition.
type Notification struct {
	Seq       uint32    `json:"seq"`
	SlotID    int       `json:"slot_id"`
	Label     string    `json:"label"`
	Present   bool      `json:"present"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink receives presence/health transition notifications from the
// hotplug engine. Implementations must be safe for concurrent use and
// must not block indefinitely; the engine calls them from its single
// worker outside any lock.
type Sink interface {
	// NotifyLocal broadcasts a payload-free change signal.
	NotifyLocal()

	// NotifyRemote delivers a point-to-point transition notification.
	// A missing listener is not an error; delivery is best-effort.
	NotifyRemote(ctx context.Context, slotID int, label string, present bool) error
}

// Nop is a Sink that discards all notifications.
type Nop struct{}

// NotifyLocal implements Sink.
func (Nop) NotifyLocal() {}

// NotifyRemote implements Sink.
func (Nop) NotifyRemote(context.Context, int, string, bool) error { return nil }

// Multi fans notifications out to several sinks. Remote errors are
// collected but only the first is returned; every sink always sees the
// notification.
type Multi []Sink

// NotifyLocal implements Sink.
func (m Multi) NotifyLocal() {
	for _, s := range m {
		s.NotifyLocal()
	}
}

// NotifyRemote implements Sink.
func (m Multi) NotifyRemote(ctx context.Context, slotID int, label string, present bool) error {
	var first error
	for _, s := range m {
		if err := s.NotifyRemote(ctx, slotID, label, present); err != nil && first == nil {
			first = err
		}
	}
	return first
}
