package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/c360/chassmon/errors"
	"github.com/c360/chassmon/natsclient"
)

// Default subjects for the NATS sink.
const (
	DefaultBroadcastSubject = "chassmon.events.changed"
	DefaultRemoteSubject    = "chassmon.events.slot"
)

// NATSSinkDeps holds dependencies for a NATSSink.
type NATSSinkDeps struct {
	Client           *natsclient.Client
	BroadcastSubject string
	RemoteSubject    string
	Logger           *slog.Logger
}

// NATSSink publishes transition notifications to NATS subjects. The
// broadcast subject carries no payload; the remote subject carries a
// JSON Notification with a monotonic sequence number.
type NATSSink struct {
	client           *natsclient.Client
	broadcastSubject string
	remoteSubject    string
	logger           *slog.Logger
	seq              atomic.Uint32
}

// NewNATSSink creates a NATS-backed sink.
func NewNATSSink(deps NATSSinkDeps) (*NATSSink, error) {
	if deps.Client == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "NATSSink", "NewNATSSink", "client validation")
	}

	broadcast := deps.BroadcastSubject
	if broadcast == "" {
		broadcast = DefaultBroadcastSubject
	}
	remote := deps.RemoteSubject
	if remote == "" {
		remote = DefaultRemoteSubject
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "nats-sink")
	}

	return &NATSSink{
		client:           deps.Client,
		broadcastSubject: broadcast,
		remoteSubject:    remote,
		logger:           logger,
	}, nil
}

// NotifyLocal implements Sink. A failed broadcast is logged and dropped.
func (s *NATSSink) NotifyLocal() {
	if err := s.client.Publish(context.Background(), s.broadcastSubject, nil); err != nil {
		s.logger.Debug("Broadcast dropped", "subject", s.broadcastSubject, "error", err)
	}
}

// NotifyRemote implements Sink.
func (s *NATSSink) NotifyRemote(ctx context.Context, slotID int, label string, present bool) error {
	n := Notification{
		Seq:       s.seq.Add(1),
		SlotID:    slotID,
		Label:     label,
		Present:   present,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(n)
	if err != nil {
		return errors.WrapInvalid(err, "NATSSink", "NotifyRemote", "marshal notification")
	}

	if err := s.client.Publish(ctx, s.remoteSubject, data); err != nil {
		return errors.WrapTransient(err, "NATSSink", "NotifyRemote", "publish notification")
	}

	return nil
}
