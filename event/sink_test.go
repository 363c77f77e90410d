package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	local  int
	remote []Notification
	err    error
}

func (r *recordingSink) NotifyLocal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.local++
}

func (r *recordingSink) NotifyRemote(_ context.Context, slotID int, label string, present bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remote = append(r.remote, Notification{SlotID: slotID, Label: label, Present: present})
	return r.err
}

func TestNopSink(t *testing.T) {
	var s Sink = Nop{}
	s.NotifyLocal()
	assert.NoError(t, s.NotifyRemote(context.Background(), 1, "psu1", true))
}

func TestMultiFansOut(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	m := Multi{a, b}

	m.NotifyLocal()
	require.NoError(t, m.NotifyRemote(context.Background(), 2, "fan2", false))

	assert.Equal(t, 1, a.local)
	assert.Equal(t, 1, b.local)
	require.Len(t, a.remote, 1)
	require.Len(t, b.remote, 1)
	assert.Equal(t, "fan2", a.remote[0].Label)
	assert.False(t, a.remote[0].Present)
}

func TestMultiReturnsFirstErrorButNotifiesAll(t *testing.T) {
	first := &recordingSink{err: errors.New("first failure")}
	second := &recordingSink{err: errors.New("second failure")}
	third := &recordingSink{}
	m := Multi{first, second, third}

	err := m.NotifyRemote(context.Background(), 3, "psu3", true)
	require.Error(t, err)
	assert.Equal(t, first.err, err)
	assert.Len(t, third.remote, 1, "later sinks still notified")
}
