package hotplug

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/c360/chassmon/binder"
	"github.com/c360/chassmon/board"
)

// regOp records one register access in order.
type regOp struct {
	write bool
	addr  uint32
	value uint32
}

// fakeIO is a scripted register map. Unknown addresses read as zero,
// the way pulled-down hardware lines do.
type fakeIO struct {
	mu         sync.Mutex
	regs       map[uint32]uint32
	ops        []regOp
	failReads  map[uint32]error
	failWrites map[uint32]error
}

func newFakeIO() *fakeIO {
	return &fakeIO{
		regs:       make(map[uint32]uint32),
		failReads:  make(map[uint32]error),
		failWrites: make(map[uint32]error),
	}
}

func (f *fakeIO) Read(addr uint32) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failReads[addr]; err != nil {
		return 0, err
	}
	v := f.regs[addr]
	f.ops = append(f.ops, regOp{addr: addr, value: v})
	return v, nil
}

func (f *fakeIO) Write(addr, value uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrites[addr]; err != nil {
		return err
	}
	f.regs[addr] = value
	f.ops = append(f.ops, regOp{write: true, addr: addr, value: value})
	return nil
}

func (f *fakeIO) set(addr, value uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs[addr] = value
}

func (f *fakeIO) opLog() []regOp {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]regOp, len(f.ops))
	copy(out, f.ops)
	return out
}

func (f *fakeIO) resetLog() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = nil
}

// fakeBinder records create/destroy traffic.
type fakeBinder struct {
	mu         sync.Mutex
	creates    []binder.Descriptor
	destroys   []binder.Handle
	failCreate error
}

func (b *fakeBinder) Create(_ context.Context, desc binder.Descriptor) (binder.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failCreate != nil {
		return binder.Handle{}, b.failCreate
	}
	b.creates = append(b.creates, desc)
	return binder.Handle{ID: uuid.New(), Descriptor: desc}, nil
}

func (b *fakeBinder) Destroy(_ context.Context, h binder.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !h.Zero() {
		b.destroys = append(b.destroys, h)
	}
	return nil
}

func (b *fakeBinder) createCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.creates)
}

func (b *fakeBinder) destroyCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.destroys)
}

// remoteNote is one recorded point-to-point notification.
type remoteNote struct {
	slotID  int
	label   string
	present bool
}

type fakeSink struct {
	mu     sync.Mutex
	local  int
	remote []remoteNote
}

func (s *fakeSink) NotifyLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local++
}

func (s *fakeSink) NotifyRemote(_ context.Context, slotID int, label string, present bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remote = append(s.remote, remoteNote{slotID: slotID, label: label, present: present})
	return nil
}

func (s *fakeSink) localCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local
}

func (s *fakeSink) remoteLog() []remoteNote {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]remoteNote, len(s.remote))
	copy(out, s.remote)
	return out
}

// Test register layout: aggregation at 0x3a, one presence group at
// 0x58, optional health group at 0x50.
const (
	tAggr     = 0x3a
	tAggrMask = 0x3b
	tStatus   = 0x58
	tEvent    = 0x59
	tMask     = 0x5a
	tHealth   = 0x50
	tCap      = 0xc6
)

func presenceProfile(inversed bool) board.Profile {
	return board.Profile{
		Name:         "test",
		AggrRegister: tAggr,
		AggrMask:     0x08,
		Items: []board.ItemConfig{{
			Name:           "psu",
			StatusRegister: tStatus,
			Mask:           0x03,
			AggrMask:       0x08,
			Inversed:       inversed,
			Slots: []board.SlotConfig{
				{Label: "psu1", Bit: 0, Device: &binder.Descriptor{Type: "24c02", Bus: 4, Addr: 0x51}},
				{Label: "psu2", Bit: 1, Device: &binder.Descriptor{Type: "24c02", Bus: 4, Addr: 0x50}},
			},
		}},
	}
}

// polledProfile has no aggregation register, so every item is scanned
// each cycle.
func polledProfile(inversed bool) board.Profile {
	p := presenceProfile(inversed)
	p.AggrRegister = 0
	p.AggrMask = 0
	p.Items[0].AggrMask = 0
	return p
}

func healthProfile() board.Profile {
	return board.Profile{
		Name: "test-health",
		Items: []board.ItemConfig{{
			Name:           "asic",
			StatusRegister: tHealth,
			Mask:           0x03,
			Health:         true,
			Slots: []board.SlotConfig{{
				Label:  "asic1",
				Bit:    0,
				Device: &binder.Descriptor{Type: "asic-ctrl", Bus: 2, Addr: 0x48},
			}},
		}},
	}
}
