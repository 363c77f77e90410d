package regio

import (
	"fmt"
	"sync"

	"github.com/c360/chassmon/errors"
)

// Mem is an in-memory Backend used for simulation and tests. Unknown
// addresses read as an error unless the map was seeded with them, which
// keeps address typos loud instead of silently reading zero.
type Mem struct {
	mu   sync.RWMutex
	regs map[uint32]uint32
}

// NewMem creates a memory backend seeded with the given register values.
func NewMem(seed map[uint32]uint32) *Mem {
	regs := make(map[uint32]uint32, len(seed))
	for addr, v := range seed {
		regs[addr] = v
	}
	return &Mem{regs: regs}
}

// ReadRegister implements Backend.
func (m *Mem) ReadRegister(addr uint32) (uint32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.regs[addr]
	if !ok {
		return 0, fmt.Errorf("0x%02x: %w", addr, errors.ErrUnknownRegister)
	}
	return v, nil
}

// WriteRegister implements Backend. Writes create addresses freely: mask
// and event registers are written before they are ever read.
func (m *Mem) WriteRegister(addr, value uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.regs[addr] = value
	return nil
}

// Set updates a register value directly, bypassing access control. Used
// by simulators to model hardware flipping status bits.
func (m *Mem) Set(addr, value uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.regs[addr] = value
}

// Get reads a register value directly. Returns zero for unknown addresses.
func (m *Mem) Get(addr uint32) uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.regs[addr]
}
