package regio

import (
	"fmt"
	"sync"

	"github.com/c360/chassmon/errors"
)

// File is a cached register map over a raw Backend. Non-volatile
// registers are read from cache after the first access; volatile
// registers always hit the backend. Writes go to the backend and update
// the cache. A defaults table seeds the cache at construction, and
// MarkDirty/Sync re-applies cached values to hardware, which is the
// bootstrap path after a controller reset.
type File struct {
	backend Backend
	access  AccessTable

	mu    sync.Mutex
	cache map[uint32]uint32
	dirty map[uint32]bool
}

// NewFile creates a register file with the given access table and
// defaults. Defaults for volatile addresses are rejected: a volatile
// register has no meaningful cached value.
func NewFile(backend Backend, access AccessTable, defaults []Default) (*File, error) {
	if backend == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "regio", "NewFile", "backend validation")
	}

	f := &File{
		backend: backend,
		access:  access,
		cache:   make(map[uint32]uint32, len(defaults)),
		dirty:   make(map[uint32]bool),
	}

	for _, d := range defaults {
		if access.volatile(d.Addr) {
			return nil, errors.WrapInvalid(
				fmt.Errorf("default for volatile register 0x%02x", d.Addr),
				"regio", "NewFile", "defaults validation")
		}
		f.cache[d.Addr] = d.Value
	}

	return f, nil
}

// Read returns the register value, from cache for non-volatile addresses.
func (f *File) Read(addr uint32) (uint32, error) {
	if !f.access.readable(addr) {
		return 0, errors.WrapInvalid(
			fmt.Errorf("0x%02x: %w", addr, errors.ErrNotReadable),
			"regio", "Read", "access check")
	}

	if !f.access.volatile(addr) {
		f.mu.Lock()
		v, ok := f.cache[addr]
		f.mu.Unlock()
		if ok {
			return v, nil
		}
	}

	v, err := f.backend.ReadRegister(addr)
	if err != nil {
		return 0, errors.WrapTransient(
			fmt.Errorf("0x%02x: %w: %v", addr, errors.ErrRegisterRead, err),
			"regio", "Read", "backend read")
	}

	if !f.access.volatile(addr) {
		f.mu.Lock()
		f.cache[addr] = v
		f.mu.Unlock()
	}

	return v, nil
}

// Write writes the register value through to the backend.
func (f *File) Write(addr, value uint32) error {
	if !f.access.writeable(addr) {
		return errors.WrapInvalid(
			fmt.Errorf("0x%02x: %w", addr, errors.ErrNotWriteable),
			"regio", "Write", "access check")
	}

	if err := f.backend.WriteRegister(addr, value); err != nil {
		return errors.WrapTransient(
			fmt.Errorf("0x%02x: %w: %v", addr, errors.ErrRegisterWrite, err),
			"regio", "Write", "backend write")
	}

	if !f.access.volatile(addr) {
		f.mu.Lock()
		f.cache[addr] = value
		f.dirty[addr] = false
		f.mu.Unlock()
	}

	return nil
}

// MarkDirty marks every cached register as needing a hardware sync.
func (f *File) MarkDirty() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for addr := range f.cache {
		f.dirty[addr] = true
	}
}

// Sync writes every dirty cached value back to the backend. Writes stop
// at the first failure; already-synced registers stay clean so a retry
// only replays the remainder.
func (f *File) Sync() error {
	f.mu.Lock()
	pending := make([]Default, 0, len(f.dirty))
	for addr, d := range f.dirty {
		if d {
			pending = append(pending, Default{Addr: addr, Value: f.cache[addr]})
		}
	}
	f.mu.Unlock()

	for _, p := range pending {
		if !f.access.writeable(p.Addr) {
			// Read-only defaults exist only to seed the cache.
			f.mu.Lock()
			f.dirty[p.Addr] = false
			f.mu.Unlock()
			continue
		}
		if err := f.backend.WriteRegister(p.Addr, p.Value); err != nil {
			return errors.WrapTransient(
				fmt.Errorf("0x%02x: %w: %v", p.Addr, errors.ErrRegisterWrite, err),
				"regio", "Sync", "backend write")
		}
		f.mu.Lock()
		f.dirty[p.Addr] = false
		f.mu.Unlock()
	}

	return nil
}
