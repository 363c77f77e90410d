package regio

// RegisterIO is the register access capability consumed by the hotplug
// engine. Reads and writes may block on a bus transaction; callers must
// not hold locks shared with interrupt-path code while calling either.
type RegisterIO interface {
	Read(addr uint32) (uint32, error)
	Write(addr, value uint32) error
}

// Backend is raw device access with no caching or access control.
type Backend interface {
	ReadRegister(addr uint32) (uint32, error)
	WriteRegister(addr, value uint32) error
}

// Default seeds one register's cached value at construction time.
type Default struct {
	Addr  uint32 `yaml:"addr"`
	Value uint32 `yaml:"value"`
}

// AccessTable classifies register addresses. A nil predicate permits
// every address for that classification; volatile defaults to true so an
// empty table degrades to uncached pass-through access.
type AccessTable struct {
	Readable  func(addr uint32) bool
	Writeable func(addr uint32) bool
	Volatile  func(addr uint32) bool
}

func (t AccessTable) readable(addr uint32) bool {
	return t.Readable == nil || t.Readable(addr)
}

func (t AccessTable) writeable(addr uint32) bool {
	return t.Writeable == nil || t.Writeable(addr)
}

func (t AccessTable) volatile(addr uint32) bool {
	return t.Volatile == nil || t.Volatile(addr)
}

// SetAccess builds an AccessTable from explicit address sets. Addresses
// absent from all three sets are rejected on read and write, matching
// the strictness of a hardware register map description.
func SetAccess(readable, writeable, volatile map[uint32]bool) AccessTable {
	return AccessTable{
		Readable:  func(addr uint32) bool { return readable[addr] },
		Writeable: func(addr uint32) bool { return writeable[addr] },
		Volatile:  func(addr uint32) bool { return volatile[addr] },
	}
}
