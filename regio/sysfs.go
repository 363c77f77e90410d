package regio

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/c360/chassmon/errors"
)

// Sysfs is a Backend over a directory of register attribute files, one
// file per register named by hex address (e.g. "0x3a"). Platform
// management controllers commonly expose their register space this way.
// Values are parsed with base auto-detection so both "0x2" and "2" work.
type Sysfs struct {
	root string
}

// NewSysfs creates a sysfs-style backend rooted at dir.
func NewSysfs(dir string) (*Sysfs, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Sysfs", "NewSysfs", "stat register directory")
	}
	if !info.IsDir() {
		return nil, errors.WrapInvalid(errors.ErrUnknownRegister,
			"Sysfs", "NewSysfs", fmt.Sprintf("%s is not a directory", dir))
	}
	return &Sysfs{root: dir}, nil
}

func (s *Sysfs) path(addr uint32) string {
	return filepath.Join(s.root, fmt.Sprintf("0x%02x", addr))
}

// ReadRegister implements Backend.
func (s *Sysfs) ReadRegister(addr uint32) (uint32, error) {
	raw, err := os.ReadFile(s.path(addr))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("0x%02x: %w", addr, errors.ErrUnknownRegister)
		}
		return 0, errors.WrapTransient(err, "Sysfs", "ReadRegister", "read attribute")
	}

	v, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 0, 32)
	if err != nil {
		return 0, errors.WrapInvalid(err, "Sysfs", "ReadRegister",
			fmt.Sprintf("parse attribute 0x%02x", addr))
	}
	return uint32(v), nil
}

// WriteRegister implements Backend. The attribute file is created if the
// device did not expose it yet, matching writable mask registers that
// have no initial value.
func (s *Sysfs) WriteRegister(addr, value uint32) error {
	data := fmt.Sprintf("0x%02x\n", value)
	if err := os.WriteFile(s.path(addr), []byte(data), 0o644); err != nil {
		return errors.WrapTransient(err, "Sysfs", "WriteRegister", "write attribute")
	}
	return nil
}
