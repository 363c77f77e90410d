package board

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/chassmon/errors"
)

const customProfileYAML = `
name: lab-chassis
aggr_register: 0x3a
aggr_mask: 0x0c
bus_shift: 4
items:
  - name: psu
    status_register: 0x58
    mask: 0x03
    aggr_mask: 0x08
    inversed: true
    slots:
      - label: psu1
        bit: 0
        device: {type: 24c02, bus: 10, addr: 0x51}
      - label: psu2
        bit: 1
        device: {type: 24c02, bus: 10, addr: 0x50}
  - name: asic
    status_register: 0x50
    mask: 0x03
    aggr_mask: 0x04
    health: true
    slots:
      - label: asic1
        bit: 0
`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(customProfileYAML))
	require.NoError(t, err)

	assert.Equal(t, "lab-chassis", p.Name)
	assert.Equal(t, uint32(0x3a), p.AggrRegister)
	assert.Equal(t, 4, p.BusShift)
	require.Len(t, p.Items, 2)

	psu := p.Items[0]
	assert.True(t, psu.Inversed)
	require.Len(t, psu.Slots, 2)
	require.NotNil(t, psu.Slots[0].Device)
	assert.Equal(t, "24c02", psu.Slots[0].Device.Type)
	assert.Equal(t, uint32(0x51), psu.Slots[0].Device.Addr)
	assert.True(t, psu.Slots[0].Device.Bindable())

	asic := p.Items[1]
	assert.True(t, asic.Health)
	assert.Nil(t, asic.Slots[0].Device)
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse([]byte("name: broken\nitems: []\n"))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	_, err = Parse([]byte("{not yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestLoadAndSelect(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(customProfileYAML), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "lab-chassis", p.Name)

	// Select dispatches on the suffix.
	p, err = Select(path)
	require.NoError(t, err)
	assert.Equal(t, "lab-chassis", p.Name)

	p, err = Select("msn21xx")
	require.NoError(t, err)
	assert.Equal(t, "msn21xx", p.Name)

	_, err = Select(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
