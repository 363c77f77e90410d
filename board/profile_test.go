package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/chassmon/errors"
)

func TestBuiltinProfilesValidate(t *testing.T) {
	for _, id := range Boards() {
		t.Run(id, func(t *testing.T) {
			p, err := ForBoard(id)
			require.NoError(t, err)
			assert.NoError(t, p.Validate())
			assert.Equal(t, id, p.Name)
		})
	}
}

func TestForBoardUnknown(t *testing.T) {
	_, err := ForBoard("msn9999")
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.ErrorIs(t, err, errors.ErrUnknownBoard)
}

func TestDerivedRegisters(t *testing.T) {
	p, err := ForBoard("default")
	require.NoError(t, err)

	psu := p.Items[0]
	assert.Equal(t, uint32(0x58), psu.StatusRegister)
	assert.Equal(t, uint32(0x59), psu.EventRegister())
	assert.Equal(t, uint32(0x5a), psu.MaskRegister())
	assert.Equal(t, uint32(0x3b), p.AggrMaskRegister())
	assert.False(t, p.Polled())
}

func TestValidateRejects(t *testing.T) {
	base := func() Profile {
		return Profile{
			Name:         "test",
			AggrRegister: 0x3a,
			AggrMask:     0x04,
			Items: []ItemConfig{{
				Name:           "fan",
				StatusRegister: 0x88,
				Mask:           0x03,
				AggrMask:       0x04,
				Slots: []SlotConfig{
					{Label: "fan1", Bit: 0},
					{Label: "fan2", Bit: 1},
				},
			}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Profile)
	}{
		{"empty name", func(p *Profile) { p.Name = "" }},
		{"no items", func(p *Profile) { p.Items = nil }},
		{"aggr register without mask", func(p *Profile) { p.AggrMask = 0 }},
		{"item without status register", func(p *Profile) { p.Items[0].StatusRegister = 0 }},
		{"item without group mask", func(p *Profile) { p.Items[0].Mask = 0 }},
		{"item without aggregation bits", func(p *Profile) { p.Items[0].AggrMask = 0 }},
		{"item without slots", func(p *Profile) { p.Items[0].Slots = nil }},
		{"unlabeled slot", func(p *Profile) { p.Items[0].Slots[0].Label = "" }},
		{"duplicate label", func(p *Profile) { p.Items[0].Slots[1].Label = "fan1" }},
		{"slot bit outside mask", func(p *Profile) { p.Items[0].Slots[1].Bit = 5 }},
		{"capability register without mask", func(p *Profile) {
			p.Items[0].CapabilityRegister = 0xc6
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base()
			require.NoError(t, p.Validate(), "base profile must be valid")
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestHealthSlotField(t *testing.T) {
	p := Profile{
		Name:         "test",
		AggrRegister: 0x3a,
		AggrMask:     0x04,
		Items: []ItemConfig{{
			Name:           "asic",
			StatusRegister: 0x50,
			Mask:           0x0f,
			AggrMask:       0x04,
			Health:         true,
			Slots: []SlotConfig{
				{Label: "asic1", Bit: 0},
				{Label: "asic2", Bit: 2},
			},
		}},
	}
	assert.NoError(t, p.Validate())

	// A 2-bit field sticking out of the group mask is rejected.
	p.Items[0].Slots[1].Bit = 3
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestDefaults(t *testing.T) {
	p, err := ForBoard("msn274x")
	require.NoError(t, err)

	defs := p.Defaults()
	byAddr := make(map[uint32]uint32, len(defs))
	for _, d := range defs {
		byAddr[d.Addr] = d.Value
	}

	// Both tier masks and every item mask power up fully masked.
	assert.Contains(t, byAddr, uint32(0x3b))
	assert.Contains(t, byAddr, uint32(0x41))
	for _, item := range p.Items {
		assert.Contains(t, byAddr, item.MaskRegister())
		assert.Equal(t, uint32(0), byAddr[item.MaskRegister()])
	}
}

func TestAccessTable(t *testing.T) {
	p, err := ForBoard("modular")
	require.NoError(t, err)

	tbl := p.Access()

	// Status registers: readable, volatile, not writeable.
	assert.True(t, tbl.Readable(0x58))
	assert.True(t, tbl.Volatile(0x58))
	assert.False(t, tbl.Writeable(0x58))

	// Event registers: writeable for acknowledgement, volatile.
	assert.True(t, tbl.Writeable(0x59))
	assert.True(t, tbl.Volatile(0x59))

	// Mask registers: writeable, cacheable.
	assert.True(t, tbl.Writeable(0x5a))
	assert.False(t, tbl.Volatile(0x5a))

	// Capability registers: read-only, cacheable.
	assert.True(t, tbl.Readable(0xc6))
	assert.False(t, tbl.Writeable(0xc6))
	assert.False(t, tbl.Volatile(0xc6))

	// Unknown addresses rejected outright.
	assert.False(t, tbl.Readable(0xff))
	assert.False(t, tbl.Writeable(0xff))
}
