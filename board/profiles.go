package board

import (
	"fmt"
	"sort"

	"github.com/c360/chassmon/binder"
	"github.com/c360/chassmon/errors"
)

// Register offsets shared across the supported chassis variants. The
// per-variant tables below differ in which groups exist, inversion and
// aggregation routing, not in where the registers live.
const (
	regAggr       = 0x3a
	regLowAggr    = 0x40
	regDoorbell   = 0x47
	regAsicHealth = 0x50
	regPSU        = 0x58
	regPSU2       = 0x5b
	regPwr        = 0x64
	regFan        = 0x88

	regCapPSU = 0xb5
	regCapFan = 0xc6
)

// Aggregation routing bits.
const (
	aggrAsic = 0x04
	aggrPSU  = 0x08
	aggrFan  = 0x40

	aggrMaskDefault = aggrAsic | aggrPSU | aggrFan
	aggrMaskNG      = aggrAsic
	lowAggrMask     = 0xe1
)

func dev(typ string, bus int, addr uint32) *binder.Descriptor {
	return &binder.Descriptor{Type: typ, Bus: bus, Addr: addr}
}

func defaultProfile() Profile {
	return Profile{
		Name:         "default",
		AggrRegister: regAggr,
		AggrMask:     aggrMaskDefault,
		Items: []ItemConfig{
			{
				Name:           "psu",
				StatusRegister: regPSU,
				Mask:           0x03,
				AggrMask:       aggrPSU,
				Inversed:       true,
				Slots: []SlotConfig{
					{Label: "psu1", Bit: 0, Device: dev("24c02", 10, 0x51)},
					{Label: "psu2", Bit: 1, Device: dev("24c02", 10, 0x50)},
				},
			},
			{
				Name:           "pwr",
				StatusRegister: regPwr,
				Mask:           0x03,
				AggrMask:       aggrPSU,
				Slots: []SlotConfig{
					{Label: "pwr1", Bit: 0, Device: dev("dps460", 10, 0x59)},
					{Label: "pwr2", Bit: 1, Device: dev("dps460", 10, 0x58)},
				},
			},
			{
				Name:           "fan",
				StatusRegister: regFan,
				Mask:           0x0f,
				AggrMask:       aggrFan,
				Inversed:       true,
				Slots: []SlotConfig{
					{Label: "fan1", Bit: 0, Device: dev("24c32", 11, 0x50)},
					{Label: "fan2", Bit: 1, Device: dev("24c32", 12, 0x50)},
					{Label: "fan3", Bit: 2, Device: dev("24c32", 13, 0x50)},
					{Label: "fan4", Bit: 3, Device: dev("24c32", 14, 0x50)},
				},
			},
			{
				Name:           "asic",
				StatusRegister: regAsicHealth,
				Mask:           0x03,
				AggrMask:       aggrAsic,
				Health:         true,
				Slots: []SlotConfig{
					{Label: "asic1", Bit: 0},
				},
			},
		},
	}
}

// msn21xx boards raise a backplane doorbell signal instead of a true
// interrupt line and carry no PSU eeprom group; power cable events are
// not inversed.
func msn21xxProfile() Profile {
	return Profile{
		Name:            "msn21xx",
		AggrRegister:    regAggr,
		AggrMask:        aggrMaskDefault,
		LowAggrRegister: regLowAggr,
		LowAggrMask:     lowAggrMask,
		SignalRegister:  regDoorbell,
		SignalMask:      0x01,
		Items: []ItemConfig{
			{
				Name:           "pwr",
				StatusRegister: regPwr,
				Mask:           0x03,
				AggrMask:       aggrPSU,
				Slots: []SlotConfig{
					{Label: "pwr1", Bit: 0},
					{Label: "pwr2", Bit: 1},
				},
			},
			{
				Name:           "asic",
				StatusRegister: regAsicHealth,
				Mask:           0x03,
				AggrMask:       aggrAsic,
				Health:         true,
				Slots: []SlotConfig{
					{Label: "asic1", Bit: 0},
				},
			},
		},
	}
}

func msn274xProfile() Profile {
	return Profile{
		Name:            "msn274x",
		AggrRegister:    regAggr,
		AggrMask:        aggrMaskDefault,
		LowAggrRegister: regLowAggr,
		LowAggrMask:     lowAggrMask,
		Items: []ItemConfig{
			{
				Name:           "psu",
				StatusRegister: regPSU,
				Mask:           0x03,
				AggrMask:       aggrPSU,
				Inversed:       true,
				Slots: []SlotConfig{
					{Label: "psu1", Bit: 0, Device: dev("24c32", 4, 0x51)},
					{Label: "psu2", Bit: 1, Device: dev("24c32", 4, 0x50)},
				},
			},
			{
				Name:           "pwr",
				StatusRegister: regPwr,
				Mask:           0x03,
				AggrMask:       aggrPSU,
				Slots: []SlotConfig{
					{Label: "pwr1", Bit: 0, Device: dev("dps460", 4, 0x59)},
					{Label: "pwr2", Bit: 1, Device: dev("dps460", 4, 0x58)},
				},
			},
			{
				Name:           "fan",
				StatusRegister: regFan,
				Mask:           0x0f,
				AggrMask:       aggrFan,
				Inversed:       true,
				Slots: []SlotConfig{
					{Label: "fan1", Bit: 0, Device: dev("24c32", 6, 0x50)},
					{Label: "fan2", Bit: 1, Device: dev("24c32", 7, 0x50)},
					{Label: "fan3", Bit: 2, Device: dev("24c32", 8, 0x50)},
					{Label: "fan4", Bit: 3, Device: dev("24c32", 9, 0x50)},
				},
			},
			{
				Name:           "asic",
				StatusRegister: regAsicHealth,
				Mask:           0x03,
				AggrMask:       aggrAsic,
				Health:         true,
				Slots: []SlotConfig{
					{Label: "asic1", Bit: 0},
				},
			},
		},
	}
}

// modular chassis carry two PSU banks, a six-bay fan drawer and
// capability registers reporting how many bays this SKU populates.
func modularProfile() Profile {
	return Profile{
		Name:            "modular",
		AggrRegister:    regAggr,
		AggrMask:        aggrMaskNG,
		LowAggrRegister: regLowAggr,
		LowAggrMask:     lowAggrMask,
		BusShift:        2,
		Items: []ItemConfig{
			{
				Name:               "psu-bank1",
				StatusRegister:     regPSU,
				Mask:               0x0f,
				AggrMask:           aggrAsic,
				CapabilityRegister: regCapPSU,
				CapabilityMask:     0x0f,
				Inversed:           true,
				Slots: []SlotConfig{
					{Label: "psu1", Bit: 0, Device: dev("24c32", 3, 0x59)},
					{Label: "psu2", Bit: 1, Device: dev("24c32", 3, 0x5a)},
					{Label: "psu3", Bit: 2, Device: dev("24c32", 3, 0x5b)},
					{Label: "psu4", Bit: 3, Device: dev("24c32", 3, 0x5c)},
				},
			},
			{
				Name:               "psu-bank2",
				StatusRegister:     regPSU2,
				Mask:               0x0f,
				AggrMask:           aggrAsic,
				CapabilityRegister: regCapPSU,
				CapabilityMask:     0x0f,
				Inversed:           true,
				Slots: []SlotConfig{
					{Label: "psu5", Bit: 0, Device: dev("24c32", 3, 0x5d)},
					{Label: "psu6", Bit: 1, Device: dev("24c32", 3, 0x5e)},
					{Label: "psu7", Bit: 2, Device: dev("24c32", 3, 0x5f)},
					{Label: "psu8", Bit: 3, Device: dev("24c32", 3, 0x60)},
				},
			},
			{
				Name:               "fan",
				StatusRegister:     regFan,
				Mask:               0x3f,
				AggrMask:           aggrAsic,
				CapabilityRegister: regCapFan,
				CapabilityMask:     0x0f,
				Inversed:           true,
				Slots: []SlotConfig{
					{Label: "fan1", Bit: 0, Device: dev("24c32", 11, 0x50),
						CapabilityRegister: regCapFan, CapabilityBit: 4},
					{Label: "fan2", Bit: 1, Device: dev("24c32", 12, 0x50),
						CapabilityRegister: regCapFan, CapabilityBit: 5},
					{Label: "fan3", Bit: 2, Device: dev("24c32", 13, 0x50),
						CapabilityRegister: regCapFan, CapabilityBit: 6},
					{Label: "fan4", Bit: 3, Device: dev("24c32", 14, 0x50),
						CapabilityRegister: regCapFan, CapabilityBit: 7},
					{Label: "fan5", Bit: 4, Device: dev("24c32", 15, 0x50)},
					{Label: "fan6", Bit: 5, Device: dev("24c32", 16, 0x50)},
				},
			},
			{
				Name:           "asic",
				StatusRegister: regAsicHealth,
				Mask:           0x03,
				AggrMask:       aggrAsic,
				Health:         true,
				Slots: []SlotConfig{
					{Label: "asic1", Bit: 0},
				},
			},
		},
	}
}

var builtin = map[string]func() Profile{
	"default": defaultProfile,
	"msn21xx": msn21xxProfile,
	"msn274x": msn274xProfile,
	"modular": modularProfile,
}

// ForBoard returns the builtin profile for a board id.
func ForBoard(id string) (Profile, error) {
	build, ok := builtin[id]
	if !ok {
		return Profile{}, errors.WrapInvalid(errors.ErrUnknownBoard,
			"board", "ForBoard", fmt.Sprintf("no builtin profile for board %q", id))
	}
	return build(), nil
}

// Boards lists the builtin board ids in sorted order.
func Boards() []string {
	ids := make([]string, 0, len(builtin))
	for id := range builtin {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
