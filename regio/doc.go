// Package regio provides byte-addressable register access for the chassis
// monitor. It mirrors the shape of a hardware register map: every address
// carries a readable/writeable/volatile classification, non-volatile
// registers are served from a cache, and a defaults table seeds the cache
// at construction so the monitor observes a consistent initial state.
//
// The RegisterIO interface is the capability the hotplug engine consumes;
// File is the standard implementation layered over a raw Backend (an LPC
// window, an i2c expander, or an in-memory simulator in tests).
package regio
