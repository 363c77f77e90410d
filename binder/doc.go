// Package binder provides the device attach/detach capability consumed
// by the hotplug engine. When a slot transitions to present the engine
// asks the binder to create a child device behind a dynamically numbered
// bus; on the transition to absent it destroys the device again.
//
// The engine never deals with bus numbering itself: the slot carries a
// Descriptor, and the binder resolves the final bus number by applying
// its configured shift. BusBinder is the standard implementation; tests
// substitute their own recording binders.
package binder
