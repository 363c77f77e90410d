// Package hotplug implements the chassis presence/health detection
// engine. It walks a two-level hierarchy of bit-mapped status registers
// and converts bit transitions into device attach/detach and
// notification fan-out:
//
//	aggregation register (one bit summarizes each group)
//	  └── item: status/event/mask register triple, ordered slots
//	        └── slot: one physical unit (PSU, fan, line-card, ASIC)
//
// A cycle masks the aggregation interrupt, reads and XOR-diffs the
// aggregation bits against a cache, dispatches to the asserted items,
// and each item repeats the mask/read/diff/acknowledge/unmask sequence
// on its own registers. Masking is held across the diff-and-acknowledge
// window so a register that cannot be atomically read-and-cleared is
// still a safe edge source; a forced full re-scan after three quiescent
// cycles recovers anything lost to the residual race.
//
// The Aggregator runs one cycle at a time on a single worker. Triggers
// never block and collapse into at most one pending cycle. Register
// access, device binding and notification delivery all happen through
// the regio.RegisterIO, binder.DeviceBinder and event.Sink capabilities
// supplied at construction.
package hotplug
