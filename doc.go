// Package chassmon implements a presence and health monitor for modular
// chassis hardware: switches and servers whose power supplies, fan
// drawers, line cards and ASICs come and go at runtime and report
// through a block of programmable-logic registers.
//
// # Philosophy: Registers In, Bindings Out
//
// Chassmon has exactly one job: keep the set of bound device
// descriptors equal to the set of hardware units the register block
// says are present and healthy. Everything else (metrics, health
// endpoints, change notifications) is observation of that loop, never
// part of it.
//
// Chassmon MUST NOT contain:
//   - Bus driver logic (I2C transfers, SMBus quirks, firmware flashing)
//   - Thermal or power management policy
//   - Board bring-up sequencing beyond arming its own detection masks
//
// Those belong to the platform below or the orchestrator above.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│       Aggregator (hotplug)          │  Arm/disarm, scan cycles,
//	│   mask → read → diff → dispatch     │  quiescence recovery
//	└─────────────────────────────────────┘
//	      ↓ reads through                ↓ binds via
//	┌───────────────────┐      ┌───────────────────┐
//	│  Register file    │      │   Bus binder      │
//	│  (regio)          │      │   (binder)        │
//	└───────────────────┘      └───────────────────┘
//	      ↓ raw access                  ↓ transitions fan out
//	┌───────────────────┐      ┌───────────────────┐
//	│  Backend          │      │   Event sinks     │
//	│  (sysfs, mem)     │      │  (NATS, WebSocket)│
//	└───────────────────┘      └───────────────────┘
//
// Board-specific knowledge lives entirely in board.Profile: register
// addresses, per-group bit masks, signal polarity and slot device
// descriptors. Built-in profiles cover the supported systems and YAML
// profiles cover lab boards, so the detection engine itself never
// mentions a concrete address.
//
// # Detection Model
//
// Interrupt-capable boards expose an aggregation register that collects
// per-group attention bits. The engine keeps every register masked
// except while deciding, diffs each group's status word against a
// cached copy, and dispatches only the changed bits. A quiet counter
// forces a periodic full re-scan so a glitched or missed interrupt can
// never strand the cache. Boards without an aggregation register are
// polled on a timer with an optional doorbell register standing in for
// the interrupt line.
//
// Health groups reuse the same machinery with two-bit status codes per
// slot instead of presence bits, so an ASIC that resets in place is
// reported as a detach and re-attach.
//
// # Observability
//
// The aggregator is a component.LifecycleComponent and Discoverable.
// Prometheus metrics (metric), an aggregate health endpoint (health)
// and a WebSocket change feed (event) are wired by cmd/chassmon, and
// all of them degrade to no-ops when their dependency is absent.
package chassmon
