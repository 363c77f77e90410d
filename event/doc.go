// Package event provides presence/health notification fan-out for the
// hotplug engine. A Sink carries two operations: a payload-free local
// broadcast ("something changed", the uevent equivalent) and a
// point-to-point remote notification with the slot identity and new
// presence state (the out-of-band channel equivalent).
//
// Delivery is best-effort and fire-and-forget by contract: sink failures
// are logged by the engine and never abort a detection cycle. NATSSink
// publishes to broker subjects, WebSocketSink pushes to connected
// dashboard clients, Multi fans out to several sinks and Nop discards
// everything.
package event
