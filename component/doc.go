// Package component defines the lifecycle and discovery contracts shared
// by the chassis monitor's long-running pieces: the hotplug aggregator,
// notification sinks and the NATS client wrapper.
//
// Components follow the unified lifecycle pattern:
//
//	Initialize() error                  // setup/validation only, no context
//	Start(ctx context.Context) error    // begin work, context passed through
//	Stop(timeout time.Duration) error   // graceful shutdown with deadline
//
// The Discoverable interface lets the management layer inspect a running
// component's identity, health and activity without knowing its type.
package component
