// Package natsclient manages the NATS connection used for remote
// hotplug notifications and the external control channel. It wraps the
// raw connection with a circuit breaker so a flapping broker degrades
// to dropped notifications instead of blocking the detection engine.
package natsclient
