// Package metric provides Prometheus metrics for the chassis monitor.
// Registry owns a private prometheus registry carrying the core engine
// metrics (cycles, transitions, forced rescans, register I/O failures)
// and lets components register their own collectors under a service
// name. Components receiving a nil registry create no metrics at all.
package metric
