package metric

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry owns a private prometheus registry pre-loaded with the core
// engine metrics and the Go runtime collectors. Components register
// their own collectors under a service name so they can be unregistered
// as a unit when the component stops.
type Registry struct {
	registry *prometheus.Registry
	metrics  *Metrics
	logger   *slog.Logger

	mu         sync.RWMutex
	registered map[string][]prometheus.Collector
}

// NewRegistry creates a registry with the core metrics and runtime
// collectors already registered.
func NewRegistry(logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reg := prometheus.NewRegistry()
	m := NewMetrics()

	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering core collector: %w", err)
		}
	}

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Registry{
		registry:   reg,
		metrics:    m,
		logger:     logger.With("component", "metric-registry"),
		registered: make(map[string][]prometheus.Collector),
	}, nil
}

// Metrics returns the shared core metric set.
func (r *Registry) Metrics() *Metrics {
	return r.metrics
}

// Prometheus exposes the underlying registry for HTTP exposition.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}

// Register adds collectors for a named service. Registering the same
// service twice appends to its collector set.
func (r *Registry) Register(service string, cs ...prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range cs {
		if err := r.registry.Register(c); err != nil {
			return fmt.Errorf("registering collector for %s: %w", service, err)
		}
		r.registered[service] = append(r.registered[service], c)
	}

	r.logger.Debug("registered collectors",
		"service", service,
		"count", len(cs))
	return nil
}

// Unregister removes all collectors registered under the service name.
func (r *Registry) Unregister(service string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.registered[service] {
		r.registry.Unregister(c)
	}
	delete(r.registered, service)
}
