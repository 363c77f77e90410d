package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the core chassis-monitor metrics shared across
// components. Domain-specific collectors live with their components and
// register through the Registry.
type Metrics struct {
	// Engine metrics
	CyclesTotal       prometheus.Counter
	CycleDuration     prometheus.Histogram
	TransitionsTotal  *prometheus.CounterVec
	RescansForced     prometheus.Counter
	RegisterIOErrors  prometheus.Counter
	BindErrors        prometheus.Counter
	SlotsAttached     *prometheus.GaugeVec
	MonitorArmed      prometheus.Gauge

	// Transport metrics
	NATSConnected      prometheus.Gauge
	NotificationsTotal *prometheus.CounterVec
}

// NewMetrics creates the core metric set
func NewMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chassmon",
			Subsystem: "engine",
			Name:      "cycles_total",
			Help:      "Total detection cycles executed",
		}),

		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chassmon",
			Subsystem: "engine",
			Name:      "cycle_duration_seconds",
			Help:      "Detection cycle duration",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),

		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chassmon",
				Subsystem: "engine",
				Name:      "transitions_total",
				Help:      "Slot presence/health transitions dispatched",
			},
			[]string{"item", "direction"},
		),

		RescansForced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chassmon",
			Subsystem: "engine",
			Name:      "rescans_forced_total",
			Help:      "Full rescans forced after quiescent cycles",
		}),

		RegisterIOErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chassmon",
			Subsystem: "engine",
			Name:      "register_io_errors_total",
			Help:      "Register read/write failures that aborted a cycle step",
		}),

		BindErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chassmon",
			Subsystem: "engine",
			Name:      "bind_errors_total",
			Help:      "Device attach/detach failures",
		}),

		SlotsAttached: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "chassmon",
				Subsystem: "engine",
				Name:      "slots_attached",
				Help:      "Currently attached slots per item",
			},
			[]string{"item"},
		),

		MonitorArmed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chassmon",
			Subsystem: "engine",
			Name:      "armed",
			Help:      "Whether the monitor is armed (1) or disarmed (0)",
		}),

		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chassmon",
			Subsystem: "nats",
			Name:      "connected",
			Help:      "NATS connection status (1=connected)",
		}),

		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chassmon",
				Subsystem: "events",
				Name:      "notifications_total",
				Help:      "Notifications emitted per sink kind",
			},
			[]string{"kind"},
		),
	}
}

// collectors returns every core collector for bulk registration
func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.CyclesTotal,
		m.CycleDuration,
		m.TransitionsTotal,
		m.RescansForced,
		m.RegisterIOErrors,
		m.BindErrors,
		m.SlotsAttached,
		m.MonitorArmed,
		m.NATSConnected,
		m.NotificationsTotal,
	}
}
