package health

import (
	"encoding/json"
	"net/http"
)

// Handler serves the aggregated system health as JSON. Unhealthy
// aggregates answer 503 so load balancers and probes can act on the
// status code alone.
func Handler(m *Monitor, systemName string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := m.AggregateHealth(systemName)

		w.Header().Set("Content-Type", "application/json")
		if status.IsUnhealthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})
}
