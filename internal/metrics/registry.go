// Package metrics exposes Prometheus collectors for commands served,
// credits outstanding, oplock breaks, and active connections,
// mirroring the teacher's pkg/metrics/prometheus collectors.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.Mutex
	enabled  bool
	registry *prometheus.Registry
)

// InitRegistry enables metrics collection against a fresh Prometheus
// registry. Call once, before any collector is constructed; cmd/smbd
// calls it (or doesn't) based on Config.Metrics.Enabled.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	registry = prometheus.NewRegistry()
	enabled = true
	return registry
}

// IsEnabled reports whether InitRegistry has been called. Every
// collector constructor checks this and returns nil otherwise, so
// calling sites can record metrics unconditionally (nil-receiver
// methods are no-ops) at zero cost when metrics are disabled.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// GetRegistry returns the active registry. Only valid after
// InitRegistry.
func GetRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	return registry
}
