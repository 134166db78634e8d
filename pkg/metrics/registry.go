// Package metrics wires optional Prometheus instrumentation into the FS
// client and the FSA device.
//
// Collection is off until InitRegistry is called. While it is off every
// constructor returns nil, and components treat a nil sink as "do not
// measure", so the disabled path costs nothing.
//
// The Prometheus implementations live in pkg/metrics/prometheus and
// register themselves here on import, which keeps this package free of
// Prometheus-specific types beyond the registry itself.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
)

// InitRegistry enables collection with a fresh registry that also exports
// Go runtime and process metrics. Calling it again replaces the registry.
func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mu.Lock()
	registry = reg
	mu.Unlock()
	return reg
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

// GetRegistry returns the active registry, or nil when disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// Disable turns collection off again.
func Disable() {
	mu.Lock()
	registry = nil
	mu.Unlock()
}
