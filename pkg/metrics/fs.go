package metrics

import (
	"github.com/marmos91/cafefs/pkg/fs"
	"github.com/marmos91/cafefs/pkg/fsa/device"
)

// NewFSMetrics returns a Prometheus-backed fs.Metrics, or nil when metrics
// are disabled or no implementation has been registered.
//
// Example usage:
//
//	metrics.InitRegistry()
//	client, err := fs.NewClient(dev, fs.WithMetrics(metrics.NewFSMetrics()))
func NewFSMetrics() fs.Metrics {
	if !IsEnabled() || newPrometheusFSMetrics == nil {
		return nil
	}
	return newPrometheusFSMetrics()
}

// newPrometheusFSMetrics is set by pkg/metrics/prometheus to avoid an
// import cycle.
var newPrometheusFSMetrics func() fs.Metrics

// RegisterFSMetricsConstructor registers the Prometheus fs.Metrics
// constructor. Called by pkg/metrics/prometheus during initialization.
func RegisterFSMetricsConstructor(constructor func() fs.Metrics) {
	newPrometheusFSMetrics = constructor
}

// NewDeviceMetrics returns a Prometheus-backed device.Metrics, or nil when
// metrics are disabled.
func NewDeviceMetrics() device.Metrics {
	if !IsEnabled() || newPrometheusDeviceMetrics == nil {
		return nil
	}
	return newPrometheusDeviceMetrics()
}

var newPrometheusDeviceMetrics func() device.Metrics

// RegisterDeviceMetricsConstructor registers the Prometheus device.Metrics
// constructor.
func RegisterDeviceMetricsConstructor(constructor func() device.Metrics) {
	newPrometheusDeviceMetrics = constructor
}
