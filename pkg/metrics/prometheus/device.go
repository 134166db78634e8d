package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/cafefs/pkg/fsa"
	"github.com/marmos91/cafefs/pkg/fsa/device"
	"github.com/marmos91/cafefs/pkg/metrics"
)

func init() {
	metrics.RegisterDeviceMetricsConstructor(func() device.Metrics {
		if m := NewDeviceMetrics(); m != nil {
			return m
		}
		return nil
	})
}

// deviceMetrics is the Prometheus implementation of device.Metrics.
type deviceMetrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	bytes           *prometheus.CounterVec
	openClients     prometheus.Gauge
	openHandles     prometheus.Gauge
}

// NewDeviceMetrics creates a Prometheus-backed device.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewDeviceMetrics() *deviceMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &deviceMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cafefs_fsa_requests_total",
				Help: "Total number of FSA requests executed by command and result",
			},
			[]string{"command", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cafefs_fsa_request_duration_milliseconds",
				Help:    "Execution time of FSA requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50, 100},
			},
			[]string{"command"},
		),
		bytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cafefs_fsa_bytes_total",
				Help: "Bytes moved by FSA read and write requests",
			},
			[]string{"command"},
		),
		openClients: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "cafefs_fsa_open_clients",
				Help: "Number of registered FSA clients",
			},
		),
		openHandles: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "cafefs_fsa_open_handles",
				Help: "Number of open file and directory handles",
			},
		),
	}
}

func (m *deviceMetrics) ObserveRequest(cmd fsa.Command, status fsa.Status, duration time.Duration) {
	if m == nil {
		return
	}
	name := cmd.String()
	label := "OK"
	if status < 0 {
		label = status.String()
	}
	m.requests.WithLabelValues(name, label).Inc()
	m.requestDuration.WithLabelValues(name).Observe(float64(duration.Microseconds()) / 1000.0)
}

func (m *deviceMetrics) RecordTransfer(cmd fsa.Command, bytes int) {
	if m == nil {
		return
	}
	m.bytes.WithLabelValues(cmd.String()).Add(float64(bytes))
}

func (m *deviceMetrics) SetOpenClients(n int) {
	if m == nil {
		return
	}
	m.openClients.Set(float64(n))
}

func (m *deviceMetrics) SetOpenHandles(n int) {
	if m == nil {
		return
	}
	m.openHandles.Set(float64(n))
}
