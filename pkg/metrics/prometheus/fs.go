package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/cafefs/pkg/fs"
	"github.com/marmos91/cafefs/pkg/fsa"
	"github.com/marmos91/cafefs/pkg/metrics"
)

func init() {
	metrics.RegisterFSMetricsConstructor(func() fs.Metrics {
		if m := NewFSMetrics(); m != nil {
			return m
		}
		return nil
	})
}

// fsMetrics is the Prometheus implementation of fs.Metrics.
type fsMetrics struct {
	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	transferBytes   *prometheus.HistogramVec
	roundTrips      *prometheus.HistogramVec
	fatalErrors     *prometheus.CounterVec
}

// NewFSMetrics creates a Prometheus-backed fs.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewFSMetrics() *fsMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &fsMetrics{
		commands: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cafefs_fs_commands_total",
				Help: "Total number of completed FS commands by command and status",
			},
			[]string{"command", "status"},
		),
		commandDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "cafefs_fs_command_duration_milliseconds",
				Help: "Duration of FS commands from submission to completion",
				Buckets: []float64{
					0.05, // 50us - inline completions
					0.1,
					0.5,
					1,
					5,
					10,
					50,
					100,
					500,
					1000,
				},
			},
			[]string{"command"},
		),
		transferBytes: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "cafefs_fs_transfer_bytes",
				Help: "Bytes moved by one logical read or write",
				Buckets: []float64{
					512,
					4096,
					32768,
					131072,
					1048576, // 1MB - one round trip at the default limit
					4194304,
					16777216,
				},
			},
			[]string{"command"},
		),
		roundTrips: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cafefs_fs_transfer_round_trips",
				Help:    "Round trips needed by one logical read or write",
				Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"command"},
		),
		fatalErrors: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cafefs_fs_fatal_errors_total",
				Help: "Number of times a client latched into the fatal state, by reason",
			},
			[]string{"reason"},
		),
	}
}

func (m *fsMetrics) ObserveCommand(cmd fsa.Command, status fs.Status, duration time.Duration) {
	if m == nil {
		return
	}
	name := cmd.String()
	label := "OK"
	if status < 0 {
		label = status.String()
	}
	m.commands.WithLabelValues(name, label).Inc()
	m.commandDuration.WithLabelValues(name).Observe(float64(duration.Microseconds()) / 1000.0)
}

func (m *fsMetrics) ObserveTransfer(cmd fsa.Command, bytes uint32, roundTrips int) {
	if m == nil {
		return
	}
	name := cmd.String()
	m.transferBytes.WithLabelValues(name).Observe(float64(bytes))
	m.roundTrips.WithLabelValues(name).Observe(float64(roundTrips))
}

func (m *fsMetrics) RecordFatal(reason fsa.Status) {
	if m == nil {
		return
	}
	m.fatalErrors.WithLabelValues(reason.String()).Inc()
}
