package config

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/marmos91/cafefs/internal/logger"
	"github.com/marmos91/cafefs/internal/telemetry"
	"github.com/marmos91/cafefs/pkg/metrics"

	// Registers the Prometheus metric constructors.
	_ "github.com/marmos91/cafefs/pkg/metrics/prometheus"
)

// LoggerConfig converts the logging section for logger.Init.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: c.Logging.Output,
	}
}

// TracingConfig converts the telemetry section for telemetry.Init.
func (c *Config) TracingConfig(version string) telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.Enabled = c.Telemetry.Enabled
	tc.ServiceVersion = version
	tc.Endpoint = c.Telemetry.Endpoint
	tc.Insecure = c.Telemetry.Insecure
	tc.SampleRate = c.Telemetry.SampleRate
	return tc
}

// ProfilingConfig converts the profiling section for telemetry.InitProfiling.
func (c *Config) ProfilingConfig(version string) telemetry.ProfilingConfig {
	return telemetry.ProfilingConfig{
		Enabled:        c.Telemetry.Profiling.Enabled,
		ServiceName:    "cafefs",
		ServiceVersion: version,
		Endpoint:       c.Telemetry.Profiling.Endpoint,
		ProfileTypes:   c.Telemetry.Profiling.ProfileTypes,
	}
}

// InitializeMetrics enables metric collection when the metrics section is
// enabled and returns the registry to serve. It returns nil otherwise.
func InitializeMetrics(cfg *Config) *prometheus.Registry {
	if !cfg.Metrics.Enabled {
		metrics.Disable()
		return nil
	}
	reg := metrics.InitRegistry()
	logger.Info("Metrics collection enabled", logger.KeyPort, cfg.Metrics.Port)
	return reg
}
