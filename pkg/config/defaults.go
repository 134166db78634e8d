package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/cafefs/internal/bytesize"
	"github.com/marmos91/cafefs/pkg/fs"
	"github.com/marmos91/cafefs/pkg/fsa/device"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values (0, "", false, nil) are replaced with defaults; explicit
// values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyMetricsDefaults(&cfg.Metrics)
	applyFSDefaults(&cfg.FS)
	applyMCPDefaults(&cfg.MCP)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	applyProfilingDefaults(&cfg.Profiling)
}

func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
}

func applyFSDefaults(cfg *FSConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "os"
	}
	if cfg.Backend == "os" && cfg.Root == "" {
		cfg.Root = filepath.Join(getDataDir(), "volume")
	}
	if cfg.MaxBytesPerRequest == 0 {
		cfg.MaxBytesPerRequest = bytesize.ByteSize(fs.MaxBytesPerRequest)
	}
	// Workers has no default: 0 selects inline execution.
	if cfg.Capacity == 0 {
		cfg.Capacity = bytesize.ByteSize(device.DefaultCapacity)
	}
	if cfg.MaxClients == 0 {
		cfg.MaxClients = device.DefaultMaxClients
	}
}

func applyMCPDefaults(cfg *MCPConfig) {
	if cfg.Store == "" {
		cfg.Store = "badger"
	}
	if cfg.Store == "badger" && cfg.Path == "" {
		cfg.Path = filepath.Join(getDataDir(), "mcp")
	}
	if cfg.PlatformRegion == "" {
		cfg.PlatformRegion = "USA"
	}
	if cfg.GameRegion == "" {
		cfg.GameRegion = "USA"
	}
	cfg.PlatformRegion = strings.ToUpper(cfg.PlatformRegion)
	cfg.GameRegion = strings.ToUpper(cfg.GameRegion)
}

// GetDefaultConfig returns a Config struct with all default values applied.
func GetDefaultConfig() *Config {
	cfg := &Config{
		FS: FSConfig{
			Workers: 4,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
