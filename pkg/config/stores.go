package config

import (
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/marmos91/cafefs/internal/logger"
	"github.com/marmos91/cafefs/pkg/fsa/device"
	"github.com/marmos91/cafefs/pkg/mcp"
	mcpbadger "github.com/marmos91/cafefs/pkg/mcp/badger"
	"github.com/marmos91/cafefs/pkg/metrics"
)

// CreateDevice builds the FSA device described by cfg. Metrics are attached
// when the registry has been initialized.
func CreateDevice(cfg FSConfig) (*device.Device, error) {
	var fsys afero.Fs

	switch cfg.Backend {
	case "memory":
		fsys = afero.NewMemMapFs()
	case "os":
		if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create volume root %s: %w", cfg.Root, err)
		}
		fsys = afero.NewBasePathFs(afero.NewOsFs(), cfg.Root)
	default:
		return nil, fmt.Errorf("unknown fs backend: %q", cfg.Backend)
	}

	opts := []device.Option{
		device.WithWorkers(cfg.Workers),
		device.WithCapacity(cfg.Capacity.Uint64()),
		device.WithMaxClients(cfg.MaxClients),
	}
	if m := metrics.NewDeviceMetrics(); m != nil {
		opts = append(opts, device.WithMetrics(m))
	}

	logger.Info("FSA device configured",
		"backend", cfg.Backend,
		logger.Path(cfg.Root),
		logger.KeyWorkers, cfg.Workers)

	return device.New(fsys, opts...), nil
}

// CreateSettingsStore opens the settings store described by cfg.
func CreateSettingsStore(cfg MCPConfig) (mcp.SettingsStore, error) {
	switch cfg.Store {
	case "memory":
		return mcp.NewMemoryStore(), nil
	case "badger":
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create settings directory %s: %w", cfg.Path, err)
		}
		store, err := mcpbadger.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown mcp store: %q", cfg.Store)
	}
}

// CreateSettingsService wraps store in a service serving the configured
// default regions.
func CreateSettingsService(cfg MCPConfig, store mcp.SettingsStore) (*mcp.Service, error) {
	platform, err := mcp.ParseRegion(cfg.PlatformRegion)
	if err != nil {
		return nil, fmt.Errorf("platform_region: %w", err)
	}
	game, err := mcp.ParseRegion(cfg.GameRegion)
	if err != nil {
		return nil, fmt.Errorf("game_region: %w", err)
	}
	return mcp.NewService(store, mcp.WithRegions(platform, game)), nil
}
