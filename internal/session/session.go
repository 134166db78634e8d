// Package session assembles a running cafefs instance from configuration:
// the FSA device, one registered fs.Client, the MCP settings service, and
// the optional metrics and health server.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/cafefs/internal/logger"
	"github.com/marmos91/cafefs/internal/telemetry"
	"github.com/marmos91/cafefs/pkg/api"
	"github.com/marmos91/cafefs/pkg/api/handlers"
	"github.com/marmos91/cafefs/pkg/config"
	"github.com/marmos91/cafefs/pkg/fs"
	"github.com/marmos91/cafefs/pkg/fsa/device"
	"github.com/marmos91/cafefs/pkg/mcp"
	"github.com/marmos91/cafefs/pkg/metrics"
)

// Session owns every component of one cafefs run. Close releases them in
// reverse order of creation.
type Session struct {
	Config   *config.Config
	Device   *device.Device
	Client   *fs.Client
	Store    mcp.SettingsStore
	Settings *mcp.Service

	server  *api.Server
	closers []func(context.Context) error
}

// Open starts tracing and profiling, enables metrics when configured, and
// brings up the device, the client, and the settings service.
func Open(ctx context.Context, cfg *config.Config, version string) (_ *Session, err error) {
	s := &Session{Config: cfg}
	defer func() {
		if err != nil {
			_ = s.Close(context.Background())
		}
	}()

	shutdownTracing, err := telemetry.Init(ctx, cfg.TracingConfig(version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	s.closers = append(s.closers, shutdownTracing)

	stopProfiling, err := telemetry.InitProfiling(cfg.ProfilingConfig(version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize profiling: %w", err)
	}
	s.closers = append(s.closers, func(context.Context) error { return stopProfiling() })

	reg := config.InitializeMetrics(cfg)

	s.Device, err = config.CreateDevice(cfg.FS)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func(context.Context) error { return s.Device.Close() })

	opts := []fs.Option{fs.WithMaxBytesPerRequest(cfg.FS.MaxBytesPerRequest.Uint32())}
	if m := metrics.NewFSMetrics(); m != nil {
		opts = append(opts, fs.WithMetrics(m))
	}
	s.Client, err = fs.NewClient(s.Device, opts...)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func(context.Context) error {
		if err := s.Client.Close(); err != nil && !errors.Is(err, fs.ErrClientClosed) {
			return err
		}
		return nil
	})

	s.Store, err = config.CreateSettingsStore(cfg.MCP)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func(context.Context) error { return s.Store.Close() })

	s.Settings, err = config.CreateSettingsService(cfg.MCP, s.Store)
	if err != nil {
		return nil, err
	}

	if reg != nil {
		s.server = api.NewServer(cfg.Metrics.Config, reg, s.Checkers()...)
	}

	logger.InfoCtx(ctx, "Session opened",
		logger.ClientID(s.Client.ID()),
		"backend", cfg.FS.Backend,
		logger.KeyStore, s.Store.Name())
	return s, nil
}

// Checkers returns the components reported by /health/ready.
func (s *Session) Checkers() []handlers.Checker {
	checkers := []handlers.Checker{s.Device, s.Client}
	if c, ok := s.Store.(handlers.Checker); ok {
		checkers = append(checkers, c)
	}
	return checkers
}

// Server returns the metrics and health server, or nil when metrics are
// disabled.
func (s *Session) Server() *api.Server {
	return s.server
}

// Close releases every component. All closers run; the first error is
// returned.
func (s *Session) Close(ctx context.Context) error {
	var first error
	if s.server != nil {
		if err := s.server.Stop(ctx); err != nil {
			first = err
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}
