package mcp

import (
	"context"
	"errors"
	"sync"

	"github.com/marmos91/cafefs/internal/logger"
	"github.com/marmos91/cafefs/internal/telemetry"
)

// Handle is an open MCP session. Valid handles are positive.
type Handle int32

// Service answers settings requests from a SettingsStore. When the store
// holds no record yet the service serves its defaults.
type Service struct {
	store    SettingsStore
	defaults SysProdSettings

	mu      sync.Mutex
	handles map[Handle]struct{}
	next    Handle
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRegions sets the regions served before any record is stored.
func WithRegions(platform, game Region) ServiceOption {
	return func(s *Service) {
		s.defaults.PlatformRegion = platform
		s.defaults.GameRegion = game
	}
}

// NewService creates a service over store. The default regions are USA.
func NewService(store SettingsStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:    store,
		defaults: *NewSysProdSettings(RegionUSA),
		handles:  make(map[Handle]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts a session.
func (s *Service) Open() Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	h := s.next
	s.handles[h] = struct{}{}
	logger.Debug("MCP session opened", logger.KeyHandle, int32(h))
	return h
}

// Close ends a session.
func (s *Service) Close(h Handle) Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.handles[h]; !ok {
		return ErrorInvalidHandle
	}
	delete(s.handles, h)
	logger.Debug("MCP session closed", logger.KeyHandle, int32(h))
	return ErrorOK
}

func (s *Service) valid(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.handles[h]
	return ok
}

// GetSysProdSettings copies the current record into out.
func (s *Service) GetSysProdSettings(ctx context.Context, h Handle, out *SysProdSettings) Error {
	ctx, span := telemetry.StartSettingsSpan(ctx, "GetSysProdSettings", telemetry.Store(s.store.Name()))
	defer span.End()

	if !s.valid(h) {
		return ErrorInvalidHandle
	}
	if out == nil {
		return ErrorInvalidParam
	}

	rec, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		*out = s.defaults
	case err != nil:
		telemetry.RecordError(ctx, err)
		logger.ErrorCtx(ctx, "Failed to load sys prod settings",
			logger.KeyStore, s.store.Name(),
			logger.Err(err))
		return ErrorStorage
	default:
		*out = *rec
	}

	telemetry.SetAttributes(ctx, telemetry.Region(out.GameRegion.String()))
	return ErrorOK
}

// SetSysProdSettings replaces the stored record with in.
func (s *Service) SetSysProdSettings(ctx context.Context, h Handle, in *SysProdSettings) Error {
	ctx, span := telemetry.StartSettingsSpan(ctx, "SetSysProdSettings", telemetry.Store(s.store.Name()))
	defer span.End()

	if !s.valid(h) {
		return ErrorInvalidHandle
	}
	if in == nil || !in.PlatformRegion.Valid() || !in.GameRegion.Valid() {
		return ErrorInvalidParam
	}

	if err := s.store.Save(ctx, in); err != nil {
		telemetry.RecordError(ctx, err)
		logger.ErrorCtx(ctx, "Failed to save sys prod settings",
			logger.KeyStore, s.store.Name(),
			logger.Err(err))
		return ErrorStorage
	}

	logger.InfoCtx(ctx, "Sys prod settings updated",
		logger.KeyRegion, in.GameRegion.String(),
		"platform_region", in.PlatformRegion.String())
	return ErrorOK
}
