package mcp

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by a SettingsStore that holds no record yet.
var ErrNotFound = errors.New("sys prod settings not found")

// SettingsStore persists the settings record.
type SettingsStore interface {
	// Name identifies the backend in logs and traces.
	Name() string

	// Load returns the stored record, or ErrNotFound.
	Load(ctx context.Context) (*SysProdSettings, error)

	// Save replaces the stored record.
	Save(ctx context.Context, s *SysProdSettings) error

	// Close releases the backend.
	Close() error
}

// MemoryStore keeps the record in memory.
type MemoryStore struct {
	mu     sync.RWMutex
	record []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Load(ctx context.Context) (*SysProdSettings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.record == nil {
		return nil, ErrNotFound
	}
	var s SysProdSettings
	if err := s.UnmarshalBinary(m.record); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryStore) Save(ctx context.Context, s *SysProdSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := s.MarshalBinary()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = data
	return nil
}

func (m *MemoryStore) Close() error { return nil }
