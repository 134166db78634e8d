// Package badger persists the MCP settings record in BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/cafefs/internal/logger"
	"github.com/marmos91/cafefs/pkg/mcp"
)

// keySysProd is the key of the raw settings record.
const keySysProd = "mcp/sys_prod"

// Store is a BadgerDB-backed mcp.SettingsStore.
type Store struct {
	db   *badgerdb.DB
	path string
}

// Open opens (or creates) a store in dir.
func Open(dir string) (*Store, error) {
	opts := badgerdb.DefaultOptions(dir).WithLogger(nil)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store at %s: %w", dir, err)
	}
	logger.Debug("MCP settings store opened", logger.KeyStore, "badger", logger.Path(dir))
	return &Store{db: db, path: dir}, nil
}

// OpenInMemory opens a store that lives only in memory.
func OpenInMemory() (*Store, error) {
	opts := badgerdb.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory badger store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Name() string { return "badger" }

// Load returns the stored record, or mcp.ErrNotFound.
func (s *Store) Load(ctx context.Context) (*mcp.SysProdSettings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var settings mcp.SysProdSettings
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySysProd))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return mcp.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return settings.UnmarshalBinary(val)
		})
	})
	if err != nil {
		if errors.Is(err, mcp.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load sys prod settings: %w", err)
	}
	return &settings, nil
}

// Save replaces the stored record.
func (s *Store) Save(ctx context.Context, settings *mcp.SysProdSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := settings.MarshalBinary()
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		if err := txn.Set([]byte(keySysProd), data); err != nil {
			return fmt.Errorf("failed to store sys prod settings: %w", err)
		}
		return nil
	})
}

// Healthcheck verifies the database still serves reads.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.View(func(*badgerdb.Txn) error { return nil }); err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
