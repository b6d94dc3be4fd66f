// Package backend builds the record store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"society/internal/ledger"
	"society/internal/ledger/memory"
	"society/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend. Reference records always
// come from the seed; the backend type decides where settlements and
// batches live.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	mem, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("load seed records: %w", err)
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config, mem)
	case MemoryBackend:
		f.logger.Info("Initialized memory backend", "seed", seedName(config.SeedFile))
		return &BackendResult{Store: mem, Cleanup: func() error { return nil }}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// createSQLiteBackend persists settlements and batches in SQLite, seeding
// the settlements table on first start.
func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config, mem *memory.Store) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	seed, err := mem.Settlements(ctx)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	seeded, err := repo.SeedSettlements(ctx, seed)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("seed settlements: %w", err)
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"seeded", seeded)

	return &BackendResult{
		Store:   ledger.Combine(mem, repo),
		Cleanup: repo.Close,
	}, nil
}

func seedName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}
