// Package sqlite provides a SQLite document store for doctable.
//
// Documents are kept as JSON text in a single documents table keyed by
// table name. The schema is managed with goose migrations embedded in the
// binary. Use ":memory:" as the path for a throwaway database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/leapstack-labs/doctable/pkg/store"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements store.Store for SQLite.
type Store struct {
	store.BaseSQLStore
}

// New creates a new SQLite store instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		BaseSQLStore: store.BaseSQLStore{Logger: logger},
	}
}

// Connect opens the database file and applies pending migrations.
func (s *Store) Connect(ctx context.Context, cfg store.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	s.Logger.Debug("opening sqlite store", slog.String("path", path))

	db, err := sql.Open("sqlite", buildDSN(path, params))
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if isMemory(path) {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.DB = db
	s.Cfg = cfg
	return nil
}

// migrate runs all pending schema migrations.
func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Ensure Store implements store.Store interface
var _ store.Store = (*Store)(nil)
