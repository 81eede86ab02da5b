// Package postgres provides a PostgreSQL document store for doctable.
//
// Document bodies are stored as jsonb. Note that jsonb normalizes key order
// and whitespace, so scanned bodies are semantically but not byte-for-byte
// equal to what was inserted.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"

	"github.com/leapstack-labs/doctable/pkg/store"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements store.Store for PostgreSQL.
type Store struct {
	store.BaseSQLStore
}

// New creates a new PostgreSQL store instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		BaseSQLStore: store.BaseSQLStore{
			Logger:      logger,
			Placeholder: placeholder,
		},
	}
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// Connect establishes a connection to PostgreSQL and applies pending migrations.
func (s *Store) Connect(ctx context.Context, cfg store.Config) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	s.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", buildDSN(cfg))
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	applyPool(db, params)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	return nil
}

func applyPool(db *sql.DB, p Params) {
	if p.MaxOpenConns > 0 {
		db.SetMaxOpenConns(p.MaxOpenConns)
	}
	if p.MaxIdleConns > 0 {
		db.SetMaxIdleConns(p.MaxIdleConns)
	}
	if p.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(p.ConnMaxIdleTime)
	}
}

// Ensure Store implements store.Store interface
var _ store.Store = (*Store)(nil)
