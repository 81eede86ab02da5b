package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// BaseSQLStore provides common database/sql functionality for stores.
// Embed this struct in concrete store implementations to get the
// document table operations on top of the shared schema:
//
//	doc_tables(name)
//	documents(seq, table_name, id, body)
type BaseSQLStore struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger

	// Placeholder renders the n-th (1-based) bind parameter. Defaults to "?".
	Placeholder func(n int) string
}

func (b *BaseSQLStore) ph(n int) string {
	if b.Placeholder == nil {
		return "?"
	}
	return b.Placeholder(n)
}

func (b *BaseSQLStore) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

// Close closes the database connection.
func (b *BaseSQLStore) Close() error {
	if b.DB != nil {
		b.logger().Debug("closing store connection")
		return b.DB.Close()
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLStore) IsConnected() bool {
	return b.DB != nil
}

// Ping verifies the connection is alive.
func (b *BaseSQLStore) Ping(ctx context.Context) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	if err := b.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping store: %w", err)
	}
	return nil
}

// Tables lists table names in ascending order.
func (b *BaseSQLStore) Tables(ctx context.Context) ([]string, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}

	rows, err := b.DB.QueryContext(ctx, "SELECT name FROM doc_tables ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return names, nil
}

// CreateTable registers an empty table. Existing tables are left untouched.
func (b *BaseSQLStore) CreateTable(ctx context.Context, name string) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	if err := ValidateTableName(name); err != nil {
		return err
	}
	if _, err := b.DB.ExecContext(ctx, b.createTableSQL(), name); err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}
	return nil
}

func (b *BaseSQLStore) createTableSQL() string {
	return fmt.Sprintf("INSERT INTO doc_tables (name) VALUES (%s) ON CONFLICT (name) DO NOTHING", b.ph(1))
}

func (b *BaseSQLStore) upsertSQL() string {
	return fmt.Sprintf(
		"INSERT INTO documents (table_name, id, body) VALUES (%s, %s, %s) "+
			"ON CONFLICT (table_name, id) DO UPDATE SET body = excluded.body",
		b.ph(1), b.ph(2), b.ph(3))
}

// Insert writes documents to table in a single transaction, creating the
// table when missing. Documents with an existing id replace the stored body.
func (b *BaseSQLStore) Insert(ctx context.Context, table string, docs []Document) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	if err := ValidateTableName(table); err != nil {
		return err
	}
	AssignIDs(docs)

	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, b.createTableSQL(), table); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, b.upsertSQL())
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, doc := range docs {
		if _, err := stmt.ExecContext(ctx, table, doc.ID, string(doc.Body)); err != nil {
			return fmt.Errorf("failed to insert document %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit documents: %w", err)
	}
	b.logger().Debug("inserted documents", slog.String("table", table), slog.Int("count", len(docs)))
	return nil
}

// Scan streams the documents of table in insertion order.
func (b *BaseSQLStore) Scan(ctx context.Context, table string, fn func(Document) error) error {
	if b.DB == nil {
		return ErrNotConnected
	}

	var exists int
	err := b.DB.QueryRowContext(ctx,
		fmt.Sprintf("SELECT 1 FROM doc_tables WHERE name = %s", b.ph(1)), table).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	if err != nil {
		return fmt.Errorf("failed to look up table %s: %w", table, err)
	}

	//nolint:rowserrcheck // rows.Err() is checked after the loop
	rows, err := b.DB.QueryContext(ctx,
		fmt.Sprintf("SELECT id, body FROM documents WHERE table_name = %s ORDER BY seq", b.ph(1)), table)
	if err != nil {
		return fmt.Errorf("failed to scan table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var doc Document
		var body []byte
		if err := rows.Scan(&doc.ID, &body); err != nil {
			return fmt.Errorf("failed to read document: %w", err)
		}
		doc.Body = body
		if err := fn(doc); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating documents: %w", err)
	}
	return nil
}

// ValidateTableName rejects empty names and names with surrounding whitespace.
func ValidateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name is empty")
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("table name %q has surrounding whitespace", name)
	}
	return nil
}
