package core

import (
	"context"
	"encoding/json"
)

// Document is a stored JSON document.
type Document struct {
	ID   string
	Body json.RawMessage
}

// Store defines the interface all document stores must implement.
type Store interface {
	// Connect establishes a connection to the store.
	Connect(ctx context.Context, cfg StoreConfig) error

	// Close releases the connection.
	Close() error

	// Ping verifies that the store is reachable.
	Ping(ctx context.Context) error

	// Tables lists table names in ascending order.
	Tables(ctx context.Context) ([]string, error)

	// CreateTable creates an empty table. Creating an existing table is a no-op.
	CreateTable(ctx context.Context, name string) error

	// Insert appends documents to a table, creating it when missing.
	Insert(ctx context.Context, table string, docs []Document) error

	// Scan calls fn for each document of table in insertion order.
	// Returning an error from fn stops the scan and returns that error.
	Scan(ctx context.Context, table string, fn func(Document) error) error
}

// StoreConfig holds configuration for connecting to a document store.
type StoreConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Options  map[string]string
	Params   map[string]any
}
