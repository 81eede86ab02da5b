// Package memory provides an in-process document store.
//
// Contents live for the lifetime of the Store value; Close discards them.
// It backs tests and `doctable serve` demos that seed data at startup.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/leapstack-labs/doctable/pkg/store"
)

type table struct {
	docs  []store.Document
	index map[string]int
}

// Store implements store.Store in memory. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	tables    map[string]*table
	connected bool
	logger    *slog.Logger
}

// New creates a new, unconnected memory store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{logger: logger}
}

// Connect prepares an empty store. Connecting twice keeps existing contents.
func (s *Store) Connect(_ context.Context, _ store.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tables == nil {
		s.tables = make(map[string]*table)
	}
	s.connected = true
	return nil
}

// Close discards all tables.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = nil
	s.connected = false
	return nil
}

// Ping reports ErrNotConnected until Connect is called.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return store.ErrNotConnected
	}
	return nil
}

// Tables lists table names in ascending order.
func (s *Store) Tables(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return nil, store.ErrNotConnected
	}
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CreateTable registers an empty table.
func (s *Store) CreateTable(_ context.Context, name string) error {
	if err := store.ValidateTableName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return store.ErrNotConnected
	}
	s.ensure(name)
	return nil
}

func (s *Store) ensure(name string) *table {
	t, ok := s.tables[name]
	if !ok {
		t = &table{index: make(map[string]int)}
		s.tables[name] = t
	}
	return t
}

// Insert appends documents, replacing bodies of documents whose id exists.
func (s *Store) Insert(_ context.Context, name string, docs []store.Document) error {
	if err := store.ValidateTableName(name); err != nil {
		return err
	}
	store.AssignIDs(docs)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return store.ErrNotConnected
	}
	t := s.ensure(name)
	for _, doc := range docs {
		doc.Body = append([]byte(nil), doc.Body...)
		if i, ok := t.index[doc.ID]; ok {
			t.docs[i] = doc
			continue
		}
		t.index[doc.ID] = len(t.docs)
		t.docs = append(t.docs, doc)
	}
	s.logger.Debug("inserted documents", slog.String("table", name), slog.Int("count", len(docs)))
	return nil
}

// Scan iterates a snapshot of the table, so fn may call back into the store.
func (s *Store) Scan(ctx context.Context, name string, fn func(store.Document) error) error {
	s.mu.RLock()
	if !s.connected {
		s.mu.RUnlock()
		return store.ErrNotConnected
	}
	t, ok := s.tables[name]
	if !ok {
		s.mu.RUnlock()
		return fmt.Errorf("%w: %s", store.ErrTableNotFound, name)
	}
	docs := make([]store.Document, len(t.docs))
	copy(docs, t.docs)
	s.mu.RUnlock()

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

// Ensure Store implements store.Store interface
var _ store.Store = (*Store)(nil)

func init() {
	store.Register("memory", func(logger *slog.Logger) store.Store { return New(logger) })
}
