// Package datasource executes dashboard queries against a document store.
//
// A Service lazily connects to the configured store on first use, retrying
// a bounded number of times, and keeps the connection for its lifetime.
// Query targets of one request run concurrently; results keep target order.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	sharedcfg "github.com/leapstack-labs/doctable/internal/config"
	"github.com/leapstack-labs/doctable/pkg/core"
	"github.com/leapstack-labs/doctable/pkg/store"
)

// maxConcurrentTargets bounds the goroutines used by a single Query call.
const maxConcurrentTargets = 8

// TargetHook observes the execution of a single query target.
type TargetHook func(target *core.QueryTarget, elapsed time.Duration, err error)

// Service answers status, query, search and annotation requests.
type Service struct {
	storeCfg core.StoreConfig
	cfg      sharedcfg.DatasourceConfig
	logger   *slog.Logger
	newStore func() (store.Store, error)
	hook     TargetHook

	mu     sync.Mutex
	store  store.Store
	status core.DatasourceStatus
}

// Option configures a Service.
type Option func(*Service)

// WithStore makes the service connect st instead of creating a store from
// the registry.
func WithStore(st store.Store) Option {
	return func(s *Service) {
		s.newStore = func() (store.Store, error) { return st, nil }
	}
}

// WithTargetHook registers a hook called after every executed target.
func WithTargetHook(h TargetHook) Option {
	return func(s *Service) {
		s.hook = h
	}
}

// New creates a service. Zero valued datasource settings take their defaults.
func New(storeCfg core.StoreConfig, cfg sharedcfg.DatasourceConfig, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sharedcfg.ApplyDatasourceDefaults(&cfg)

	s := &Service{
		storeCfg: storeCfg,
		cfg:      cfg,
		logger:   logger,
		status:   core.StatusError("store connection not attempted"),
	}
	s.newStore = func() (store.Store, error) {
		return store.NewStore(s.storeCfg, s.logger)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// connect returns the connected store, establishing the connection if needed.
func (s *Service) connect(ctx context.Context) (store.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		return s.store, nil
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.ConnectAttempts; attempt++ {
		s.logger.Debug("connecting to store", "type", s.storeCfg.Type, "attempt", attempt)

		st, err := s.newStore()
		if err == nil {
			err = st.Connect(ctx, s.storeCfg)
		}
		if err == nil {
			s.store = st
			s.status = core.StatusOK()
			return st, nil
		}

		lastErr = err
		s.status = core.StatusError("Can not connect to store", err.Error())
		s.logger.Warn("store connection attempt failed", "attempt", attempt, "error", err)

		// Unknown store types never succeed.
		var unknown *store.UnknownStoreError
		if errors.As(err, &unknown) {
			break
		}
		if attempt == s.cfg.ConnectAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.cfg.ConnectRetryDelay):
		}
	}

	return nil, fmt.Errorf("store connection can not be established after %d attempts: %w", s.cfg.ConnectAttempts, lastErr)
}

// Status connects if necessary and reports whether the store is reachable.
func (s *Service) Status(ctx context.Context) core.DatasourceStatus {
	st, err := s.connect(ctx)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.status
	}
	if err := st.Ping(ctx); err != nil {
		return core.StatusError("Store is not reachable", err.Error())
	}
	return core.StatusOK()
}

// Tables lists the tables of the store.
func (s *Service) Tables(ctx context.Context) ([]string, error) {
	st, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	return st.Tables(ctx)
}

// Close releases the store connection. The service reconnects on next use.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}
