// Package api serves the datasource backend over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	sharedcfg "github.com/leapstack-labs/doctable/internal/config"
	"golang.org/x/sync/errgroup"
)

// Server is the datasource HTTP server.
type Server struct {
	backend  Backend
	seeder   Seeder
	cfg      sharedcfg.ServerConfig
	metrics  *Metrics
	logger   *slog.Logger
	seedDir  string
	watch    bool
	notifier *Notifier
}

// Config holds configuration for the server.
type Config struct {
	Backend Backend
	Server  sharedcfg.ServerConfig
	Metrics *Metrics
	Logger  *slog.Logger

	// Seeder loads SeedDir at startup. Required when SeedDir is set.
	Seeder  Seeder
	SeedDir string
	// Watch re-seeds files of SeedDir when they change.
	Watch bool
}

// NewServer creates a new server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	sharedcfg.ApplyServerDefaults(&cfg.Server)

	return &Server{
		backend:  cfg.Backend,
		seeder:   cfg.Seeder,
		cfg:      cfg.Server,
		metrics:  metrics,
		logger:   logger,
		seedDir:  cfg.SeedDir,
		watch:    cfg.Watch,
		notifier: NewNotifier(),
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		requestLogger(s.logger),
		middleware.Recoverer,
		cors(s.cfg.CORSOrigins),
		s.metrics.Middleware,
	)

	r.Get("/", s.handleStatus)
	r.Post("/query", s.handleQuery)
	r.Post("/search", s.handleSearch)
	r.Post("/annotations", s.handleAnnotations)
	r.Get("/plugin", s.handlePlugin)
	r.Get("/events", s.handleEvents)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	return r
}

// Notifier returns the notifier that publishes a SeedEvent per seeded file.
func (s *Server) Notifier() *Notifier {
	return s.notifier
}

// Serve listens on the configured port and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until the context is cancelled, then shuts down gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting datasource server", "addr", ln.Addr().String())

	if s.seedDir != "" {
		if err := s.seedAll(ctx); err != nil {
			_ = ln.Close()
			return err
		}
	}

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	if s.seedDir != "" && s.watch {
		eg.Go(func() error {
			return s.watchSeeds(egctx)
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down datasource server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
