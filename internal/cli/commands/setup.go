// Package commands implements the doctable CLI commands.
package commands

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/doctable/internal/cli/config"
	"github.com/leapstack-labs/doctable/internal/cli/output"
	sharedcfg "github.com/leapstack-labs/doctable/internal/config"
	"github.com/leapstack-labs/doctable/internal/datasource"
	"github.com/leapstack-labs/doctable/pkg/client"
	"github.com/leapstack-labs/doctable/pkg/core"
	"github.com/spf13/cobra"
)

// Backend is the datasource a command talks to: a remote doctable server
// when a URL is configured, the configured store otherwise.
type Backend interface {
	MetricFindQuery(ctx context.Context, query string) ([]core.MetricOption, error)
	Query(ctx context.Context, req *core.QueryRequest) ([]core.Metrics, error)
	Status(ctx context.Context) (core.DatasourceStatus, error)
	Close() error
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// NewService creates a datasource service on the configured store.
func (c *CommandContext) NewService(opts ...datasource.Option) *datasource.Service {
	return datasource.New(c.Cfg.Store.ToCore(), c.Cfg.Datasource, c.Logger, opts...)
}

// OpenBackend returns the backend commands query. The caller closes it.
func (c *CommandContext) OpenBackend() Backend {
	if c.Cfg.URL != "" {
		c.Logger.Debug("using remote datasource", "url", c.Cfg.URL)
		return &remoteBackend{client.New(c.Cfg.URL, client.WithLogger(c.Logger))}
	}
	c.Logger.Debug("using local store", "type", c.Cfg.Store.Type)
	return &localBackend{c.NewService()}
}

type remoteBackend struct {
	*client.Client
}

func (b *remoteBackend) Status(ctx context.Context) (core.DatasourceStatus, error) {
	return b.TestDatasource(ctx)
}

func (b *remoteBackend) Close() error { return nil }

type localBackend struct {
	*datasource.Service
}

func (b *localBackend) Status(ctx context.Context) (core.DatasourceStatus, error) {
	return b.Service.Status(ctx), nil
}

// getConfig returns the current configuration, or the defaults with an
// in-memory store when no configuration was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	store := &config.StoreConfig{Type: "memory"}
	sharedcfg.ApplyStoreDefaults(store)
	cfg := &config.Config{
		OutputFormat: config.DefaultOutput,
		Store:        store,
	}
	sharedcfg.ApplyServerDefaults(&cfg.Server)
	sharedcfg.ApplyDatasourceDefaults(&cfg.Datasource)
	return cfg
}
