package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/doctable/internal/api"
	"github.com/leapstack-labs/doctable/internal/datasource"
	"github.com/spf13/cobra"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	SeedDir string
	Watch   bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the datasource HTTP server",
		Long: `Start the HTTP backend the dashboard datasource talks to.

Routes:
  GET  /             connection test
  POST /query        run query targets
  POST /search       table and field lookup
  POST /annotations  annotation events
  GET  /plugin       exported plugin components
  GET  /metrics      Prometheus metrics

With --seed-dir every .json, .ndjson and .jsonl file of the directory is
loaded into the table named after the file before the server starts.`,
		Example: `  # Serve the configured store on port 8080
  doctable serve

  # Serve an in-memory store loaded from ./seeds, reloading on change
  doctable serve --store memory --seed-dir ./seeds --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cc := NewCommandContext(cmd)
			ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cc.Cfg.Server.Port))
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}
			return runServe(ctx, cc, opts, ln)
		},
	}

	cmd.Flags().StringVar(&opts.SeedDir, "seed-dir", "", "Directory of seed files loaded at startup")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Reload seed files when they change")

	return cmd
}

func runServe(ctx context.Context, cc *CommandContext, opts *ServeOptions, ln net.Listener) error {
	if opts.Watch && opts.SeedDir == "" {
		_ = ln.Close()
		return fmt.Errorf("--watch requires --seed-dir")
	}

	metrics := api.NewMetrics()
	svc := cc.NewService(datasource.WithTargetHook(metrics.ObserveTarget))
	defer func() { _ = svc.Close() }()

	srv := api.NewServer(api.Config{
		Backend: svc,
		Server:  cc.Cfg.Server,
		Metrics: metrics,
		Logger:  cc.Logger,
		Seeder:  svc,
		SeedDir: opts.SeedDir,
		Watch:   opts.Watch,
	})

	cc.Renderer.Muted(fmt.Sprintf("Serving %s store on http://%s", cc.Cfg.Store.Type, ln.Addr()))
	return srv.ServeListener(ctx, ln)
}
