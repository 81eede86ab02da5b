package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// SeedResult is the JSON output of the seed command.
type SeedResult struct {
	Table     string `json:"table"`
	File      string `json:"file"`
	Documents int    `json:"documents"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <table> <file>",
		Short: "Load documents into a table",
		Long: `Load documents from a JSON array or newline delimited JSON file into a
table of the configured store. Use "-" to read from standard input.

Documents with an "_id" replace the stored document with the same id; the
others get a generated id.`,
		Example: `  # Load a JSON array
  doctable seed tweets tweets.json

  # Load NDJSON from stdin
  cat events.ndjson | doctable seed events -`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args[0], args[1])
		},
	}
}

func runSeed(cmd *cobra.Command, table, file string) error {
	cc := NewCommandContext(cmd)
	if cc.Cfg.URL != "" {
		cc.Renderer.Warning("seed writes to the configured store, --url is ignored")
	}

	var in io.Reader = cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("failed to open seed file: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	svc := cc.NewService()
	defer func() { _ = svc.Close() }()

	n, err := svc.Seed(cmd.Context(), table, in)
	if err != nil {
		return err
	}

	r := cc.Renderer
	if r.Structured() {
		return r.Encode(SeedResult{Table: table, File: file, Documents: n})
	}
	r.Success(fmt.Sprintf("Loaded %d documents into %s", n, table))
	return nil
}
