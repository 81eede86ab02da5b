package commands

import (
	"github.com/leapstack-labs/doctable/pkg/editor"
	"github.com/leapstack-labs/doctable/pkg/plugin"
	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "tables [table]",
		Short: "List tables or the fields of a table",
		Long: `List the tables of the datasource, or the top level fields of a table.

This runs the same option lookup the query editor uses to suggest tables
and fields.`,
		Example: `  # All tables
  doctable tables

  # Tables containing "wee"
  doctable tables --match wee

  # Fields of the tweets table
  doctable tables tweets`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := match
			if len(args) == 1 {
				query = args[0] + "." + match
			}
			return runTables(cmd, query)
		},
	}

	cmd.Flags().StringVar(&match, "match", "", "Only list names containing this text")

	return cmd
}

func runTables(cmd *cobra.Command, query string) error {
	cc := NewCommandContext(cmd)
	backend := cc.OpenBackend()
	defer func() { _ = backend.Close() }()

	// Option lookups never refresh, so the editor needs no panel.
	ed := editor.New(&plugin.Scope{
		Datasource: backend,
		Logger:     cc.Logger,
	})

	options, err := ed.FetchOptions(cmd.Context(), query)
	if err != nil {
		return err
	}

	rows := make([][]string, len(options))
	for i, o := range options {
		rows[i] = []string{o.Text}
	}
	return cc.Renderer.Render(options, []string{"name"}, rows)
}
