package commands

import (
	"errors"

	"github.com/spf13/cobra"
)

// ErrUnhealthy is returned by the status command when the datasource can not
// reach its store.
var ErrUnhealthy = errors.New("datasource is not healthy")

// NewStatusCommand creates the status command.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Test the datasource connection",
		Long: `Test whether the datasource can reach its document store.

With --url the status of a running doctable server is requested, otherwise
the configured store is connected directly.`,
		Example: `  # Check the local store
  doctable status

  # Check a running server
  doctable status --url http://localhost:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd)
		},
	}
}

func runStatus(cmd *cobra.Command) error {
	cc := NewCommandContext(cmd)
	backend := cc.OpenBackend()
	defer func() { _ = backend.Close() }()

	status, err := backend.Status(cmd.Context())
	if err != nil {
		return err
	}

	r := cc.Renderer
	rows := [][]string{}
	if status.OK {
		rows = append(rows, []string{"ok", "Data source is working"})
	}
	for _, msg := range status.Errors {
		rows = append(rows, []string{"error", msg})
	}
	if err := r.Render(status, []string{"status", "message"}, rows); err != nil {
		return err
	}

	if !status.OK {
		return ErrUnhealthy
	}
	return nil
}
