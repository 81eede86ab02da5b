package commands

import (
	"github.com/leapstack-labs/doctable/pkg/plugin"
	"github.com/spf13/cobra"
)

// ExportRow is one role of the plugin command's JSON output.
type ExportRow struct {
	Role     string `json:"role"`
	Template string `json:"template"`
}

// NewPluginCommand creates the plugin command.
func NewPluginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plugin",
		Short: "Show the components exported to the host",
		Long: `List the roles the host plugin loader discovers and the template each
component renders. Fails when a role has no registered component.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)

			exports, err := plugin.RegisteredExports()
			if err != nil {
				return err
			}
			templates := exports.Templates()

			var out []ExportRow
			var rows [][]string
			for _, role := range plugin.Roles() {
				tmpl := templates[string(role)]
				out = append(out, ExportRow{Role: string(role), Template: tmpl})
				if tmpl == "" {
					tmpl = "-"
				}
				rows = append(rows, []string{string(role), tmpl})
			}
			return cc.Renderer.Render(out, []string{"role", "template"}, rows)
		},
	}
}
