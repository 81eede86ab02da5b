package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/doctable/pkg/core"
	"github.com/leapstack-labs/doctable/pkg/editor"
	"github.com/leapstack-labs/doctable/pkg/plugin"
	"github.com/spf13/cobra"
)

const editPrompt = "doctable> "

// EditOptions holds options for the edit command.
type EditOptions struct {
	Table      string
	Condition  string
	TrackEmpty bool
}

// NewEditCommand creates the edit command.
func NewEditCommand() *cobra.Command {
	opts := &EditOptions{}

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit a query target interactively",
		Long: `Open an interactive query editor.

The editor behaves like the dashboard query editor: changing the table or
the condition re-runs the query, switching to raw mode does not. Lines not
starting with a dot replace the condition.

By default an edit only re-runs the query when the previous value was set.
--track-empty also re-runs it when a field is set for the first time.`,
		Example: `  doctable edit --table tweets
  doctable> {"likes": {"$gt": 5}}
  doctable> .table orders
  doctable> .quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEdit(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "Initial table")
	cmd.Flags().StringVar(&opts.Condition, "condition", "", "Initial JSON condition")
	cmd.Flags().BoolVar(&opts.TrackEmpty, "track-empty", false, "Re-run the query when an empty field is first set")

	return cmd
}

func runEdit(cmd *cobra.Command, opts *EditOptions) error {
	cc := NewCommandContext(cmd)
	backend := cc.OpenBackend()
	defer func() { _ = backend.Close() }()

	s := newEditSession(cmd.Context(), cc, backend, opts)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          editPrompt,
		HistoryFile:     ".doctable_history",
		AutoComplete:    s.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize editor: %w", err)
	}
	defer func() { _ = rl.Close() }()

	cc.Renderer.Println("doctable query editor")
	cc.Renderer.Println("Type .help for commands, .quit to exit")
	return s.run(rl)
}

type lineReader interface {
	Readline() (string, error)
}

type editSession struct {
	ctx       context.Context
	cc        *CommandContext
	backend   Backend
	target    *core.QueryTarget
	editor    *editor.QueryEditor
	refreshes int
}

func newEditSession(ctx context.Context, cc *CommandContext, backend Backend, opts *EditOptions) *editSession {
	s := &editSession{
		ctx:     ctx,
		cc:      cc,
		backend: backend,
		target: &core.QueryTarget{
			RefID:     "A",
			Table:     opts.Table,
			Condition: opts.Condition,
		},
	}

	var edOpts []editor.Option
	if opts.TrackEmpty {
		edOpts = append(edOpts, editor.WithEmptySnapshotTracking())
	}
	s.editor = editor.New(&plugin.Scope{
		Target:     s.target,
		Panel:      plugin.PanelFunc(s.refresh),
		Datasource: backend,
		Logger:     cc.Logger,
	}, edOpts...)
	return s
}

// refresh runs the target and renders the result. Errors are reported and
// the session continues.
func (s *editSession) refresh() {
	s.refreshes++
	metrics, err := s.backend.Query(s.ctx, &core.QueryRequest{Targets: []*core.QueryTarget{s.target}})
	if err == nil {
		err = renderMetrics(s.cc.Renderer, s.target, metrics)
	}
	if err != nil {
		s.cc.Renderer.Warning(err.Error())
	}
}

func (s *editSession) run(r lineReader) error {
	for {
		line, err := r.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if s.handle(strings.TrimSpace(line)) {
			return nil
		}
	}
}

// handle executes one editor line and reports whether the session ends.
func (s *editSession) handle(line string) bool {
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, ".") {
		s.target.Condition = line
		s.editor.ConditionChanged()
		return false
	}

	r := s.cc.Renderer
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(command) {
	case ".quit", ".exit":
		return true
	case ".help":
		r.Println(editHelp)
	case ".table":
		if arg == "" {
			r.Warning("usage: .table <name>")
			return false
		}
		s.target.Table = arg
		s.editor.TableChanged()
	case ".condition":
		s.target.Condition = arg
		s.editor.ConditionChanged()
	case ".raw":
		s.editor.ToggleMode()
		r.Muted(fmt.Sprintf("raw mode: %t", s.target.RawQuery))
	case ".refresh":
		s.editor.NotifyChanged()
	case ".options":
		options, err := s.editor.FetchOptions(s.ctx, arg)
		if err != nil {
			r.Warning(err.Error())
			return false
		}
		rows := make([][]string, len(options))
		for i, o := range options {
			rows[i] = []string{o.Text}
		}
		r.Table([]string{"name"}, rows)
	case ".target":
		if err := printTarget(r, s.target); err != nil {
			r.Warning(err.Error())
		}
	default:
		r.Warning(fmt.Sprintf("unknown command %s (type .help for commands)", command))
	}
	return false
}

// completer completes dot-commands and table names.
func (s *editSession) completer() *readline.PrefixCompleter {
	tables := func(string) []string {
		options, err := s.backend.MetricFindQuery(s.ctx, "")
		if err != nil {
			return nil
		}
		names := make([]string, len(options))
		for i, o := range options {
			names[i] = o.Text
		}
		return names
	}

	return readline.NewPrefixCompleter(
		readline.PcItem(".table", readline.PcItemDynamic(tables)),
		readline.PcItem(".condition"),
		readline.PcItem(".raw"),
		readline.PcItem(".refresh"),
		readline.PcItem(".options"),
		readline.PcItem(".target"),
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
	)
}

const editHelp = `
Commands:
  .table <name>       Select a table
  .condition [json]   Replace the condition, empty clears it
  <json>              Same as .condition <json>
  .raw                Toggle raw query mode
  .refresh            Re-run the query
  .options [text]     Look up tables, or fields with <table>.<text>
  .target             Print the current target
  .help               Show this help message
  .quit / .exit       Exit the editor
`
