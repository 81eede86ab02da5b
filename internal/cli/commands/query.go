package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/doctable/internal/cli/output"
	"github.com/leapstack-labs/doctable/internal/condition"
	"github.com/leapstack-labs/doctable/pkg/core"
	"github.com/leapstack-labs/doctable/pkg/editor"
	"github.com/leapstack-labs/doctable/pkg/plugin"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Table       string
	Condition   string
	Type        string
	Limit       int64
	Raw         bool
	TimeField   string
	Metric      string
	MetricField string
	Select      []string
	From        string
	To          string
	Interval    time.Duration
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query documents of a table",
		Long: `Run a query target against the datasource and render the result.

Raw Document queries list matching documents. Timeseries queries bucket
documents by --time-field and aggregate them with --metric.

Conditions are JSON documents, for example {"likes": {"$gt": 3}}.
Invalid conditions are logged and the query runs without them.`,
		Example: `  # Raw documents
  doctable query --table tweets --condition '{"author": "user1"}'

  # Only some fields
  doctable query --table tweets --select author --select likes

  # Daily sum of likes
  doctable query --table tweets --type Timeseries --time-field time \
    --metric "Field Sum" --metric-field likes --interval 24h

  # Print the target before running it
  doctable query --table tweets --raw -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "Table to query")
	cmd.Flags().StringVar(&opts.Condition, "condition", "", "JSON condition documents must match")
	cmd.Flags().StringVar(&opts.Type, "type", "", `Query type ("Raw Document" or "Timeseries")`)
	cmd.Flags().Int64Var(&opts.Limit, "limit", 0, "Maximum number of raw documents")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "Switch the editor to raw mode and print the target")
	cmd.Flags().StringVar(&opts.TimeField, "time-field", "", "Document field holding the timestamp")
	cmd.Flags().StringVar(&opts.Metric, "metric", core.MetricDocumentCount, "Time series metric")
	cmd.Flags().StringVar(&opts.MetricField, "metric-field", "", "Document field aggregated by the metric")
	cmd.Flags().StringArrayVar(&opts.Select, "select", nil, "Field to keep in raw documents (repeatable)")
	cmd.Flags().StringVar(&opts.From, "from", "", "Range start (RFC3339)")
	cmd.Flags().StringVar(&opts.To, "to", "", "Range end (RFC3339, default now)")
	cmd.Flags().DurationVar(&opts.Interval, "interval", time.Hour, "Time series bucket size")
	_ = cmd.MarkFlagRequired("table")

	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{core.TypeRawDocument, core.TypeTimeSeries}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("metric", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{
			core.MetricDocumentCount, core.MetricFieldValue, core.MetricFieldMin,
			core.MetricFieldMax, core.MetricFieldAverage, core.MetricFieldSum,
		}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	if opts.Type != "" && opts.Type != core.TypeRawDocument && opts.Type != core.TypeTimeSeries {
		return fmt.Errorf("unknown query type %q\nHint: use %q or %q", opts.Type, core.TypeRawDocument, core.TypeTimeSeries)
	}
	if opts.Type == core.TypeTimeSeries && !core.IsKnownMetric(opts.Metric) {
		return fmt.Errorf("unknown metric %q", opts.Metric)
	}

	rng, err := parseRange(opts.From, opts.To)
	if err != nil {
		return err
	}

	backend := cc.OpenBackend()
	defer func() { _ = backend.Close() }()

	target := &core.QueryTarget{
		RefID:        "A",
		Type:         opts.Type,
		Table:        opts.Table,
		Condition:    opts.Condition,
		Limit:        opts.Limit,
		TimeField:    opts.TimeField,
		Metric:       opts.Metric,
		MetricField:  opts.MetricField,
		SelectFields: opts.Select,
	}

	// The panel executes the editor's target each time the editor asks for a refresh.
	var queryErr error
	panel := plugin.PanelFunc(func() {
		req := &core.QueryRequest{
			Range:      rng,
			IntervalMs: opts.Interval.Milliseconds(),
			Targets:    []*core.QueryTarget{target},
		}
		metrics, err := backend.Query(ctx, req)
		if err != nil {
			queryErr = err
			return
		}
		queryErr = renderMetrics(cc.Renderer, target, metrics)
	})

	ed := editor.New(&plugin.Scope{
		Target:     target,
		Panel:      panel,
		Datasource: backend,
		Logger:     cc.Logger,
	})
	if opts.Raw {
		ed.ToggleMode()
		if err := printTarget(cc.Renderer, ed.Target()); err != nil {
			return err
		}
	}

	ed.NotifyChanged()
	return queryErr
}

// parseRange parses an RFC3339 range. An empty from means no range.
func parseRange(from, to string) (*core.Range, error) {
	if from == "" {
		if to != "" {
			return nil, fmt.Errorf("--to requires --from")
		}
		return nil, nil
	}
	start, err := time.Parse(time.RFC3339, from)
	if err != nil {
		return nil, fmt.Errorf("invalid --from: %w", err)
	}
	end := time.Now()
	if to != "" {
		end, err = time.Parse(time.RFC3339, to)
		if err != nil {
			return nil, fmt.Errorf("invalid --to: %w", err)
		}
	}
	if end.Before(start) {
		return nil, fmt.Errorf("range end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return &core.Range{From: start, To: end}, nil
}

func printTarget(r *output.Renderer, target *core.QueryTarget) error {
	b, err := json.MarshalIndent(target, "", "  ")
	if err != nil {
		return err
	}
	r.Muted(string(b))
	return nil
}

func renderMetrics(r *output.Renderer, target *core.QueryTarget, metrics []core.Metrics) error {
	if r.Structured() {
		return r.Encode(metrics)
	}

	for _, m := range metrics {
		switch m := m.(type) {
		case *core.RawDocuments:
			header, rows := documentRows(m.Datapoints, target.SelectFields)
			r.Table(header, rows)
		case *core.TimeSeries:
			rows := make([][]string, len(m.Datapoints))
			for i, dp := range m.Datapoints {
				rows[i] = []string{
					m.Target,
					time.UnixMilli(dp.Timestamp).UTC().Format(time.RFC3339),
					strconv.FormatFloat(dp.Value, 'f', -1, 64),
				}
			}
			r.Table([]string{"target", "time", "value"}, rows)
		}
	}
	if len(metrics) == 0 {
		r.Println("(0 rows)")
	}
	return nil
}

// documentRows tabulates documents. Selected fields become columns; without
// a selection each document is a single JSON column.
func documentRows(docs []json.RawMessage, fields []string) ([]string, [][]string) {
	rows := make([][]string, len(docs))
	if len(fields) == 0 {
		for i, doc := range docs {
			rows[i] = []string{strings.TrimSpace(string(doc))}
		}
		return []string{"document"}, rows
	}

	for i, doc := range docs {
		row := make([]string, len(fields))
		for j, f := range fields {
			row[j] = gjson.GetBytes(doc, condition.Path(f)).String()
		}
		rows[i] = row
	}
	return fields, rows
}
