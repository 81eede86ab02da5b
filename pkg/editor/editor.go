// Package editor implements the query editor controller of the datasource plugin.
//
// The host creates one QueryEditor per panel query. The editor fills in the
// target defaults, tracks the table and condition fields so that edits
// trigger a panel refresh, and forwards option lookups to the datasource.
package editor

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/doctable/pkg/core"
	"github.com/leapstack-labs/doctable/pkg/plugin"
)

// Default target values applied at construction.
const (
	DefaultType  = core.TypeRawDocument
	DefaultLimit = core.DefaultLimit
)

// QueryEditor is the query editor controller. It is not safe for concurrent
// use; the host drives it from a single goroutine.
type QueryEditor struct {
	target     *core.QueryTarget
	panel      plugin.Panel
	datasource plugin.OptionSource
	logger     *slog.Logger

	table     fieldWatch
	condition fieldWatch
}

// Option configures a QueryEditor.
type Option func(*QueryEditor)

// WithEmptySnapshotTracking makes an empty previous value count as a change.
//
// By default a refresh is only requested when the previous snapshot was
// non-empty, so setting a table on a fresh target does not refresh the
// panel. With this option the first edit after construction refreshes too.
// Construction itself never refreshes.
func WithEmptySnapshotTracking() Option {
	return func(e *QueryEditor) {
		e.table.trackEmpty = true
		e.condition.trackEmpty = true
	}
}

// New initializes a query editor for the scope's target: it applies the
// target defaults and primes the table and condition snapshots.
// A nil scope target is replaced with an empty target.
func New(scope *plugin.Scope, opts ...Option) *QueryEditor {
	if scope == nil {
		scope = &plugin.Scope{}
	}
	if scope.Target == nil {
		scope.Target = &core.QueryTarget{}
	}
	logger := scope.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := &QueryEditor{
		target:     scope.Target,
		panel:      scope.Panel,
		datasource: scope.Datasource,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}

	ApplyDefaults(e.target)

	e.TableChanged()
	e.ConditionChanged()

	return e
}

// ApplyDefaults fills zero-valued type and limit. Set values are preserved.
func ApplyDefaults(t *core.QueryTarget) {
	if t == nil {
		return
	}
	if t.Type == "" {
		t.Type = DefaultType
	}
	if t.Limit == 0 {
		t.Limit = DefaultLimit
	}
}

// Target returns the target the editor mutates.
func (e *QueryEditor) Target() *core.QueryTarget {
	return e.target
}

// TemplateURL returns the query editor template.
func (e *QueryEditor) TemplateURL() string {
	return plugin.QueryEditorTemplate
}

// TableChanged compares the target table against the last observed value
// and refreshes the panel when it changed.
func (e *QueryEditor) TableChanged() {
	if e.table.observe(e.target.Table) {
		e.logger.Debug("table changed, refreshing", "table", e.target.Table)
		e.refresh()
	}
}

// ConditionChanged compares the target condition against the last observed
// value and refreshes the panel when it changed.
func (e *QueryEditor) ConditionChanged() {
	if e.condition.observe(e.target.Condition) {
		e.logger.Debug("condition changed, refreshing", "condition", e.target.Condition)
		e.refresh()
	}
}

// TableSnapshot returns the last observed table value.
func (e *QueryEditor) TableSnapshot() string {
	return e.table.last
}

// ConditionSnapshot returns the last observed condition value.
func (e *QueryEditor) ConditionSnapshot() string {
	return e.condition.last
}

// FetchOptions forwards query unmodified to the datasource option lookup
// and returns its result unmodified.
func (e *QueryEditor) FetchOptions(ctx context.Context, query string) ([]core.MetricOption, error) {
	return e.datasource.MetricFindQuery(ctx, query)
}

// ToggleMode flips the raw query editor mode. It does not refresh.
func (e *QueryEditor) ToggleMode() {
	e.target.RawQuery = !e.target.RawQuery
}

// NotifyChanged asks the panel to refresh.
func (e *QueryEditor) NotifyChanged() {
	e.refresh()
}

func (e *QueryEditor) refresh() {
	e.panel.Refresh()
}

func init() {
	plugin.Register(plugin.Binding{
		Role:        plugin.RoleQueryCtrl,
		TemplateURL: plugin.QueryEditorTemplate,
		New: func(scope *plugin.Scope) (any, error) {
			return New(scope), nil
		},
	})
}
