// Package plugin provides the registration table a dashboard host uses to
// discover this datasource plugin.
//
// The host loads components by role name. Each role maps to a Binding that
// carries the component's template path and a factory building the
// component from a host supplied Scope. Concrete components register
// themselves from init():
//
//	import _ "github.com/leapstack-labs/doctable/pkg/editor" // QueryCtrl
//	import _ "github.com/leapstack-labs/doctable/pkg/client" // Datasource
//
// The three editor panels without behavior (ConfigCtrl, QueryOptionsCtrl,
// AnnotationsQueryCtrl) are registered by this package.
package plugin

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/doctable/pkg/core"
)

// Role is a component name recognized by the host plugin loader.
type Role string

// The fixed set of roles the host discovers.
const (
	RoleDatasource           Role = "Datasource"
	RoleQueryCtrl            Role = "QueryCtrl"
	RoleConfigCtrl           Role = "ConfigCtrl"
	RoleQueryOptionsCtrl     Role = "QueryOptionsCtrl"
	RoleAnnotationsQueryCtrl Role = "AnnotationsQueryCtrl"
)

// Template paths handed to the host's rendering layer. They are opaque here.
const (
	QueryEditorTemplate       = "partials/query.editor.html"
	ConfigTemplate            = "partials/config.html"
	QueryOptionsTemplate      = "partials/query.options.html"
	AnnotationsEditorTemplate = "partials/annotations.editor.html"
)

// Roles returns the roles in the order the host expects them.
func Roles() []Role {
	return []Role{
		RoleDatasource,
		RoleQueryCtrl,
		RoleConfigCtrl,
		RoleQueryOptionsCtrl,
		RoleAnnotationsQueryCtrl,
	}
}

// IsKnownRole reports whether r belongs to the fixed role set.
func IsKnownRole(r Role) bool {
	for _, known := range Roles() {
		if known == r {
			return true
		}
	}
	return false
}

// Panel is the host visual unit owning a query target.
type Panel interface {
	// Refresh re-executes the panel query and re-renders results.
	Refresh()
}

// PanelFunc adapts a function to the Panel interface.
type PanelFunc func()

// Refresh calls f.
func (f PanelFunc) Refresh() { f() }

// OptionSource looks up option values for the query editor.
type OptionSource interface {
	MetricFindQuery(ctx context.Context, query string) ([]core.MetricOption, error)
}

// Settings are the per-instance datasource settings entered in the config panel.
type Settings struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Scope is the context the host supplies when it instantiates a component.
type Scope struct {
	Target     *core.QueryTarget
	Panel      Panel
	Datasource OptionSource
	Settings   Settings
	Logger     *slog.Logger
}

// Factory builds a component for a scope.
type Factory func(scope *Scope) (any, error)

// Binding associates a role with its template and factory.
type Binding struct {
	Role        Role
	TemplateURL string
	New         Factory
}
