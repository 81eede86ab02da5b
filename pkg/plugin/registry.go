package plugin

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[Role]Binding)
)

// Register adds a binding to the registry, replacing any earlier binding for the role.
// Called by component packages in their init() functions.
// Register panics when the role is outside the fixed role set or the factory is nil.
func Register(b Binding) {
	if !IsKnownRole(b.Role) {
		panic(fmt.Sprintf("plugin: Register called with unknown role %q", b.Role))
	}
	if b.New == nil {
		panic(fmt.Sprintf("plugin: Register called with nil factory for role %q", b.Role))
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	registry[b.Role] = b
}

// Get retrieves the binding registered for a role.
func Get(role Role) (Binding, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := registry[role]
	return b, ok
}

// IsRegistered checks if a role has a binding.
func IsRegistered(role Role) bool {
	_, ok := Get(role)
	return ok
}

// Registered returns the registered role names (sorted).
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for role := range registry {
		names = append(names, string(role))
	}
	sort.Strings(names)
	return names
}

// Exports is the table handed to the host plugin loader: exactly one binding per role.
type Exports map[Role]Binding

// NewExports builds the export table from a datasource and a query editor binding.
// The remaining three roles are the marker panels of this package.
func NewExports(datasource, queryCtrl Factory) Exports {
	exports := Exports{
		RoleDatasource: {Role: RoleDatasource, New: datasource},
		RoleQueryCtrl:  {Role: RoleQueryCtrl, TemplateURL: QueryEditorTemplate, New: queryCtrl},
	}
	for _, b := range markerBindings() {
		exports[b.Role] = b
	}
	return exports
}

// RegisteredExports snapshots the global registry into an export table.
// It fails with *MissingRoleError when a role has no binding, which usually
// means a component package was not imported.
func RegisteredExports() (Exports, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	exports := make(Exports, len(Roles()))
	var missing []Role
	for _, role := range Roles() {
		b, ok := registry[role]
		if !ok {
			missing = append(missing, role)
			continue
		}
		exports[role] = b
	}
	if len(missing) > 0 {
		return nil, &MissingRoleError{Roles: missing}
	}
	return exports, nil
}

// Templates maps each role name to its template path. Roles without a template map to "".
func (e Exports) Templates() map[string]string {
	out := make(map[string]string, len(e))
	for role, b := range e {
		out[string(role)] = b.TemplateURL
	}
	return out
}

// Instantiate builds the component registered for name.
func (e Exports) Instantiate(name string, scope *Scope) (any, error) {
	role := Role(name)
	if !IsKnownRole(role) {
		return nil, &UnknownRoleError{Name: name, Available: roleNames()}
	}
	b, ok := e[role]
	if !ok {
		return nil, &MissingRoleError{Roles: []Role{role}}
	}
	if scope == nil {
		scope = &Scope{}
	}
	c, err := b.New(scope)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate %s: %w", role, err)
	}
	return c, nil
}

func roleNames() []string {
	roles := Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return names
}

// UnknownRoleError is returned when the host asks for a role outside the fixed set.
type UnknownRoleError struct {
	Name      string
	Available []string
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("unknown plugin role %q\nAvailable roles: %v", e.Name, e.Available)
}

// MissingRoleError is returned when roles have no registered binding.
type MissingRoleError struct {
	Roles []Role
}

func (e *MissingRoleError) Error() string {
	return fmt.Sprintf("no binding registered for %v\nHint: import the package providing the component", e.Roles)
}
