package plugin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDatasource struct{ url string }

func fakeFactory(name string) Factory {
	return func(scope *Scope) (any, error) {
		return fakeDatasource{url: name + ":" + scope.Settings.URL}, nil
	}
}

func TestUnknownRoleError_Error(t *testing.T) {
	err := &UnknownRoleError{Name: "PanelCtrl", Available: roleNames()}

	msg := err.Error()
	assert.Contains(t, msg, "PanelCtrl", "error should mention the unknown role")
	assert.Contains(t, msg, "QueryCtrl", "error should list available roles")
}

func TestMissingRoleError_Error(t *testing.T) {
	err := &MissingRoleError{Roles: []Role{RoleDatasource}}
	assert.Contains(t, err.Error(), "Datasource")
	assert.Contains(t, err.Error(), "import")
}

func TestMarkerPanelsSelfRegister(t *testing.T) {
	tests := []struct {
		role     Role
		template string
	}{
		{RoleConfigCtrl, ConfigTemplate},
		{RoleQueryOptionsCtrl, QueryOptionsTemplate},
		{RoleAnnotationsQueryCtrl, AnnotationsEditorTemplate},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			b, ok := Get(tt.role)
			require.True(t, ok, "%s should be registered by init()", tt.role)
			assert.Equal(t, tt.template, b.TemplateURL)

			c, err := b.New(&Scope{})
			require.NoError(t, err)
			tmpl, ok := c.(interface{ TemplateURL() string })
			require.True(t, ok, "marker component should expose its template")
			assert.Equal(t, tt.template, tmpl.TemplateURL())
		})
	}
}

func TestRegister_Panics(t *testing.T) {
	assert.Panics(t, func() {
		Register(Binding{Role: "PanelCtrl", New: fakeFactory("x")})
	}, "unknown role should panic")
	assert.Panics(t, func() {
		Register(Binding{Role: RoleDatasource})
	}, "nil factory should panic")
}

func TestIsKnownRole(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleDatasource, true},
		{RoleQueryCtrl, true},
		{RoleConfigCtrl, true},
		{RoleQueryOptionsCtrl, true},
		{RoleAnnotationsQueryCtrl, true},
		{"datasource", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, IsKnownRole(tt.role))
		})
	}
}

func TestNewExports(t *testing.T) {
	exports := NewExports(fakeFactory("ds"), fakeFactory("editor"))

	require.Len(t, exports, 5, "exports should bind exactly five roles")
	for _, role := range Roles() {
		_, ok := exports[role]
		assert.True(t, ok, "exports should bind %s", role)
	}

	assert.Equal(t, map[string]string{
		"Datasource":           "",
		"QueryCtrl":            QueryEditorTemplate,
		"ConfigCtrl":           ConfigTemplate,
		"QueryOptionsCtrl":     QueryOptionsTemplate,
		"AnnotationsQueryCtrl": AnnotationsEditorTemplate,
	}, exports.Templates())
}

func TestExports_Instantiate(t *testing.T) {
	exports := NewExports(fakeFactory("ds"), fakeFactory("editor"))

	t.Run("datasource receives scope", func(t *testing.T) {
		c, err := exports.Instantiate("Datasource", &Scope{Settings: Settings{URL: "http://localhost:8080"}})
		require.NoError(t, err)
		assert.Equal(t, fakeDatasource{url: "ds:http://localhost:8080"}, c)
	})

	t.Run("nil scope", func(t *testing.T) {
		c, err := exports.Instantiate("ConfigCtrl", nil)
		require.NoError(t, err)
		assert.Equal(t, ConfigCtrl{}, c)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := exports.Instantiate("PanelCtrl", nil)
		var unknown *UnknownRoleError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "PanelCtrl", unknown.Name)
	})

	t.Run("missing role", func(t *testing.T) {
		partial := Exports{RoleConfigCtrl: exports[RoleConfigCtrl]}
		_, err := partial.Instantiate("QueryCtrl", nil)
		var missing *MissingRoleError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []Role{RoleQueryCtrl}, missing.Roles)
	})

	t.Run("factory error is wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		failing := NewExports(func(*Scope) (any, error) { return nil, boom }, fakeFactory("editor"))
		_, err := failing.Instantiate("Datasource", nil)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "Datasource")
	})
}

func TestRegisteredExports(t *testing.T) {
	registryMu.Lock()
	saved := make(map[Role]Binding, len(registry))
	for k, v := range registry {
		saved[k] = v
	}
	delete(registry, RoleDatasource)
	delete(registry, RoleQueryCtrl)
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		registry = saved
		registryMu.Unlock()
	})

	_, err := RegisteredExports()
	var missing *MissingRoleError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []Role{RoleDatasource, RoleQueryCtrl}, missing.Roles)

	Register(Binding{Role: RoleDatasource, New: fakeFactory("ds")})
	Register(Binding{Role: RoleQueryCtrl, TemplateURL: QueryEditorTemplate, New: fakeFactory("editor")})

	exports, err := RegisteredExports()
	require.NoError(t, err)
	assert.Len(t, exports, 5)
	assert.True(t, IsRegistered(RoleDatasource))
	assert.Equal(t, []string{"AnnotationsQueryCtrl", "ConfigCtrl", "Datasource", "QueryCtrl", "QueryOptionsCtrl"}, Registered())
}
