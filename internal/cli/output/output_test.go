package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newRenderer(mode Mode) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRenderer(out, errOut, mode), out, errOut
}

func TestNewRenderer_Mode(t *testing.T) {
	tests := []struct {
		mode Mode
		want Mode
	}{
		{ModeJSON, ModeJSON},
		{ModeTable, ModeTable},
		{"", ModeTable},
		{"markdown", ModeTable},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r, _, _ := newRenderer(tt.mode)
			assert.Equal(t, tt.want, r.Mode())
		})
	}
}

func TestRenderer_Table(t *testing.T) {
	r, out, _ := newRenderer(ModeTable)

	r.Table([]string{"table"}, [][]string{{"orders"}, {"tweets"}})

	s := out.String()
	assert.Contains(t, s, "TABLE")
	assert.Contains(t, s, "orders")
	assert.Contains(t, s, "tweets")
	assert.Contains(t, s, "(2 rows)")
}

func TestRenderer_TableEmpty(t *testing.T) {
	r, out, _ := newRenderer(ModeTable)
	r.Table([]string{"table"}, nil)
	assert.Equal(t, "(0 rows)\n", out.String())
}

func TestRenderer_Render(t *testing.T) {
	payload := map[string]int{"count": 2}

	r, out, _ := newRenderer(ModeJSON)
	require.NoError(t, r.Render(payload, []string{"count"}, [][]string{{"2"}}))
	var got map[string]int
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, payload, got)

	r, out, _ = newRenderer(ModeTable)
	require.NoError(t, r.Render(payload, []string{"count"}, [][]string{{"2"}}))
	assert.Contains(t, out.String(), "(1 rows)")
}

func TestRenderer_StreamsSeparated(t *testing.T) {
	r, out, errOut := newRenderer(ModeJSON)

	r.Success("seeded")
	r.Warning("careful")
	r.Muted("using config file")

	assert.Equal(t, "✓ seeded\n", out.String())
	assert.Contains(t, errOut.String(), "! careful")
	assert.Contains(t, errOut.String(), "using config file")
}

func TestRenderer_YAML(t *testing.T) {
	r, out, _ := newRenderer(ModeYAML)
	require.True(t, r.Structured())

	v := struct {
		OK     bool     `json:"is_ok"`
		Errors []string `json:"errors"`
		Code   string   `json:"code"`
	}{OK: false, Errors: []string{"Store is not reachable"}, Code: "503"}

	require.NoError(t, r.Render(v, nil, nil))
	assert.Contains(t, out.String(), "is_ok: false\n")
	assert.Contains(t, out.String(), "- Store is not reachable")
	assert.NotContains(t, out.String(), "{")

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "503", got["code"])
}
