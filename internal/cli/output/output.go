// Package output renders command results as terminal tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Mode selects how results are rendered.
type Mode string

// Output modes.
const (
	ModeTable Mode = "table"
	ModeJSON  Mode = "json"
	ModeYAML  Mode = "yaml"
)

// Renderer writes command output in the configured mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode

	success lipgloss.Style
	warning lipgloss.Style
	muted   lipgloss.Style
}

// NewRenderer creates a renderer. Unknown or empty modes render tables.
// Colors are only emitted on terminals and never when NO_COLOR is set.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	switch mode {
	case ModeJSON, ModeYAML:
	default:
		mode = ModeTable
	}

	outStyles := styleRenderer(out)
	errStyles := styleRenderer(errOut)
	return &Renderer{
		out:     out,
		errOut:  errOut,
		mode:    mode,
		success: outStyles.NewStyle().Foreground(lipgloss.Color("42")),
		warning: errStyles.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		muted:   errStyles.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

func styleRenderer(w io.Writer) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	if !isTerminal(w) || os.Getenv("NO_COLOR") != "" {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Mode returns the effective output mode.
func (r *Renderer) Mode() Mode {
	return r.mode
}

// Structured reports whether results are encoded as JSON or YAML.
func (r *Renderer) Structured() bool {
	return r.mode == ModeJSON || r.mode == ModeYAML
}

// Println writes a line to standard output.
func (r *Renderer) Println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

// Printf writes formatted text to standard output.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Success writes a confirmation line.
func (r *Renderer) Success(s string) {
	_, _ = fmt.Fprintln(r.out, r.success.Render("✓ "+s))
}

// Warning writes a warning to standard error.
func (r *Renderer) Warning(s string) {
	_, _ = fmt.Fprintln(r.errOut, r.warning.Render("! "+s))
}

// Muted writes secondary information to standard error so that it never
// mixes with structured output.
func (r *Renderer) Muted(s string) {
	_, _ = fmt.Fprintln(r.errOut, r.muted.Render(s))
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML writes v as YAML. Values are encoded through their JSON form so that
// field names match the JSON output.
func (r *Renderer) YAML(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	blockStyle(&node)
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

// blockStyle drops the flow and quoting styles the JSON source carried.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// Encode writes v in the structured mode, JSON unless YAML was requested.
func (r *Renderer) Encode(v any) error {
	if r.mode == ModeYAML {
		return r.YAML(v)
	}
	return r.JSON(v)
}

// Table renders rows under header. An empty row set prints "(0 rows)".
func (r *Renderer) Table(header []string, rows [][]string) {
	if len(rows) == 0 {
		r.Println("(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = v
		}
		t.AppendRow(tr)
	}

	t.Render()
	r.Printf("(%d rows)\n", len(rows))
}

// Render encodes v in structured modes, or renders the table otherwise.
func (r *Renderer) Render(v any, header []string, rows [][]string) error {
	if r.Structured() {
		return r.Encode(v)
	}
	r.Table(header, rows)
	return nil
}
