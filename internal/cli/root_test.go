package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/doctable/internal/cli/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := NewRootCmd()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	want := []string{"version", "serve", "status", "query", "tables", "edit", "seed", "plugin", "completion"}
	for _, name := range want {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	for _, flag := range []string{"config", "env", "url", "port", "store", "store-path", "log-level", "log-file", "verbose", "output"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRootCmd_Version(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "doctable v"+Version)
}

func TestRootCmd_FlagsReachCommands(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := run(t, "--store", "memory", "-o", "json", "status")
	require.NoError(t, err)

	var status map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, true, status["is_ok"])

	cfg := config.GetCurrentConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "memory", cfg.Store.Type)
}

func TestRootCmd_SeedThenQuery(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("events.json", []byte(`[{"title": "deploy", "ts": 1000}, {"title": "rollback", "ts": 2000}]`), 0600))

	dbPath := filepath.Join(dir, "events.db")
	out, _, err := run(t, "--store-path", dbPath, "seed", "events", "events.json")
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 2 documents into events")

	out, _, err = run(t, "--store-path", dbPath, "query", "--table", "events", "--condition", `{"title": "rollback"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "rollback")
	assert.Contains(t, out, "(1 rows)")
}

func TestRootCmd_ConfigErrors(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		errSubstr string
	}{
		{"unknown output", []string{"-o", "xml", "status"}, "unknown output format"},
		{"unknown store", []string{"--store", "mongodb", "status"}, "mongodb"},
		{"bad log level", []string{"--log-level", "loud", "status"}, "loud"},
		{"missing config file", []string{"--config", "nope.yaml", "status"}, "nope.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestRootCmd_Verbose(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("doctable.yaml", []byte("store:\n  type: memory\n"), 0600))

	_, errOut, err := run(t, "-v", "plugin")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Using config file: doctable.yaml")
}

func TestCompletionCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, _, err := run(t, "completion", shell)
			require.NoError(t, err)
			assert.Contains(t, out, "doctable")
		})
	}

	_, _, err := run(t, "completion", "tcsh")
	require.Error(t, err)
}
