package commands

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/doctable/internal/cli/output"
	"github.com/leapstack-labs/doctable/internal/testutil"
	"github.com/leapstack-labs/doctable/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunServe(t *testing.T) {
	cfg := loadConfig(t, "store:\n  type: memory\n")

	seedDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(seedDir, "tweets.ndjson"), []byte(tweetsNDJSON), 0600))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var stderr bytes.Buffer
	cc := &CommandContext{
		Cfg:      cfg,
		Logger:   testutil.NewTestLogger(t),
		Renderer: output.NewRenderer(&bytes.Buffer{}, &stderr, output.ModeTable),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runServe(ctx, cc, &ServeOptions{SeedDir: seedDir}, ln)
	}()

	c := client.New("http://"+ln.Addr().String(), client.WithTimeout(2*time.Second))
	require.Eventually(t, func() bool {
		status, err := c.TestDatasource(context.Background())
		return err == nil && status.OK
	}, 5*time.Second, 20*time.Millisecond)

	options, err := c.MetricFindQuery(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "tweets", options[0].Text)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Contains(t, stderr.String(), "Serving memory store on http://")
}

func TestRunServe_WatchRequiresSeedDir(t *testing.T) {
	cfg := loadConfig(t, "store:\n  type: memory\n")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cc := &CommandContext{
		Cfg:      cfg,
		Logger:   testutil.NewTestLogger(t),
		Renderer: output.NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, output.ModeTable),
	}
	err = runServe(context.Background(), cc, &ServeOptions{Watch: true}, ln)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch requires --seed-dir")
}
