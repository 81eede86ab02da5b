package datasource

import (
	"context"
	"strings"
	"testing"

	sharedcfg "github.com/leapstack-labs/doctable/internal/config"
	"github.com/leapstack-labs/doctable/pkg/core"
	"github.com/leapstack-labs/doctable/pkg/stores/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDocuments(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "  \n", want: nil},
		{name: "array", input: ` [{"a":1}, {"b":{"c":2}}]`, want: []string{`{"a":1}`, `{"b":{"c":2}}`}},
		{name: "ndjson", input: "{\"a\":1}\n\n{\"a\":2}\r\n", want: []string{`{"a":1}`, `{"a":2}`}},
		{name: "array with scalar", input: `[{"a":1}, 2]`, wantErr: "document 2 is not a JSON object"},
		{name: "broken array", input: `[{"a":1}`, wantErr: "invalid JSON array"},
		{name: "broken line", input: "{\"a\":1}\n{\"a\":", wantErr: "line 2"},
		{name: "scalar line", input: "\"text\"\n", wantErr: "line 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := ReadDocuments(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			got := make([]string, 0, len(docs))
			for _, d := range docs {
				got = append(got, string(d.Body))
			}
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	st := memory.New(nil)
	svc := New(core.StoreConfig{Type: "memory"}, sharedcfg.DatasourceConfig{}, nil, WithStore(st))

	n, err := svc.Seed(ctx, "orders", strings.NewReader(`[{"_id":"o-1","total":10},{"total":20}]`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Same id replaces the document.
	n, err = svc.Seed(ctx, "orders", strings.NewReader(`{"_id":"o-1","total":15}`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var ids []string
	require.NoError(t, st.Scan(ctx, "orders", func(d core.Document) error {
		ids = append(ids, d.ID)
		return nil
	}))
	require.Len(t, ids, 2)
	assert.Equal(t, "o-1", ids[0])
	assert.NotEmpty(t, ids[1])

	opts, err := svc.MetricFindQuery(ctx, "orders.")
	require.NoError(t, err)
	assert.Equal(t, []string{"_id", "total"}, optionValues(opts))
}

func TestSeed_Errors(t *testing.T) {
	svc := New(core.StoreConfig{Type: "memory"}, sharedcfg.DatasourceConfig{}, nil, WithStore(memory.New(nil)))

	_, err := svc.Seed(context.Background(), "", strings.NewReader(`{}`))
	require.Error(t, err)

	_, err = svc.Seed(context.Background(), "orders", strings.NewReader(`[1]`))
	require.Error(t, err)

	tables, err := svc.Tables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tables)
}
