package datasource

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	sharedcfg "github.com/leapstack-labs/doctable/internal/config"
	"github.com/leapstack-labs/doctable/internal/testutil"
	"github.com/leapstack-labs/doctable/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func rawTarget(refID, condition string) *core.QueryTarget {
	return &core.QueryTarget{RefID: refID, Type: core.TypeRawDocument, Table: testutil.TweetsTable, Condition: condition}
}

func queryOne(t *testing.T, svc *Service, req *core.QueryRequest) core.Metrics {
	t.Helper()
	res, err := svc.Query(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res, 1)
	return res[0]
}

func authors(t *testing.T, m core.Metrics) []string {
	t.Helper()
	raw, ok := m.(*core.RawDocuments)
	require.True(t, ok, "expected raw documents, got %T", m)
	out := make([]string, len(raw.Datapoints))
	for i, d := range raw.Datapoints {
		out[i] = gjson.GetBytes(d, "author").String()
	}
	return out
}

func TestQuery_RawDocuments(t *testing.T) {
	svc := newTweetService(t, sharedcfg.DatasourceConfig{})

	tests := []struct {
		name      string
		condition string
		want      []string
	}{
		{
			name: "no condition",
			want: []string{"user1", "user2", "user3", "usertobequeried", "user5", "user6", "user7", "user8"},
		},
		{
			name:      "operator first equality",
			condition: `{"$eq": {"author": "usertobequeried"}}`,
			want:      []string{"usertobequeried"},
		},
		{
			name:      "field first with wrapper",
			condition: `{"$condition": {"likes": {"$gt": 6}}}`,
			want:      []string{"user7", "user8"},
		},
		{
			name:      "or",
			condition: `{"$or": [{"content": "tag2"}, {"author": "user8"}]}`,
			want:      []string{"user2", "user8"},
		},
		{
			name:      "no match",
			condition: `{"author": "nobody"}`,
			want:      []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := queryOne(t, svc, &core.QueryRequest{Targets: []*core.QueryTarget{rawTarget("A", tt.condition)}})
			assert.Equal(t, tt.want, authors(t, m))
			assert.Equal(t, "A", m.(*core.RawDocuments).RefID)
			assert.Equal(t, core.RawDocumentsType, m.(*core.RawDocuments).Type)
		})
	}
}

func TestQuery_InvalidConditionRunsUnfiltered(t *testing.T) {
	logger, logs := testutil.NewCaptureLogger()
	svc := New(core.StoreConfig{Type: "memory"}, sharedcfg.DatasourceConfig{}, logger, WithStore(testutil.NewTweetStore(t)))

	m := queryOne(t, svc, &core.QueryRequest{Targets: []*core.QueryTarget{rawTarget("A", `{"author": `)}})
	assert.Len(t, authors(t, m), 8)
	assert.Contains(t, logs.String(), "can not decode JSON condition")
}

func TestQuery_Limit(t *testing.T) {
	svc := newTweetService(t, sharedcfg.DatasourceConfig{DefaultLimit: 2, MaxLimit: 5})

	tests := []struct {
		limit int64
		want  int
	}{
		{limit: 0, want: 2},
		{limit: -3, want: 2},
		{limit: 1, want: 1},
		{limit: 4, want: 4},
		{limit: 100, want: 5},
	}
	for _, tt := range tests {
		target := rawTarget("A", "")
		target.Limit = tt.limit
		m := queryOne(t, svc, &core.QueryRequest{Targets: []*core.QueryTarget{target}})
		assert.Len(t, authors(t, m), tt.want, "limit %d", tt.limit)
	}
}

func TestQuery_TimeRangeIsInclusive(t *testing.T) {
	svc := newTweetService(t, sharedcfg.DatasourceConfig{})
	target := rawTarget("A", "")
	target.TimeField = "time"

	m := queryOne(t, svc, &core.QueryRequest{
		Range:   &core.Range{From: testutil.TweetTime(t, 4), To: testutil.TweetTime(t, 6)},
		Targets: []*core.QueryTarget{target},
	})
	assert.Equal(t, []string{"user5", "user6", "user7"}, authors(t, m))
}

func TestQuery_SelectFields(t *testing.T) {
	svc := newTweetService(t, sharedcfg.DatasourceConfig{})
	target := rawTarget("A", `{"author": "user1"}`)
	target.SelectFields = []string{"author", "likes", "missing"}

	m := queryOne(t, svc, &core.QueryRequest{Targets: []*core.QueryTarget{target}})
	raw := m.(*core.RawDocuments)
	require.Len(t, raw.Datapoints, 1)
	assert.JSONEq(t, `{"author":"user1","likes":1}`, string(raw.Datapoints[0]))
}

func TestQuery_TimeSeries(t *testing.T) {
	svc := newTweetService(t, sharedcfg.DatasourceConfig{})
	target := &core.QueryTarget{
		RefID:     "B",
		Type:      core.TypeTimeSeries,
		Table:     testutil.TweetsTable,
		Target:    "tweets per day",
		TimeField: "time",
	}

	m := queryOne(t, svc, &core.QueryRequest{IntervalMs: testutil.Day, Targets: []*core.QueryTarget{target}})
	series, ok := m.(*core.TimeSeries)
	require.True(t, ok)
	assert.Equal(t, "tweets per day", series.Target)

	values := make([]float64, len(series.Datapoints))
	for i, p := range series.Datapoints {
		values[i] = p.Value
	}
	assert.Equal(t, []float64{1, 1, 1, 1, 4}, values)
	assert.Equal(t, testutil.TweetTime(t, 0).UnixMilli(), series.Datapoints[0].Timestamp)
	assert.Equal(t, testutil.TweetTime(t, 4).UnixMilli(), series.Datapoints[4].Timestamp)
}

func TestQuery_TimeSeriesWithConditionAndMetric(t *testing.T) {
	svc := newTweetService(t, sharedcfg.DatasourceConfig{})
	target := &core.QueryTarget{
		Type:        core.TypeTimeSeries,
		Table:       testutil.TweetsTable,
		Condition:   `{"content": "tag3"}`,
		TimeField:   "time",
		Metric:      core.MetricFieldMax,
		MetricField: "likes",
	}

	m := queryOne(t, svc, &core.QueryRequest{IntervalMs: testutil.Year, Targets: []*core.QueryTarget{target}})
	series := m.(*core.TimeSeries)
	require.Len(t, series.Datapoints, 1)
	assert.Equal(t, float64(8), series.Datapoints[0].Value)
	assert.Equal(t, testutil.TweetsTable, series.Target)
}

func TestQuery_SkipsAndKeepsOrder(t *testing.T) {
	var (
		mu    sync.Mutex
		calls = map[string]error{}
	)
	hook := func(target *core.QueryTarget, _ time.Duration, err error) {
		mu.Lock()
		defer mu.Unlock()
		calls[target.RefID] = err
	}
	svc := newTweetService(t, sharedcfg.DatasourceConfig{}, WithTargetHook(hook))

	hidden := rawTarget("hidden", "")
	hidden.Hide = true
	noTable := rawTarget("no-table", "")
	noTable.Table = ""
	missing := rawTarget("missing", "")
	missing.Table = "nope"
	badMetric := &core.QueryTarget{RefID: "bad-metric", Type: core.TypeTimeSeries, Table: testutil.TweetsTable, TimeField: "time", Metric: "Field Median"}
	unknownType := rawTarget("unknown", "")
	unknownType.Type = "Table"
	series := &core.QueryTarget{RefID: "B", Type: core.TypeTimeSeries, Table: testutil.TweetsTable, TimeField: "time"}

	res, err := svc.Query(context.Background(), &core.QueryRequest{
		IntervalMs: testutil.Day,
		Targets: []*core.QueryTarget{
			rawTarget("A", `{"author": "user1"}`),
			hidden,
			nil,
			noTable,
			missing,
			series,
			badMetric,
			unknownType,
			rawTarget("C", `{"author": "user2"}`),
		},
	})
	require.NoError(t, err)
	require.Len(t, res, 3)

	assert.Equal(t, "A", res[0].(*core.RawDocuments).RefID)
	assert.Equal(t, "B", res[1].(*core.TimeSeries).Target)
	assert.Equal(t, "C", res[2].(*core.RawDocuments).RefID)

	mu.Lock()
	defer mu.Unlock()
	assert.NotContains(t, calls, "hidden")
	assert.NotContains(t, calls, "no-table")
	assert.Error(t, calls["missing"])
	assert.Error(t, calls["bad-metric"])
	assert.NoError(t, calls["A"])
	assert.NoError(t, calls["unknown"])
}

func TestQuery_ResultJSON(t *testing.T) {
	svc := newTweetService(t, sharedcfg.DatasourceConfig{})
	target := &core.QueryTarget{Type: core.TypeTimeSeries, Table: testutil.TweetsTable, Target: "all", TimeField: "time"}

	res, err := svc.Query(context.Background(), &core.QueryRequest{IntervalMs: 100 * testutil.Year, Targets: []*core.QueryTarget{target}})
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"target":"all","datapoints":[[8,1335306928981]]}]`, string(data))
}

func TestProject(t *testing.T) {
	body := []byte(`{"a":1,"b":{"c":"x","d":[1,2]},"e":null}`)

	tests := []struct {
		name   string
		fields []string
		want   string
	}{
		{name: "no fields", fields: nil, want: string(body)},
		{name: "top level", fields: []string{"a"}, want: `{"a":1}`},
		{name: "nested", fields: []string{"b.c"}, want: `{"b":{"c":"x"}}`},
		{name: "array and null", fields: []string{"b.d", "e"}, want: `{"b":{"d":[1,2]},"e":null}`},
		{name: "missing", fields: []string{"zzz"}, want: `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Project(body, tt.fields)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}
