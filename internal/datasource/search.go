package datasource

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/leapstack-labs/doctable/pkg/core"
	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
)

var errStopScan = errors.New("stop scan")

// MetricFindQuery returns option suggestions for query.
//
// A query of the form "<table>.<text>" naming an existing table lists the
// top-level fields of the table's first document that contain text.
// Otherwise the result is the tables whose name contains query. Matching
// is case insensitive and results are sorted.
func (s *Service) MetricFindQuery(ctx context.Context, query string) ([]core.MetricOption, error) {
	st, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	tables, err := st.Tables(ctx)
	if err != nil {
		return nil, err
	}

	if i := strings.LastIndex(query, "."); i > 0 {
		if table := query[:i]; slices.Contains(tables, table) {
			return s.fieldOptions(ctx, table, query[i+1:])
		}
	}

	options := []core.MetricOption{}
	for _, name := range tables {
		if containsFold(name, query) {
			options = append(options, core.MetricOption{Text: name, Value: name})
		}
	}
	return options, nil
}

// Search answers a /search request.
func (s *Service) Search(ctx context.Context, req *core.SearchRequest) ([]core.MetricOption, error) {
	return s.MetricFindQuery(ctx, req.Target)
}

func (s *Service) fieldOptions(ctx context.Context, table, text string) ([]core.MetricOption, error) {
	st, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	var fields []string
	err = st.Scan(ctx, table, func(doc core.Document) error {
		gjson.ParseBytes(doc.Body).ForEach(func(key, _ gjson.Result) bool {
			if containsFold(key.String(), text) {
				fields = append(fields, key.String())
			}
			return true
		})
		return errStopScan
	})
	if err != nil && !errors.Is(err, errStopScan) {
		return nil, err
	}

	slices.Sort(fields)
	options := make([]core.MetricOption, len(fields))
	for i, f := range fields {
		options[i] = core.MetricOption{Text: f, Value: f}
	}
	return options, nil
}

// containsFold reports whether substr is within s under Unicode case folding.
func containsFold(s, substr string) bool {
	fold := cases.Fold()
	return strings.Contains(fold.String(s), fold.String(substr))
}
