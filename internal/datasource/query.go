package datasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/doctable/internal/condition"
	"github.com/leapstack-labs/doctable/internal/timeseries"
	"github.com/leapstack-labs/doctable/pkg/core"
	"github.com/leapstack-labs/doctable/pkg/store"
	"github.com/sourcegraph/conc/pool"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// errLimitReached stops a scan once enough documents were collected.
var errLimitReached = errors.New("limit reached")

// Query runs every visible target of req. Targets without a table, hidden
// targets and targets of unknown type are skipped. A failing target is
// logged and left out of the result.
func (s *Service) Query(ctx context.Context, req *core.QueryRequest) ([]core.Metrics, error) {
	st, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("performing query", "targets", len(req.Targets), "interval_ms", req.IntervalMs)

	results := make([]core.Metrics, len(req.Targets))
	p := pool.New().WithMaxGoroutines(maxConcurrentTargets)
	for i, target := range req.Targets {
		if target == nil || target.Table == "" || target.Hide {
			continue
		}
		p.Go(func() {
			start := time.Now()
			m, err := s.queryTarget(ctx, st, req, target)
			if s.hook != nil {
				s.hook(target, time.Since(start), err)
			}
			if err != nil {
				s.logger.Warn("target query failed", "target", target.String(), "error", err)
				return
			}
			results[i] = m
		})
	}
	p.Wait()

	out := make([]core.Metrics, 0, len(results))
	for _, m := range results {
		if m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Service) queryTarget(ctx context.Context, st store.Store, req *core.QueryRequest, target *core.QueryTarget) (core.Metrics, error) {
	switch target.Type {
	case core.TypeRawDocument:
		return s.queryRawDocuments(ctx, st, req.Range, target)
	case core.TypeTimeSeries:
		return s.queryTimeSeries(ctx, st, req, target)
	default:
		s.logger.Debug("skipping target of unknown type", "target", target.String())
		return nil, nil
	}
}

// matcher parses the target condition. An invalid condition is logged and
// matches every document.
func (s *Service) matcher(src string) condition.Matcher {
	m, err := condition.Parse(src)
	if err != nil {
		s.logger.Warn("can not decode JSON condition, querying without it", "condition", src, "error", err)
		return condition.All
	}
	return m
}

// inRange reports whether doc's time field lies in r. A nil range or an
// empty field accepts every document.
func inRange(doc core.Document, field string, r *core.Range) bool {
	if r == nil || field == "" {
		return true
	}
	ts, err := timeseries.Timestamp(doc.Body, field)
	if err != nil {
		return false
	}
	return r.Contains(ts)
}

func (s *Service) queryRawDocuments(ctx context.Context, st store.Store, r *core.Range, target *core.QueryTarget) (core.Metrics, error) {
	limit := target.EffectiveLimit(s.cfg.DefaultLimit, s.cfg.MaxLimit)
	m := s.matcher(target.Condition)
	result := core.NewRawDocuments(target.RefID)

	err := st.Scan(ctx, target.Table, func(doc core.Document) error {
		if !m.Matches(doc.Body) || !inRange(doc, target.TimeField, r) {
			return nil
		}
		body, err := Project(doc.Body, target.SelectFields)
		if err != nil {
			return err
		}
		result.Datapoints = append(result.Datapoints, body)
		if int64(len(result.Datapoints)) >= limit {
			return errLimitReached
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return nil, fmt.Errorf("query table %q: %w", target.Table, err)
	}
	return result, nil
}

func (s *Service) queryTimeSeries(ctx context.Context, st store.Store, req *core.QueryRequest, target *core.QueryTarget) (core.Metrics, error) {
	b, err := timeseries.NewBuilder(target, req.IntervalMs, s.logger)
	if err != nil {
		return nil, err
	}
	m := s.matcher(target.Condition)

	err = st.Scan(ctx, target.Table, func(doc core.Document) error {
		if !m.Matches(doc.Body) || !inRange(doc, target.TimeField, req.Range) {
			return nil
		}
		b.Add(doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query table %q: %w", target.Table, err)
	}
	if n := b.Skipped(); n > 0 {
		s.logger.Debug("documents skipped for time series", slog.String("series", target.SeriesName()), slog.Int("skipped", n))
	}
	return b.Series(), nil
}

// Project keeps only the listed field paths of body. Missing fields are
// omitted. An empty field list returns body unchanged.
func Project(body []byte, fields []string) ([]byte, error) {
	if len(fields) == 0 {
		return body, nil
	}
	out := []byte("{}")
	for _, field := range fields {
		v := gjson.GetBytes(body, condition.Path(field))
		if !v.Exists() {
			continue
		}
		var err error
		out, err = sjson.SetRawBytes(out, field, []byte(v.Raw))
		if err != nil {
			return nil, fmt.Errorf("project field %q: %w", field, err)
		}
	}
	return out, nil
}
