package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/doctable/internal/condition"
	"github.com/leapstack-labs/doctable/internal/timeseries"
	"github.com/leapstack-labs/doctable/pkg/core"
	"github.com/tidwall/gjson"
)

// ErrInvalidAnnotation is returned for annotation queries missing a table or time field.
var ErrInvalidAnnotation = errors.New("annotation query needs a table and a time field")

// Annotations reads annotation events from the documents of the annotation
// table that match its condition and fall in the request range.
func (s *Service) Annotations(ctx context.Context, req *core.AnnotationRequest) ([]core.Annotation, error) {
	q := req.Annotation
	if q.Table == "" || q.TimeField == "" {
		return nil, ErrInvalidAnnotation
	}
	st, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	limit := (&core.QueryTarget{Limit: q.Limit}).EffectiveLimit(s.cfg.DefaultLimit, s.cfg.MaxLimit)
	m := s.matcher(q.Condition)
	annotations := []core.Annotation{}

	err = st.Scan(ctx, q.Table, func(doc core.Document) error {
		if !m.Matches(doc.Body) {
			return nil
		}
		ts, err := timeseries.Timestamp(doc.Body, q.TimeField)
		if err != nil {
			return nil
		}
		if req.Range != nil && !req.Range.Contains(ts) {
			return nil
		}

		a := core.Annotation{Annotation: q, Time: ts}
		if q.TitleField != "" {
			a.Title = gjson.GetBytes(doc.Body, condition.Path(q.TitleField)).String()
		}
		if q.TextField != "" {
			a.Text = gjson.GetBytes(doc.Body, condition.Path(q.TextField)).String()
		}
		if q.TagsField != "" {
			a.Tags = tags(gjson.GetBytes(doc.Body, condition.Path(q.TagsField)))
		}
		annotations = append(annotations, a)
		if int64(len(annotations)) >= limit {
			return errLimitReached
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return nil, fmt.Errorf("query annotations from %q: %w", q.Table, err)
	}
	return annotations, nil
}

// tags reads an array of tags or a comma separated string.
func tags(v gjson.Result) []string {
	var out []string
	switch {
	case v.IsArray():
		for _, t := range v.Array() {
			if s := strings.TrimSpace(t.String()); s != "" {
				out = append(out, s)
			}
		}
	case v.Type == gjson.String:
		for _, t := range strings.Split(v.Str, ",") {
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
