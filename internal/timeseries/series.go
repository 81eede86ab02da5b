// Package timeseries turns time ordered documents into dashboard series.
//
// Documents are reduced to (timestamp, value) points, sorted by time and
// grouped into buckets: a point opens a new bucket when it lies at least
// one interval after the first point of the current bucket. Each bucket
// yields one datapoint stamped with that first point's timestamp.
package timeseries

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/leapstack-labs/doctable/pkg/core"
)

// aggregator folds the values of one bucket.
type aggregator interface {
	add(v float64)
	value() float64
}

type countAgg struct{ n float64 }

func (a *countAgg) add(float64)    { a.n++ }
func (a *countAgg) value() float64 { return a.n }

type lastAgg struct{ v float64 }

func (a *lastAgg) add(v float64)   { a.v = v }
func (a *lastAgg) value() float64 { return a.v }

type minAgg struct{ v float64 }

func (a *minAgg) add(v float64)   { a.v = math.Min(a.v, v) }
func (a *minAgg) value() float64 { return a.v }

type maxAgg struct{ v float64 }

func (a *maxAgg) add(v float64)   { a.v = math.Max(a.v, v) }
func (a *maxAgg) value() float64 { return a.v }

type sumAgg struct{ v float64 }

func (a *sumAgg) add(v float64)   { a.v += v }
func (a *sumAgg) value() float64 { return a.v }

type avgAgg struct{ sum, n float64 }

func (a *avgAgg) add(v float64)   { a.sum += v; a.n++ }
func (a *avgAgg) value() float64 { return a.sum / a.n }

func newAggregator(metric string) aggregator {
	switch metric {
	case core.MetricDocumentCount:
		return &countAgg{}
	case core.MetricFieldValue:
		return &lastAgg{}
	case core.MetricFieldMin:
		return &minAgg{v: math.Inf(1)}
	case core.MetricFieldMax:
		return &maxAgg{v: math.Inf(-1)}
	case core.MetricFieldSum:
		return &sumAgg{}
	case core.MetricFieldAverage:
		return &avgAgg{}
	}
	return nil
}

type point struct {
	ts    int64
	value float64
}

// Builder accumulates documents for one time series target.
type Builder struct {
	name        string
	metric      string
	timeField   string
	metricField string
	intervalMs  int64
	logger      *slog.Logger

	points  []point
	skipped int
}

// NewBuilder validates the target's time series settings.
func NewBuilder(target *core.QueryTarget, intervalMs int64, logger *slog.Logger) (*Builder, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	metric := target.Metric
	if metric == "" {
		metric = core.MetricDocumentCount
	}
	if !core.IsKnownMetric(metric) {
		return nil, fmt.Errorf("unknown metric %q", target.Metric)
	}
	if target.TimeField == "" {
		return nil, fmt.Errorf("time series target %s has no time field", target.SeriesName())
	}
	if metric != core.MetricDocumentCount && target.MetricField == "" {
		return nil, fmt.Errorf("metric %q needs a metric field", metric)
	}

	return &Builder{
		name:        target.SeriesName(),
		metric:      metric,
		timeField:   target.TimeField,
		metricField: target.MetricField,
		intervalMs:  intervalMs,
		logger:      logger,
	}, nil
}

// Add converts a document into a point. Documents whose time or metric
// field cannot be read are skipped.
func (b *Builder) Add(doc core.Document) {
	ts, err := Timestamp(doc.Body, b.timeField)
	if err != nil {
		b.skip(doc, err)
		return
	}
	var value float64
	if b.metric != core.MetricDocumentCount {
		v, err := Value(doc.Body, b.metricField)
		if err != nil {
			b.skip(doc, err)
			return
		}
		value = v
	}
	b.addPoint(ts, value)
}

func (b *Builder) addPoint(ts int64, value float64) {
	b.points = append(b.points, point{ts: ts, value: value})
}

func (b *Builder) skip(doc core.Document, err error) {
	b.skipped++
	b.logger.Debug("skipping document for time series",
		slog.String("series", b.name),
		slog.String("id", doc.ID),
		slog.String("error", err.Error()))
}

// Skipped returns the number of documents that could not be converted.
func (b *Builder) Skipped() int {
	return b.skipped
}

// Series buckets the collected points.
func (b *Builder) Series() *core.TimeSeries {
	sort.SliceStable(b.points, func(i, j int) bool { return b.points[i].ts < b.points[j].ts })

	series := &core.TimeSeries{Target: b.name, Datapoints: []core.Datapoint{}}
	var (
		agg   aggregator
		start int64
	)
	flush := func() {
		if agg != nil {
			series.Datapoints = append(series.Datapoints, core.Datapoint{Value: agg.value(), Timestamp: start})
		}
	}
	for _, p := range b.points {
		if agg == nil || p.ts-start >= b.intervalMs {
			flush()
			agg = newAggregator(b.metric)
			start = p.ts
		}
		agg.add(p.value)
	}
	flush()
	return series
}
