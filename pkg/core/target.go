package core

import "fmt"

// Query types understood by the datasource backend.
const (
	TypeRawDocument = "Raw Document"
	TypeTimeSeries  = "Timeseries"
)

// Time series metrics.
const (
	MetricDocumentCount = "Document Count"
	MetricFieldValue    = "Field Value"
	MetricFieldMin      = "Field Min"
	MetricFieldMax      = "Field Max"
	MetricFieldAverage  = "Field Average"
	MetricFieldSum      = "Field Sum"
)

// Limits applied to raw document queries.
const (
	DefaultLimit int64 = 500
	MaxLimit     int64 = 5000
)

// QueryTarget is the per-panel query configuration owned by the host.
// Controllers mutate individual fields; they never replace the record.
type QueryTarget struct {
	RefID     string `json:"refId,omitempty"`
	Type      string `json:"type,omitempty"`
	Table     string `json:"table,omitempty"`
	Condition string `json:"condition,omitempty"`
	Limit     int64  `json:"limit,omitempty"`
	RawQuery  bool   `json:"rawQuery,omitempty"`
	Hide      bool   `json:"hide,omitempty"`

	// Time series settings
	Target      string `json:"target,omitempty"`
	TimeField   string `json:"timeField,omitempty"`
	Metric      string `json:"metric,omitempty"`
	MetricField string `json:"metricField,omitempty"`

	// SelectFields projects raw documents down to the listed field paths.
	SelectFields []string `json:"selectFields,omitempty"`
}

// SeriesName returns the name used for the target's time series.
func (t *QueryTarget) SeriesName() string {
	if t.Target != "" {
		return t.Target
	}
	if t.RefID != "" {
		return t.RefID
	}
	return t.Table
}

// EffectiveLimit clamps the target limit into (0, maxLimit].
// Non-positive limits fall back to defaultLimit.
func (t *QueryTarget) EffectiveLimit(defaultLimit, maxLimit int64) int64 {
	switch {
	case t.Limit <= 0:
		return defaultLimit
	case t.Limit > maxLimit:
		return maxLimit
	default:
		return t.Limit
	}
}

func (t QueryTarget) String() string {
	return fmt.Sprintf("QueryTarget{refId=%q type=%q table=%q condition=%q limit=%d}",
		t.RefID, t.Type, t.Table, t.Condition, t.Limit)
}

// IsKnownMetric reports whether metric names a supported time series metric.
func IsKnownMetric(metric string) bool {
	switch metric {
	case MetricDocumentCount, MetricFieldValue, MetricFieldMin, MetricFieldMax, MetricFieldAverage, MetricFieldSum:
		return true
	}
	return false
}
