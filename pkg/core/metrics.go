package core

import (
	"encoding/json"
	"fmt"
)

// Metrics is a single result entry of a query: a time series or a set of raw documents.
type Metrics interface {
	metrics()
}

// Datapoint is one value of a time series. It encodes as [value, timestamp].
type Datapoint struct {
	Value     float64
	Timestamp int64
}

// MarshalJSON encodes the datapoint as a two element array.
func (d Datapoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{d.Value, d.Timestamp})
}

// UnmarshalJSON decodes a [value, timestamp] pair.
func (d *Datapoint) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("datapoint must be [value, timestamp]: %w", err)
	}
	d.Value = pair[0]
	d.Timestamp = int64(pair[1])
	return nil
}

// TimeSeries is a named, timestamp ordered series.
type TimeSeries struct {
	Target     string      `json:"target"`
	Datapoints []Datapoint `json:"datapoints"`
}

func (*TimeSeries) metrics() {}

// RawDocumentsType is the type tag of raw document results.
const RawDocumentsType = "docs"

// RawDocuments is the result of a raw document query.
type RawDocuments struct {
	Type       string            `json:"type"`
	RefID      string            `json:"refId,omitempty"`
	Datapoints []json.RawMessage `json:"datapoints"`
}

func (*RawDocuments) metrics() {}

// NewRawDocuments returns an empty raw documents result.
func NewRawDocuments(refID string) *RawDocuments {
	return &RawDocuments{Type: RawDocumentsType, RefID: refID, Datapoints: []json.RawMessage{}}
}

// Annotation is an event marker drawn on dashboard graphs.
type Annotation struct {
	Annotation AnnotationQuery `json:"annotation"`
	Time       int64           `json:"time"`
	Title      string          `json:"title,omitempty"`
	Text       string          `json:"text,omitempty"`
	Tags       []string        `json:"tags,omitempty"`
}

// MetricOption is a suggestion returned by option lookups.
type MetricOption struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

// DecodeMetrics decodes a query response. Entries with type "docs" become
// *RawDocuments, all others *TimeSeries.
func DecodeMetrics(data []byte) ([]Metrics, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("query response must be a JSON array: %w", err)
	}

	out := make([]Metrics, 0, len(entries))
	for i, raw := range entries {
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		var m Metrics
		if head.Type == RawDocumentsType {
			m = &RawDocuments{}
		} else {
			m = &TimeSeries{}
		}
		if err := json.Unmarshal(raw, m); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}
