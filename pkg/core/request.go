package core

import "time"

// Range is the dashboard time range of a request.
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether ts (epoch milliseconds) lies within the range, inclusive.
func (r *Range) Contains(ts int64) bool {
	return ts >= r.From.UnixMilli() && ts <= r.To.UnixMilli()
}

// QueryRequest is the body of a /query call.
type QueryRequest struct {
	PanelID       int64          `json:"panelId"`
	Range         *Range         `json:"range,omitempty"`
	IntervalMs    int64          `json:"intervalMs"`
	MaxDataPoints int64          `json:"maxDataPoints"`
	Targets       []*QueryTarget `json:"targets"`
}

// SearchRequest is the body of a /search call.
type SearchRequest struct {
	Target string `json:"target"`
}

// AnnotationQuery describes where annotations are read from.
type AnnotationQuery struct {
	Name       string `json:"name"`
	Enable     bool   `json:"enable"`
	Table      string `json:"table"`
	Condition  string `json:"condition,omitempty"`
	TimeField  string `json:"timeField"`
	TitleField string `json:"titleField,omitempty"`
	TextField  string `json:"textField,omitempty"`
	TagsField  string `json:"tagsField,omitempty"`
	Limit      int64  `json:"limit,omitempty"`
}

// AnnotationRequest is the body of an /annotations call.
type AnnotationRequest struct {
	Range      *Range          `json:"range,omitempty"`
	Annotation AnnotationQuery `json:"annotation"`
}
