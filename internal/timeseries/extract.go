package timeseries

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/doctable/internal/condition"
	"github.com/tidwall/gjson"
)

// ErrMissingField is returned when a document lacks the requested field or holds null.
var ErrMissingField = errors.New("field missing or null")

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// Timestamp reads field from doc as epoch milliseconds.
//
// Accepted encodings: epoch-ms numbers, numeric strings, RFC 3339 and
// date-only strings, and extended JSON {"$date": ...} wrappers of these.
func Timestamp(doc []byte, field string) (int64, error) {
	if field == "" {
		return 0, fmt.Errorf("time field not specified")
	}
	v := gjson.GetBytes(doc, condition.Path(field))
	if !v.Exists() || v.Type == gjson.Null {
		return 0, fmt.Errorf("%s: %w", field, ErrMissingField)
	}
	ts, err := timestampOf(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return ts, nil
}

func timestampOf(v gjson.Result) (int64, error) {
	switch v.Type {
	case gjson.Number:
		return v.Int(), nil
	case gjson.String:
		return ParseTime(v.Str)
	case gjson.JSON:
		if d := v.Get("$date"); d.Exists() {
			return timestampOf(d)
		}
		if n := v.Get("$numberLong"); n.Exists() {
			return timestampOf(n)
		}
	}
	return 0, fmt.Errorf("unsupported time value %s", v.Raw)
}

// ParseTime converts a numeric or formatted time string to epoch milliseconds.
func ParseTime(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if !finite(f) {
			return 0, fmt.Errorf("time %q is not finite", s)
		}
		return int64(f), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized time %q", s)
}

// Value reads field from doc as a number. Numeric strings are converted.
func Value(doc []byte, field string) (float64, error) {
	if field == "" {
		return 0, fmt.Errorf("metric field not specified")
	}
	v := gjson.GetBytes(doc, condition.Path(field))
	switch v.Type {
	case gjson.Number:
		return v.Float(), nil
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil || !finite(f) {
			return 0, fmt.Errorf("%s: %q is not numeric", field, v.Str)
		}
		return f, nil
	case gjson.Null:
		return 0, fmt.Errorf("%s: %w", field, ErrMissingField)
	}
	return 0, fmt.Errorf("%s: %s is not numeric", field, v.Raw)
}

// finite rejects NaN and infinities, which JSON cannot encode.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
