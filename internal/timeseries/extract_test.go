package timeseries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		field   string
		want    int64
		wantErr bool
	}{
		{"epoch millis", `{"t": 1523000000000}`, "t", 1523000000000, false},
		{"float millis", `{"t": 1523000000000.9}`, "t", 1523000000000, false},
		{"numeric string", `{"t": "1523000000000"}`, "t", 1523000000000, false},
		{"rfc3339 nano", `{"t": "2018-04-05T22:35:28.981Z"}`, "t", 1522967728981, false},
		{"rfc3339 offset", `{"t": "2018-04-06T00:35:28+02:00"}`, "t", 1522967728000, false},
		{"date only", `{"t": "2018-04-05"}`, "t", 1522886400000, false},
		{"extended json date", `{"t": {"$date": "2018-04-05T22:35:28.981Z"}}`, "t", 1522967728981, false},
		{"extended json number", `{"t": {"$date": {"$numberLong": "1522967728981"}}}`, "t", 1522967728981, false},
		{"nested path", `{"meta": {"created": 42}}`, "meta.created", 42, false},
		{"integer beyond float precision", `{"t": 1700000000000123457}`, "t", 1700000000000123457, false},
		{"nan string", `{"t": "NaN"}`, "t", 0, true},
		{"infinity string", `{"t": "Infinity"}`, "t", 0, true},
		{"missing", `{}`, "t", 0, true},
		{"null", `{"t": null}`, "t", 0, true},
		{"garbage string", `{"t": "yesterday"}`, "t", 0, true},
		{"boolean", `{"t": true}`, "t", 0, true},
		{"no field", `{"t": 1}`, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Timestamp([]byte(tt.doc), tt.field)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimestamp_MissingWrapsSentinel(t *testing.T) {
	_, err := Timestamp([]byte(`{}`), "time")
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestValue(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    float64
		wantErr bool
	}{
		{"integer", `{"v": 3}`, 3, false},
		{"float", `{"v": 3.25}`, 3.25, false},
		{"numeric string", `{"v": " 7.5 "}`, 7.5, false},
		{"text", `{"v": "seven"}`, 0, true},
		{"nan string", `{"v": "NaN"}`, 0, true},
		{"infinity string", `{"v": "-Inf"}`, 0, true},
		{"missing", `{}`, 0, true},
		{"object", `{"v": {"x": 1}}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Value([]byte(tt.doc), "v")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
