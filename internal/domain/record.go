package domain

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record is one decoded row of an open-data resource. Values are strings,
// JSON numbers, or nil.
type Record map[string]any

// RecordFetcher supplies the raw records of an open-data resource.
type RecordFetcher interface {
	FetchRecords(ctx context.Context, resourceID string) ([]Record, error)
}

// first returns the first non-nil value among keys.
func (r Record) first(keys ...string) any {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// String returns the value at key if it is a string.
func (r Record) String(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// Hour reads the value at key as a non-negative whole number. Fractional,
// negative and non-numeric values are rejected.
func (r Record) Hour(key string) (int, bool) {
	switch v := r[key].(type) {
	case string:
		h, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || h < 0 {
			return 0, false
		}
		return h, true
	case json.Number:
		h, err := strconv.Atoi(v.String())
		if err != nil || h < 0 {
			return 0, false
		}
		return h, true
	case float64:
		if v < 0 || v != math.Trunc(v) || v >= math.MaxInt32 {
			return 0, false
		}
		return int(v), true
	case int:
		return v, v >= 0
	default:
		return 0, false
	}
}

// toInt accepts strings holding a float literal and JSON numbers. Booleans,
// NaN, infinities and values outside the int64 range are rejected.
func toInt(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int(f), true
}
