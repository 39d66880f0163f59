// Package input coerces loosely typed client values (JSON numbers, numeric
// strings, epoch milliseconds, ISO-8601 strings) into Go values.
package input

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Fields is a loosely typed bag of request values keyed by wire name.
type Fields map[string]any

// Float coerces v into a finite float64. The second result is false when v
// is absent, non-numeric, or not finite.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return finite(f)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return finite(f)
	default:
		return 0, false
	}
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// String coerces v into a trimmed, non-empty string. Numbers are rendered
// in their shortest form so that {"userId": 42} and {"userId": "42"} agree.
func String(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		s = strings.TrimSpace(s)
		return s, s != ""
	case json.Number:
		return s.String(), s != ""
	case nil, bool, map[string]any, []any:
		return "", false
	}
	if f, ok := Float(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp converts v into a UTC time. Numbers (and numeric strings) are
// epoch milliseconds; strings are ISO-8601. A missing value yields now.
func Timestamp(v any, now time.Time) (time.Time, error) {
	if v == nil {
		return now.UTC(), nil
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return now.UTC(), nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
	}
	if ms, ok := Float(v); ok {
		return time.UnixMilli(int64(ms)).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %v", v)
}

// Float returns the first of keys holding a parseable number.
func (f Fields) Float(keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := Float(f[k]); ok {
			return v, true
		}
	}
	return 0, false
}

// FloatOr is Float with a fallback for absent or unparseable values.
func (f Fields) FloatOr(def float64, keys ...string) float64 {
	if v, ok := f.Float(keys...); ok {
		return v
	}
	return def
}

// String returns the first of keys holding a non-empty string.
func (f Fields) String(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := String(f[k]); ok {
			return v, true
		}
	}
	return "", false
}

// StringOr is String with a fallback.
func (f Fields) StringOr(def string, keys ...string) string {
	if v, ok := f.String(keys...); ok {
		return v
	}
	return def
}

// Has reports whether key is present with a non-null value.
func (f Fields) Has(key string) bool {
	v, ok := f[key]
	return ok && v != nil
}
