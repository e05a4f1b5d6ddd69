package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Remote rows arrive from JSON (float64, json.Number) and msgpack (sized
// integers), so typed accessors accept every numeric representation.

// String returns the column as a string, "" when absent or null
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// StringPtr returns nil for an absent, null or empty column
func (r Row) StringPtr(col string) *string {
	s := r.String(col)
	if s == "" {
		return nil
	}
	return &s
}

// Float returns the column as float64, 0 when absent or unparsable
func (r Row) Float(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		if i, ok := asInt64(v); ok {
			return float64(i)
		}
		return 0
	}
}

// Int returns the column as int64, 0 when absent or unparsable
func (r Row) Int(col string) int64 {
	switch v := r[col].(type) {
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, _ := v.Float64()
		return int64(f)
	case string:
		i, _ := strconv.ParseInt(v, 10, 64)
		return i
	default:
		i, _ := asInt64(v)
		return i
	}
}

// Bool returns the column as bool
func (r Row) Bool(col string) bool {
	switch v := r[col].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return r.Int(col) != 0
	}
}

// Matches reports whether every filter column equals the row value.
// Values are compared by their string form so 7 and int8(7) match.
func (r Row) Matches(filter Filter) bool {
	for col, want := range filter {
		if r.String(col) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	}
	return 0, false
}
