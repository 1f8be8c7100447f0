package invoice

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"ywbilling/lib/clock"
)

// Record is a persisted invoice row as untyped key-value data. Keys may be
// snake_case or camelCase; accessors look up aliases in the order given and
// report whether a value was present at all.
type Record map[string]any

func (r Record) lookup(keys ...string) (any, string, bool) {
	for _, key := range keys {
		if v, ok := r[key]; ok && v != nil {
			return v, key, true
		}
	}
	if len(keys) > 0 {
		return nil, keys[0], false
	}
	return nil, "", false
}

// String returns the first present alias as text; numbers are formatted
func (r Record) String(keys ...string) string {
	v, _, ok := r.lookup(keys...)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case fmt.Stringer:
		return s.String()
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		f, err := toFloat(s)
		if err != nil {
			return ""
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

// Number coerces the first present alias to a finite float
func (r Record) Number(keys ...string) (value float64, present bool, err error) {
	v, key, ok := r.lookup(keys...)
	if !ok {
		return 0, false, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, true, fmt.Errorf("%s: %w", key, err)
	}
	return f, true, nil
}

// Optional coerces a modifier field, falling back to def when it is absent
// or not numeric
func (r Record) Optional(def float64, keys ...string) float64 {
	f, ok, err := r.Number(keys...)
	if !ok || err != nil {
		return def
	}
	return f
}

func (r Record) Date(keys ...string) (t time.Time, present bool, err error) {
	v, key, ok := r.lookup(keys...)
	if !ok {
		return time.Time{}, false, nil
	}
	switch d := v.(type) {
	case time.Time:
		return clock.Date(d), true, nil
	case *time.Time:
		if d == nil {
			return time.Time{}, false, nil
		}
		return clock.Date(*d), true, nil
	case string:
		if strings.TrimSpace(d) == "" {
			return time.Time{}, false, nil
		}
		t, err = clock.ParseDate(strings.TrimSpace(d))
		if err != nil {
			return time.Time{}, true, fmt.Errorf("%s: %w", key, err)
		}
		return t, true, nil
	}
	return time.Time{}, true, fmt.Errorf("%s: unsupported date type %T", key, v)
}

// Timestamp keeps the time of day, unlike Date
func (r Record) Timestamp(keys ...string) time.Time {
	v, _, ok := r.lookup(keys...)
	if !ok {
		return time.Time{}
	}
	switch d := v.(type) {
	case time.Time:
		return d.UTC()
	case string:
		if t, err := time.Parse(time.RFC3339Nano, d); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Nested returns a nested object, or nil when absent
func (r Record) Nested(keys ...string) (Record, error) {
	v, key, ok := r.lookup(keys...)
	if !ok {
		return nil, nil
	}
	rec, ok := asRecord(v)
	if !ok {
		return nil, fmt.Errorf("%s: not an object", key)
	}
	return rec, nil
}

// Records returns a list of nested objects; a JSON text column is accepted
func (r Record) Records(keys ...string) ([]Record, bool, error) {
	v, key, ok := r.lookup(keys...)
	if !ok {
		return nil, false, nil
	}
	var list []any
	switch l := v.(type) {
	case []any:
		list = l
	case []Record:
		return l, true, nil
	case []map[string]any:
		list = make([]any, len(l))
		for i := range l {
			list[i] = l[i]
		}
	case string:
		if err := json.Unmarshal([]byte(l), &list); err != nil {
			return nil, true, fmt.Errorf("%s: %w", key, err)
		}
	case []byte:
		if err := json.Unmarshal(l, &list); err != nil {
			return nil, true, fmt.Errorf("%s: %w", key, err)
		}
	default:
		return nil, true, fmt.Errorf("%s: not a list", key)
	}
	records := make([]Record, 0, len(list))
	for i, item := range list {
		rec, ok := asRecord(item)
		if !ok {
			return nil, true, fmt.Errorf("%s[%d]: not an object", key, i)
		}
		records = append(records, rec)
	}
	return records, true, nil
}

func asRecord(v any) (Record, bool) {
	switch m := v.(type) {
	case Record:
		return m, true
	case map[string]any:
		return m, true
	}
	return nil, false
}

func toFloat(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		p, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n.String())
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		f = p
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return f, nil
}
