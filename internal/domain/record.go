// internal/domain/record.go
package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is an untyped row as it crosses the gateway boundary: column name to
// scalar or decoded JSON value.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns a copy of r with every key of patch applied on top.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	if out == nil {
		out = Record{}
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Has reports whether key is present and non-null.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// String renders the value under key as text. Absent and null values yield "".
func (r Record) String(key string) string {
	return stringify(r[key])
}

// OptString is String with absent, null and blank values mapped to nil.
func (r Record) OptString(key string) *string {
	s := strings.TrimSpace(r.String(key))
	if s == "" {
		return nil
	}
	v := r.String(key)
	return &v
}

// Int reads an integral value, accepting numeric strings.
func (r Record) Int(key string) (int64, bool) {
	switch v := r[key].(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}
	return 0, false
}

// OptInt is Int with a nil result for absent or non-integral values.
func (r Record) OptInt(key string) *int64 {
	n, ok := r.Int(key)
	if !ok {
		return nil
	}
	return &n
}

// Float reads a numeric value, accepting numeric strings.
func (r Record) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// Bool reads a boolean, treating SQLite-style integers and "true"/"false" text.
func (r Record) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case float64:
		return v != 0
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// Strings reads a list of scalars. JSON-encoded text is decoded first.
func (r Record) Strings(key string) []string {
	raw := r[key]
	if s, ok := raw.(string); ok {
		var decoded []any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil
		}
		raw = decoded
	}
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := stringify(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Records reads a list of nested objects, e.g. an embedded relation or a JSON array column.
func (r Record) Records(key string) []Record {
	raw := r[key]
	if s, ok := raw.(string); ok {
		var decoded []any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil
		}
		raw = decoded
	}
	switch v := raw.(type) {
	case []Record:
		return v
	case []map[string]any:
		out := make([]Record, 0, len(v))
		for _, m := range v {
			out = append(out, Record(m))
		}
		return out
	case []any:
		out := make([]Record, 0, len(v))
		for _, item := range v {
			switch m := item.(type) {
			case map[string]any:
				out = append(out, Record(m))
			case Record:
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

// Stringify renders any scalar the way Record.String does.
func Stringify(v any) string {
	return stringify(v)
}

// StrPtr returns nil for blank text, otherwise a pointer to the trimmed value.
func StrPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
