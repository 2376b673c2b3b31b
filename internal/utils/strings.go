package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// TrimOrEmpty normalizes user input without turning nil into "nil".
func TrimOrEmpty(s string) string {
	return strings.TrimSpace(s)
}

// ToString renders a loosely typed request value. Lists yield their first element.
func ToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []string:
		if len(t) == 0 {
			return ""
		}
		return strings.TrimSpace(t[0])
	case []byte:
		return strings.TrimSpace(string(t))
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(v)
	}
}

// ToInt64 parses integers out of strings, json numbers and floats.
func ToInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case int32:
		return int64(t), nil
	case uint64:
		return int64(t), nil
	case float64:
		if t != float64(int64(t)) {
			return 0, fmt.Errorf("%v is not an integer", t)
		}
		return int64(t), nil
	case json.Number:
		return t.Int64()
	}
	s := ToString(v)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseInt(s, 10, 64)
}

// ToBoolean coerces request values. Strings "1", "TRUE" and "YES" (any case, trimmed)
// are true, as are numeric 1 and bool true; everything else is false.
// Falsy inputs (nil, "", 0, false) are returned unchanged.
func ToBoolean(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case bool:
		return t
	case string:
		if t == "" {
			return t
		}
		switch strings.ToUpper(strings.TrimSpace(t)) {
		case "1", "TRUE", "YES":
			return true
		}
		return false
	case []string:
		if len(t) == 0 {
			return t
		}
		return ToBoolean(t[0])
	case int:
		if t == 0 {
			return t
		}
		return t == 1
	case int64:
		if t == 0 {
			return t
		}
		return t == 1
	case float64:
		if t == 0 {
			return t
		}
		return t == 1
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return false
		}
		return ToBoolean(f)
	}
	return false
}

// IsTruthy is ToBoolean collapsed to a plain bool.
func IsTruthy(v any) bool {
	b, ok := ToBoolean(v).(bool)
	return ok && b
}

// SplitCSV splits comma separated values and drops blanks.
func SplitCSV(raw string) []string {
	out := []string{}
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseIDList accepts a CSV string, a list of scalars, or a list of objects with "id".
func ParseIDList(v any) ([]int64, error) {
	var items []any
	switch t := v.(type) {
	case nil:
		return []int64{}, nil
	case string:
		for _, s := range SplitCSV(t) {
			items = append(items, s)
		}
	case []string:
		for _, s := range t {
			for _, p := range SplitCSV(s) {
				items = append(items, p)
			}
		}
	case []any:
		items = t
	case []int64:
		return t, nil
	default:
		items = []any{t}
	}

	out := make([]int64, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			it = m["id"]
		}
		id, err := ToInt64(it)
		if err != nil {
			return nil, fmt.Errorf("invalid id %v: %w", it, err)
		}
		out = append(out, id)
	}
	return out, nil
}
