package binding

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// numericPattern matches decimal integers, decimals and exponent notation,
// with an optional sign. Hex, octal and digit separators are not numeric.
var numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Normalize applies the strict scalar conversion to params and returns a
// fresh map:
//
//   - nil entries are dropped from every map, nested ones included;
//   - numeric-looking strings become int64 (integral) or float64 (decimal or
//     exponent); integral strings outside the int64 range stay strings;
//   - the exact strings "true" and "false" become booleans;
//   - json.Number values become int64 or float64, and stay json.Number when
//     out of range so the original digits survive.
//
// Lists are walked element by element; nil elements are kept. Normalize is
// idempotent.
func Normalize(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for key, value := range params {
		if value == nil {
			continue
		}
		out[key] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return Normalize(v)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = normalizeValue(item)
		}
		return items
	case string:
		return coerceString(v)
	case json.Number:
		if n, ok := parseNumber(string(v)); ok {
			return n
		}
		return v
	default:
		return value
	}
}

func coerceString(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if n, ok := parseNumber(s); ok {
		return n
	}
	return s
}

// IsNumeric reports whether s would be converted to a number by Normalize.
// Surrounding whitespace is ignored.
func IsNumeric(s string) bool {
	_, ok := parseNumber(s)
	return ok
}

func parseNumber(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if !numericPattern.MatchString(s) {
		return nil, false
	}
	if !strings.ContainsAny(s, ".eE") {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return nil, false
	}
	return f, true
}

// DropNulls removes nil entries from params and its nested maps without
// converting any scalar.
func DropNulls(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for key, value := range params {
		if value == nil {
			continue
		}
		out[key] = dropNullsValue(value)
	}
	return out
}

func dropNullsValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return DropNulls(v)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = dropNullsValue(item)
		}
		return items
	default:
		return value
	}
}
