package configorm

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Kind is the semantic type of a field.
type Kind uint8

const (
	// KindInteger is a signed 64-bit integer.
	KindInteger Kind = iota
	// KindFloat is a 64-bit float.
	KindFloat
	// KindString is a string.
	KindString
	// KindBoolean is a boolean.
	KindBoolean
	// KindList is a homogeneous list of one of the scalar kinds.
	KindList
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// kindOf maps a field's Go type to its kind. Lists of int64, float64,
// string and bool are supported; ok is false for anything else.
func kindOf[T any]() (kind, elem Kind, ok bool) {
	var zero T
	switch any(zero).(type) {
	case int64:
		return KindInteger, 0, true
	case float64:
		return KindFloat, 0, true
	case string:
		return KindString, 0, true
	case bool:
		return KindBoolean, 0, true
	case []int64:
		return KindList, KindInteger, true
	case []float64:
		return KindList, KindFloat, true
	case []string:
		return KindList, KindString, true
	case []bool:
		return KindList, KindBoolean, true
	}
	return 0, 0, false
}

// castRaw parses stored text into the Go value for kind.
// Lists come back as []int64, []float64, []string or []bool.
func castRaw(kind, elem Kind, raw string) (any, error) {
	switch kind {
	case KindInteger:
		return parseInteger(raw)
	case KindFloat:
		return parseFloat(raw)
	case KindString:
		return strings.TrimSpace(raw), nil
	case KindBoolean:
		return parseBoolean(raw), nil
	case KindList:
		switch elem {
		case KindInteger:
			return parseList(raw, parseInteger)
		case KindFloat:
			return parseList(raw, parseFloat)
		case KindString:
			return parseList(raw, parseStringElement)
		case KindBoolean:
			return parseList(raw, func(s string) (bool, error) { return parseBoolean(s), nil })
		}
	}
	return nil, fmt.Errorf("unsupported kind %s", kind)
}

func parseInteger(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}

func parseFloat(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

// parseBoolean never fails: text other than true/1/false/0 is truthy when non-empty.
func parseBoolean(raw string) bool {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "true", "1":
		return true
	case "false", "0", "":
		return false
	default:
		return true
	}
}

var (
	bracketStripper = strings.NewReplacer("[", "", "]", "")
	quoteStripper   = strings.NewReplacer("'", "", `"`, "")
)

func parseStringElement(s string) (string, error) {
	return quoteStripper.Replace(strings.TrimSpace(s)), nil
}

// parseList splits "[a, b, c]" on commas and converts every element.
// Empty elements are kept; a blank body is the empty list.
func parseList[E any](raw string, conv func(string) (E, error)) ([]E, error) {
	body := bracketStripper.Replace(raw)
	if strings.TrimSpace(body) == "" {
		return []E{}, nil
	}

	parts := strings.Split(body, ",")
	out := make([]E, 0, len(parts))
	for i, part := range parts {
		v, err := conv(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// formatValue renders a value as the text written to the store. The output
// follows Python's str(), the layout INI files of existing deployments use.
func formatValue(kind Kind, v any) string {
	switch kind {
	case KindInteger:
		return strconv.FormatInt(v.(int64), 10)
	case KindFloat:
		return formatFloat(v.(float64))
	case KindString:
		return v.(string)
	case KindBoolean:
		return formatBoolean(v.(bool))
	case KindList:
		return formatList(v)
	}
	return fmt.Sprintf("%v", v)
}

func formatBoolean(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func formatList(v any) string {
	var parts []string
	switch list := v.(type) {
	case []int64:
		for _, e := range list {
			parts = append(parts, strconv.FormatInt(e, 10))
		}
	case []float64:
		for _, e := range list {
			parts = append(parts, formatFloat(e))
		}
	case []string:
		for _, e := range list {
			parts = append(parts, "'"+e+"'")
		}
	case []bool:
		for _, e := range list {
			parts = append(parts, formatBoolean(e))
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// coerceValue converts a Go value into the representation used for kind.
// lenient additionally accepts integers for float kinds; it is used for
// declared defaults, never for writes.
func coerceValue(kind, elem Kind, v any, lenient bool) (any, bool) {
	switch kind {
	case KindInteger:
		return coerceInteger(v)
	case KindFloat:
		return coerceFloat(v, lenient)
	case KindString:
		s, ok := v.(string)
		return s, ok
	case KindBoolean:
		b, ok := v.(bool)
		return b, ok
	case KindList:
		rv := reflect.ValueOf(v)
		if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			return nil, false
		}
		switch elem {
		case KindInteger:
			return coerceSlice(rv, coerceInteger)
		case KindFloat:
			return coerceSlice(rv, func(e any) (float64, bool) { return coerceFloat(e, lenient) })
		case KindString:
			return coerceSlice(rv, func(e any) (string, bool) { s, ok := e.(string); return s, ok })
		case KindBoolean:
			return coerceSlice(rv, func(e any) (bool, bool) { b, ok := e.(bool); return b, ok })
		}
	}
	return nil, false
}

func coerceSlice[E any](rv reflect.Value, conv func(any) (E, bool)) (any, bool) {
	out := make([]E, rv.Len())
	for i := range out {
		e, ok := conv(rv.Index(i).Interface())
		if !ok {
			return nil, false
		}
		out[i] = e
	}
	return out, true
}

func coerceInteger(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}

func coerceFloat(v any, lenient bool) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	if lenient {
		if i, ok := coerceInteger(v); ok {
			return float64(i), true
		}
	}
	return 0, false
}

// cloneValue copies list values so callers cannot mutate a stored default.
func cloneValue(v any) any {
	switch list := v.(type) {
	case []int64:
		return slices.Clone(list)
	case []float64:
		return slices.Clone(list)
	case []string:
		return slices.Clone(list)
	case []bool:
		return slices.Clone(list)
	}
	return v
}
