// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package coerce converts loosely-typed values from parsed XML mappings into
// Go scalars. Each function handles one field category: identifiers and
// counters, flags, timestamps, rich text, and repeated elements.
package coerce

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// List normalizes a value that may hold one element or many. A nil value
// yields nil, a slice is returned as-is, and any other value is wrapped in a
// one-element slice.
func List(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out
	default:
		return []any{v}
	}
}

// Map asserts that v is a nested mapping.
func Map(v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a nested element, got %T", v)
	}
	return m, nil
}

// Maps applies List to v and asserts every element is a mapping.
func Maps(v any) ([]map[string]any, error) {
	items := List(v)
	out := make([]map[string]any, 0, len(items))
	for i, item := range items {
		m, err := Map(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// Int converts a numeric-like value to int. Strings are parsed in base 10
// after trimming whitespace; leading zeros never switch the base.
func Int(v any) (int, error) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, fmt.Errorf("empty string is not an integer")
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("parsing %q as integer: %w", t, err)
		}
		return n, nil
	case bool:
		return 0, fmt.Errorf("boolean %v is not an integer", t)
	case float32:
		return Int(float64(t))
	case float64:
		if math.IsInf(t, 0) || t != math.Trunc(t) {
			return 0, fmt.Errorf("%v is not a whole number", t)
		}
	case map[string]any:
		// An element with attributes keeps its value under #text.
		if text, ok := t["#text"]; ok {
			return Int(text)
		}
		return 0, fmt.Errorf("nested element is not an integer")
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("converting %T to integer: %w", v, err)
	}
	return n, nil
}

// Bool converts a truthy or falsy representation to a strict boolean.
// Numbers are true when non-zero. Strings accept 1/0, t/f, true/false,
// yes/no, y/n and on/off in any case.
func Bool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "t", "true", "yes", "y", "on":
			return true, nil
		case "0", "f", "false", "no", "n", "off":
			return false, nil
		}
		return false, fmt.Errorf("parsing %q as boolean: unrecognized value", t)
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("converting %T to boolean: %w", v, err)
	}
	return b, nil
}

// timeLayouts lists the timestamp shapes the API emits, most specific first.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// Time converts an ISO-8601 timestamp to a time.Time. An empty string yields
// nil so that absent timestamps carry no information.
func Time(v any) (*time.Time, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &t, nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		c := *t
		return &c, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return &ts, nil
			}
		}
		return nil, fmt.Errorf("parsing %q as ISO-8601 timestamp", t)
	}
	return nil, fmt.Errorf("converting %T to timestamp", v)
}

// String converts a scalar value to its string form. Elements that carry
// attributes contribute their #text value.
func String(v any) (string, error) {
	if m, ok := v.(map[string]any); ok {
		text, ok := m["#text"]
		if !ok {
			return "", fmt.Errorf("nested element has no text content")
		}
		return String(text)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("converting %T to string: %w", v, err)
	}
	return s, nil
}

// Missing returns the keys from required that are absent in m, sorted.
func Missing(m map[string]any, required ...string) []string {
	var missing []string
	for _, key := range required {
		if _, ok := m[key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

// Float converts a numeric-like value to float64, parsing strings in base 10.
func Float(v any) (float64, error) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("parsing %q as number: %w", s, err)
		}
		return f, nil
	}
	if _, ok := v.(bool); ok {
		return 0, fmt.Errorf("boolean %v is not a number", v)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("converting %T to number: %w", v, err)
	}
	return f, nil
}
