package domain

import (
	"strconv"
	"strings"
)

// Quote is a flat key-value snapshot of quote/company info. Providers use
// different field names for the same concept, so lookups take an ordered
// list of candidates; the first non-null match wins.
type Quote map[string]any

// Float returns the first candidate key holding a usable numeric value.
// Strings are coerced; NaN/Inf and non-numeric values are skipped.
func (q Quote) Float(keys ...string) *float64 {
	if q == nil {
		return nil
	}
	for _, key := range keys {
		v, ok := q[key]
		if !ok || v == nil {
			continue
		}
		if f := coerceFloat(v); f != nil {
			return f
		}
	}
	return nil
}

// String returns the first candidate key holding a non-empty string value.
func (q Quote) String(keys ...string) string {
	if q == nil {
		return ""
	}
	for _, key := range keys {
		v, ok := q[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if trimmed := strings.TrimSpace(s); trimmed != "" && trimmed != "N/A" {
				return trimmed
			}
		}
	}
	return ""
}

// Value returns the first candidate key holding any non-empty value.
func (q Quote) Value(keys ...string) any {
	if q == nil {
		return nil
	}
	for _, key := range keys {
		v, ok := q[key]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr {
			trimmed := strings.TrimSpace(s)
			if trimmed == "" || trimmed == "N/A" {
				continue
			}
		}
		return v
	}
	return nil
}

func coerceFloat(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return Float(n)
	case float32:
		return Float(float64(n))
	case int:
		return Float(float64(n))
	case int64:
		return Float(float64(n))
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		return Float(parsed)
	}
	return nil
}
