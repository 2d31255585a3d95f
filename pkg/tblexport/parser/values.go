package parser

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// Dash is the placeholder documents use for "no value" in numeric columns.
const Dash = "-"

// normalizeValue folds full-width forms and strips spacing and thousands
// separators so that "１,２００" and "1200" read the same.
func normalizeValue(s string) string {
	s = strings.TrimSpace(width.Narrow.String(s))
	return strings.ReplaceAll(s, ",", "")
}

// ParseValue attempts to parse a cell text as a number.
// Returns int64 for integers, float64 for decimals, or the original string.
func ParseValue(s string) interface{} {
	v := normalizeValue(s)
	// Try integer first
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	// Try float, allowing a trailing percent sign
	if f, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	// Return as string
	return s
}

// IsNumeric reports whether s reads as a number.
func IsNumeric(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	_, isString := ParseValue(s).(string)
	return !isString
}

// IsDash reports whether s is the literal dash placeholder.
func IsDash(s string) bool {
	return normalizeValue(s) == Dash
}
