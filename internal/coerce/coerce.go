// Package coerce converts loosely-typed wire values into safe typed values.
//
// None of the functions in this package fail: anything that cannot be
// interpreted as the requested type collapses to the caller's default.
package coerce

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	intPrefix     = regexp.MustCompile(`^[+-]?\d+`)
	floatPrefix   = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	numericString = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// ToInt truncates numbers and parses the leading integer of strings.
// The optional def replaces 0 as the fallback.
func ToInt(v any, def ...int64) int64 {
	d := first(def)
	switch n := v.(type) {
	case nil:
		return d
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint:
		if uint64(n) > math.MaxInt64 {
			return d
		}
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		if n > math.MaxInt64 {
			return d
		}
		return int64(n)
	case float32:
		return truncate(float64(n), d)
	case float64:
		return truncate(n, d)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return truncate(f, d)
		}
		return d
	case string:
		return parseIntPrefix(n, d)
	default:
		return parseIntPrefix(fmt.Sprint(v), d)
	}
}

// ToNum is ToInt for floating point values. NaN and infinities never escape.
func ToNum(v any, def ...float64) float64 {
	var d float64
	if len(def) > 0 {
		d = def[0]
	}
	var f float64
	switch n := v.(type) {
	case nil:
		return d
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return d
		}
		f = parsed
	case string:
		return parseFloatPrefix(n, d)
	default:
		return parseFloatPrefix(fmt.Sprint(v), d)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return d
	}
	return f
}

// ToStr returns def only when v is nil.
func ToStr(v any, def ...string) string {
	if v == nil {
		if len(def) > 0 {
			return def[0]
		}
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(s)
	case time.Time:
		return s.UTC().Format(isoLayout)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ToDate parses v as a date, returning nil for absent or invalid input.
func ToDate(v any) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil
		}
		c := *t
		return &c
	}

	s := strings.TrimSpace(ToStr(v))
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return &parsed
		}
	}
	return nil
}

const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// ISO formats t as a millisecond-precision UTC timestamp. ok is false for a
// nil date so that callers leave the key out instead of sending null.
func ISO(t *time.Time) (string, bool) {
	if t == nil {
		return "", false
	}
	return t.UTC().Format(isoLayout), true
}

// IsNumeric reports whether s is entirely a decimal number.
func IsNumeric(s string) bool {
	return numericString.MatchString(s)
}

// CanonicalNumber rewrites a numeric string as a valid JSON number literal,
// so "00123" becomes "123" and "1.50" becomes "1.5". ok is false when s is
// not numeric or does not fit a float64.
func CanonicalNumber(s string) (string, bool) {
	if !IsNumeric(s) {
		return "", false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(i, 10), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

func first(def []int64) int64 {
	if len(def) > 0 {
		return def[0]
	}
	return 0
}

func truncate(f float64, def int64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	// float64(MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return def
	}
	return int64(math.Trunc(f))
}

func parseIntPrefix(s string, def int64) int64 {
	m := intPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return def
	}
	i, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return def
	}
	return i
}

func parseFloatPrefix(s string, def float64) float64 {
	m := floatPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return def
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}
