// Package coerce converts loosely typed source values into numbers, strings
// and dates. None of the functions fail: bad input yields a zero value or an
// explicit "not present" result.
package coerce

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cast"
)

const isoLayout = "2006-01-02T15:04:05.000Z"

// Number returns the numeric value of v, or 0 when v is nil, not a scalar,
// or does not parse. Non-finite values also coerce to 0.
func Number(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case string:
		v = strings.TrimSpace(n)
	case []byte:
		v = strings.TrimSpace(string(n))
	case fmt.Stringer:
		v = strings.TrimSpace(n.String())
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Int truncates Number(v) towards zero.
func Int(v any) int64 {
	return int64(Number(v))
}

// String renders a present scalar as text. Nil, empty and whitespace-only
// values, as well as maps and slices, report false.
func String(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s = t
	case []byte:
		s = string(t)
	case json.Number:
		s = t.String()
	case fmt.Stringer:
		s = t.String()
	case bool, float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		s = fmt.Sprint(t)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

var yearMonthPattern = regexp.MustCompile(`^(\d{4})(?:-(\d{1,2}))?$`)

// monthYearLayouts cover bare "month year" labels, which dateparse rejects
// for lack of a day.
var monthYearLayouts = []string{
	"Jan 2006",
	"January 2006",
}

// ISODate resolves v to a UTC instant. The boolean is false when no date can
// be derived; callers must drop the record instead of defaulting the date.
func ISODate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	}

	s, ok := String(v)
	if !ok {
		return time.Time{}, false
	}

	if m := yearMonthPattern.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month := 1
		if m[2] != "" {
			month, _ = strconv.Atoi(m[2])
		}
		if month >= 1 && month <= 12 {
			return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
		}
		return time.Time{}, false
	}

	if parsed, err := dateparse.ParseIn(s, time.UTC); err == nil {
		return parsed.UTC(), true
	}

	for _, layout := range monthYearLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatISO renders t the way browsers print Date.toISOString.
func FormatISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}
