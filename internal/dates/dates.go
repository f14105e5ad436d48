// Package dates converts the loosely-typed timestamps found in upstream payloads to UTC instants.
package dates

import (
	"strings"
	"time"

	"github.com/jonathan/wins-exporter/internal/jsontree"
)

// DisplayLayout is the layout used for dates in exported rows.
const DisplayLayout = "2006-01-02 15:04 UTC"

// Plausible bounds for upstream timestamps. Anything outside is treated as unparseable
// rather than guessed at (small integers could be seconds, days, or garbage).
var (
	MinPlausible = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxPlausible = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
)

// localLayouts are accepted for strings without an offset; they are read as UTC.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// zonedLayouts carry an explicit offset.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04Z07:00",
}

// FromEpochMillis converts epoch milliseconds. Zero and out-of-range values return false.
func FromEpochMillis(ms int64) (time.Time, bool) {
	if ms == 0 {
		return time.Time{}, false
	}
	t := time.UnixMilli(ms).UTC()
	if !plausible(t) {
		return time.Time{}, false
	}
	return t, true
}

// ParseTimestamp parses an ISO-8601 style string. Strings without an offset are UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return checked(t.UTC())
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return checked(t)
		}
	}
	return time.Time{}, false
}

// FromValue interprets a JSON value as a timestamp: numbers and all-digit strings are
// epoch milliseconds, other strings are calendar timestamps.
func FromValue(v *jsontree.Value) (time.Time, bool) {
	if v.IsNull() {
		return time.Time{}, false
	}
	if ms, ok := v.Int64(); ok {
		return FromEpochMillis(ms)
	}
	if v.Kind == jsontree.String {
		return ParseTimestamp(v.Str)
	}
	return time.Time{}, false
}

// Format renders t for display, or "" when t is nil.
func Format(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(DisplayLayout)
}

func checked(t time.Time) (time.Time, bool) {
	if !plausible(t) {
		return time.Time{}, false
	}
	return t, true
}

func plausible(t time.Time) bool {
	return !t.Before(MinPlausible) && t.Before(MaxPlausible)
}
