package domain

import (
	"fmt"
	"time"
)

// TimestampLayout is the canonical wire/storage form for temporal values:
// fixed-width millisecond UTC, so lexicographic order equals chronological
// order. Record writes and filter compilation both normalize to it.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// timestampParseLayouts are accepted on input, most specific first.
var timestampParseLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// FormatTimestamp renders a time in the canonical layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a temporal value in any accepted layout.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampParseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseTimeOfDay parses an HH:MM value anchored to the epoch day, giving
// times of day a total order under the canonical layout.
func ParseTimeOfDay(s string) (time.Time, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized time of day %q", s)
	}
	return time.Date(1970, time.January, 1, t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

// CanonicalizeValue normalizes a value of the given field type for storage
// or comparison. Temporal values become canonical timestamp strings; every
// other type passes through unchanged, as does a temporal value that fails
// to parse.
func CanonicalizeValue(t FieldType, v any) any {
	if !t.IsTemporal() {
		return v
	}
	s, ok := v.(string)
	if !ok {
		if tv, isTime := v.(time.Time); isTime {
			return FormatTimestamp(tv)
		}
		return v
	}
	if t == FieldTime {
		parsed, err := ParseTimeOfDay(s)
		if err != nil {
			return v
		}
		return FormatTimestamp(parsed)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return v
	}
	return FormatTimestamp(parsed)
}
