package domain

import (
	"strings"
	"time"
)

const (
	calendarLayout = "Mon Jan 02 2006"
	isoLayout      = "2006-01-02T15:04:05.000Z07:00"
)

// Date-only inputs are read as UTC midnight; everything is rendered in UTC.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01",
	"2006",
	"2006/01/02",
	"01/02/2006",
	calendarLayout,
	"Mon Jan 2 2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseDate reads the date formats clients commonly send.
func ParseDate(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ResolveDate returns the instant an exercise is logged at: the parsed raw
// value, or now when raw is empty.
func ResolveDate(raw string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return now.UTC(), nil
	}
	t, ok := ParseDate(raw)
	if !ok {
		return time.Time{}, &CastError{Kind: "date", Value: raw, Path: "date"}
	}
	return t, nil
}

// ToCalendarString renders t as a calendar day, e.g. "Mon Jan 01 2024".
func ToCalendarString(t time.Time) string {
	return t.UTC().Format(calendarLayout)
}

// ToISOString renders t as a millisecond UTC timestamp, e.g.
// "2024-01-01T00:00:00.000Z".
func ToISOString(t time.Time) string {
	return t.UTC().Format(isoLayout)
}
