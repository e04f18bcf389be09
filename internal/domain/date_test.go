package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	cases := map[string]time.Time{
		"2024-01-01":                time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		"2024-06-02T10:30:00Z":      time.Date(2024, time.June, 2, 10, 30, 0, 0, time.UTC),
		"2024-06-02T10:30:00+02:00": time.Date(2024, time.June, 2, 8, 30, 0, 0, time.UTC),
		"Sun Jun 02 2024":           time.Date(2024, time.June, 2, 0, 0, 0, 0, time.UTC),
		" 2024-03-05 ":              time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
	}
	for raw, want := range cases {
		got, ok := ParseDate(raw)
		require.True(t, ok, raw)
		require.True(t, want.Equal(got), "%s: got %s", raw, got)
		require.Equal(t, time.UTC, got.Location())
	}

	for _, raw := range []string{"", "tomorrow", "2024-13-45"} {
		_, ok := ParseDate(raw)
		require.False(t, ok, raw)
	}
}

func TestResolveDate(t *testing.T) {
	now := time.Date(2024, time.June, 2, 23, 59, 0, 0, time.FixedZone("X", -3*3600))

	got, err := ResolveDate("", now)
	require.NoError(t, err)
	require.True(t, now.Equal(got))

	_, err = ResolveDate("whenever", now)
	var ce *CastError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "date", ce.Path)
}

func TestFormatting(t *testing.T) {
	ts := time.Date(2024, time.January, 1, 7, 8, 9, 123456789, time.UTC)
	require.Equal(t, "Mon Jan 01 2024", ToCalendarString(ts))
	require.Equal(t, "2024-01-01T07:08:09.123Z", ToISOString(ts))

	local := time.Date(2024, time.January, 1, 1, 0, 0, 0, time.FixedZone("X", 5*3600))
	require.Equal(t, "Sun Dec 31 2023", ToCalendarString(local))
}
