package events

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseFiltersDefaults(t *testing.T) {
	filters, err := ParseFilters(url.Values{})

	require.NoError(t, err)
	require.Empty(t, filters.Query)
	require.Empty(t, filters.City)
	require.Nil(t, filters.Day)
	require.Equal(t, MaxListResults, filters.Limit)
}

func TestParseFiltersValues(t *testing.T) {
	filters, err := ParseFilters(url.Values{
		"q":     {" jazz "},
		"city":  {"Austin"},
		"date":  {"2025-06-01"},
		"limit": {"20"},
	})

	require.NoError(t, err)
	require.Equal(t, "jazz", filters.Query)
	require.Equal(t, "Austin", filters.City)
	require.Equal(t, 20, filters.Limit)

	start, end, ok := filters.DayRange()
	require.True(t, ok)
	require.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), end)
}

func TestParseFiltersErrors(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		field  string
	}{
		{"bad date", url.Values{"date": {"June first"}}, "date"},
		{"bad limit", url.Values{"limit": {"many"}}, "limit"},
		{"limit too high", url.Values{"limit": {"500"}}, "limit"},
		{"limit zero", url.Values{"limit": {"0"}}, "limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilters(tt.values)
			require.Error(t, err)
			var filterErr FilterError
			require.ErrorAs(t, err, &filterErr)
			require.Equal(t, tt.field, filterErr.Field)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestFiltersMatchesDayBoundaries(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	filters := Filters{City: "austin", Day: &day}

	require.True(t, filters.Matches(Event{Location: "Austin, TX", Date: day}))
	require.True(t, filters.Matches(Event{Location: "AUSTIN", Date: day.Add(24*time.Hour - time.Second)}))
	require.False(t, filters.Matches(Event{Location: "Austin", Date: day.Add(24 * time.Hour)}))
	require.False(t, filters.Matches(Event{Location: "Austin", Date: day.Add(-time.Second)}))
	require.False(t, filters.Matches(Event{Location: "Dallas", Date: day}))
}

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)
	for _, value := range []string{"2025-06-01T18:30:00Z", "2025-06-01T20:30:00+02:00", "2025-06-01T18:30", "2025-06-01 18:30"} {
		got, err := ParseDate(value)
		require.NoError(t, err, value)
		require.True(t, want.Equal(got), value)
	}
}
