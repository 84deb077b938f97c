package events

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type FilterError struct {
	Field   string
	Message string
}

func (e FilterError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e FilterError) Unwrap() error {
	return ErrInvalidInput
}

// dateLayouts are the accepted spellings of an event date, most specific
// first. Values without a zone are interpreted as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate parses an event date as sent by clients (RFC 3339, an HTML
// datetime-local value, or a bare day).
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, FilterError{Field: "date", Message: "missing"}
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, FilterError{Field: "date", Message: "must be an ISO8601 date"}
}

// ParseFilters reads the public listing query: q, city, date and limit.
func ParseFilters(values url.Values) (Filters, error) {
	filters := Filters{
		Query: strings.TrimSpace(values.Get("q")),
		City:  strings.TrimSpace(values.Get("city")),
		Limit: MaxListResults,
	}

	if raw := strings.TrimSpace(values.Get("date")); raw != "" {
		day, err := ParseDate(raw)
		if err != nil {
			return filters, err
		}
		filters.Day = &day
	}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filters, FilterError{Field: "limit", Message: "must be a number"}
		}
		if limit < 1 || limit > MaxListResults {
			return filters, FilterError{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", MaxListResults)}
		}
		filters.Limit = limit
	}

	return filters, nil
}

// DayRange returns the half-open bucket [start, end) selected by Day.
func (f Filters) DayRange() (time.Time, time.Time, bool) {
	if f.Day == nil {
		return time.Time{}, time.Time{}, false
	}
	start := f.Day.UTC()
	return start, start.Add(24 * time.Hour), true
}

// EffectiveLimit clamps Limit to (0, MaxListResults].
func (f Filters) EffectiveLimit() int {
	if f.Limit <= 0 || f.Limit > MaxListResults {
		return MaxListResults
	}
	return f.Limit
}

// Matches applies the filter semantics to a single event. Stores that
// cannot push filtering down to their engine use it directly.
func (f Filters) Matches(event Event) bool {
	if f.Query != "" && !containsFold(event.Title, f.Query) {
		return false
	}
	if f.City != "" && !containsFold(event.Location, f.City) {
		return false
	}
	if start, end, ok := f.DayRange(); ok {
		if event.Date.Before(start) || !event.Date.Before(end) {
			return false
		}
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
