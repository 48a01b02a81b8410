package web

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ErrInvalidDateParts reports a period window whose date parts are out of
// range or do not form a calendar date.
var ErrInvalidDateParts = errors.New("invalid date parts")

// The collector has no data before 2016; the far bound keeps the window
// finite for index scans.
const (
	minYear = 2016
	maxYear = 2031
)

// datePart describes one query parameter of the period window.
type datePart struct {
	name string
	def  int
	min  int
	max  int
}

var startParts = []datePart{
	{"start_year", minYear, minYear, maxYear},
	{"start_month", 1, 1, 12},
	{"start_day", 1, 1, 31},
	{"start_hour", 0, 0, 23},
	{"start_minute", 0, 0, 59},
}

var endParts = []datePart{
	{"end_year", maxYear, minYear, maxYear},
	{"end_month", 1, 1, 12},
	{"end_day", 1, 1, 31},
	{"end_hour", 0, 0, 23},
	{"end_minute", 0, 0, 59},
}

// parsePeriodBounds reads the window's date parts from the query, filling
// defaults per missing part, and returns both bounds in UTC. Parts are
// interpreted in the display zone, the same zone created_at is rendered in.
func parsePeriodBounds(query url.Values, zone *time.Location) (start, end time.Time, err error) {
	start, err = buildBound(query, startParts, zone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	end, err = buildBound(query, endParts, zone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	return start, end, nil
}

func buildBound(query url.Values, parts []datePart, zone *time.Location) (time.Time, error) {
	values := make([]int, len(parts))
	for i, part := range parts {
		v, err := partValue(query, part)
		if err != nil {
			return time.Time{}, err
		}
		values[i] = v
	}
	year, month, day, hour, minute := values[0], values[1], values[2], values[3], values[4]

	// time.Date normalizes out-of-calendar values (Feb 30 rolls into March);
	// a changed round-trip means the combination never existed.
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, zone)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d is not a calendar date", ErrInvalidDateParts, year, month, day)
	}

	return t.UTC(), nil
}

func partValue(query url.Values, part datePart) (int, error) {
	raw := query.Get(part.name)
	if raw == "" {
		return part.def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidDateParts, part.name, raw)
	}
	if v < part.min || v > part.max {
		return 0, fmt.Errorf("%w: %s must be between %d and %d", ErrInvalidDateParts, part.name, part.min, part.max)
	}
	return v, nil
}
