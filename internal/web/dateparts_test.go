package web

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"pricecollector/pkg/timeconv"
)

// go test -v --run TestParsePeriodBounds_Defaults
func TestParsePeriodBounds_Defaults(t *testing.T) {
	zone := timeconv.FixedZone(3)

	start, end, err := parsePeriodBounds(url.Values{}, zone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStart := time.Date(2016, 1, 1, 0, 0, 0, 0, zone)
	wantEnd := time.Date(2031, 1, 1, 0, 0, 0, 0, zone)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}
	if start.Location() != time.UTC || end.Location() != time.UTC {
		t.Errorf("bounds should come back in UTC, got %v and %v", start.Location(), end.Location())
	}
}

func TestParsePeriodBounds_PartialOverride(t *testing.T) {
	query := url.Values{}
	query.Set("start_year", "2024")
	query.Set("start_month", "6")
	query.Set("end_year", "2024")
	query.Set("end_month", "7")
	query.Set("end_day", "15")
	query.Set("end_hour", "18")
	query.Set("end_minute", "30")

	start, end, err := parsePeriodBounds(query, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStart := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 7, 15, 18, 30, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}
}

func TestParsePeriodBounds_DisplayZone(t *testing.T) {
	zone := timeconv.FixedZone(3)
	query := url.Values{}
	query.Set("start_year", "2024")
	query.Set("start_month", "7")

	start, _, err := parsePeriodBounds(query, zone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Local midnight of July 1 in UTC+3 is 21:00 on the previous UTC day.
	want := time.Date(2024, 6, 30, 21, 0, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
}

func TestParsePeriodBounds_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"year below window", "start_year", "2015"},
		{"year above window", "end_year", "2032"},
		{"month too large", "start_month", "13"},
		{"month zero", "start_month", "0"},
		{"day too large", "end_day", "32"},
		{"hour too large", "start_hour", "24"},
		{"minute too large", "end_minute", "60"},
		{"not a number", "start_day", "abc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			query := url.Values{}
			query.Set(tc.key, tc.value)

			_, _, err := parsePeriodBounds(query, time.UTC)
			if !errors.Is(err, ErrInvalidDateParts) {
				t.Errorf("err = %v, want ErrInvalidDateParts", err)
			}
		})
	}
}

func TestParsePeriodBounds_CalendarCheck(t *testing.T) {
	query := url.Values{}
	query.Set("start_year", "2021")
	query.Set("start_month", "2")
	query.Set("start_day", "30")

	_, _, err := parsePeriodBounds(query, time.UTC)
	if !errors.Is(err, ErrInvalidDateParts) {
		t.Fatalf("err = %v, want ErrInvalidDateParts", err)
	}

	// Feb 29 exists in a leap year.
	query = url.Values{}
	query.Set("start_year", "2024")
	query.Set("start_month", "2")
	query.Set("start_day", "29")
	if _, _, err := parsePeriodBounds(query, time.UTC); err != nil {
		t.Errorf("2024-02-29 is a valid date, got %v", err)
	}
}
