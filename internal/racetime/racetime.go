// Package racetime resolves the date and time representations used by race-data
// providers into absolute instants.
//
// Providers disagree on how a session start is written:
// - date only ("2025-03-15")
// - date plus a UTC clock ("2025-03-15" + "14:00:00Z")
// - a full ISO8601 timestamp ("2025-03-15T14:00:00+00:00")
//
// A missing or unreadable clock degrades to midnight of the date in the caller's
// location. A date that cannot be read at all is an error and the record must be dropped.
package racetime

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate is returned when a date cannot be parsed under any supported layout.
var ErrInvalidDate = errors.New("invalid date")

const dateLayout = "2006-01-02"

// instantLayouts are full timestamps. Layouts without an offset are read as UTC.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// clockLayouts are times of day. Layouts without an offset are read as UTC.
var clockLayouts = []string{
	"15:04:05Z07:00",
	"15:04:05.000Z07:00",
	"15:04Z07:00",
	"15:04:05",
	"15:04",
}

// Resolve combines a date and an optional clock into an instant.
//
// When clock is empty or unreadable the result is midnight of date in loc
// (time.Local when loc is nil). When date is itself a full timestamp the clock
// is ignored.
func Resolve(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}

	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		// Some providers put a full timestamp in the date field.
		if t, ok := parseInstant(date); ok {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	if sinceMidnight, ok := parseClock(clock); ok {
		return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC).Add(sinceMidnight), nil
	}
	return day, nil
}

// ParseInstant parses a full ISO8601 timestamp.
func ParseInstant(s string) (time.Time, error) {
	if t, ok := parseInstant(strings.TrimSpace(s)); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func parseInstant(s string) (time.Time, bool) {
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseClock returns how long after UTC midnight a time-of-day string falls.
// The result is negative or above 24h when an offset moves it to another day.
func parseClock(clock string) (time.Duration, bool) {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return 0, false
	}
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, clock)
		if err != nil {
			continue
		}
		_, offset := t.Zone()
		secs := t.Hour()*3600 + t.Minute()*60 + t.Second() - offset
		return time.Duration(secs)*time.Second + time.Duration(t.Nanosecond()), true
	}
	return 0, false
}

// StartOfDay returns midnight of now's calendar day in loc. It is the cutoff for
// deciding whether an event is still upcoming: events earlier today still count.
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
}
