// Package starred derives personalized views over an aggregated timeline.
//
// Every function is pure: inputs are never modified and results are fresh
// slices, so views can be computed concurrently from one shared schedule.
package starred

import (
	"slices"

	"github.com/gauthierbraillon/pitlane/internal/aggregator"
)

// Set is a caller-owned set of starred series codes. The zero value is empty
// and ready to use. A Set is not safe for concurrent mutation.
type Set struct {
	codes map[string]struct{}
}

// NewSet creates a Set holding codes.
func NewSet(codes ...string) Set {
	s := Set{codes: make(map[string]struct{}, len(codes))}
	for _, c := range codes {
		if c != "" {
			s.codes[c] = struct{}{}
		}
	}
	return s
}

// Contains reports whether code is starred.
func (s Set) Contains(code string) bool {
	_, ok := s.codes[code]
	return ok
}

// Toggle stars code if it is not starred and unstars it otherwise.
// It reports whether code is starred afterwards.
func (s *Set) Toggle(code string) bool {
	if s.Contains(code) {
		delete(s.codes, code)
		return false
	}
	s.Add(code)
	return true
}

// Add stars code.
func (s *Set) Add(code string) {
	if code == "" {
		return
	}
	if s.codes == nil {
		s.codes = make(map[string]struct{})
	}
	s.codes[code] = struct{}{}
}

// Remove unstars code.
func (s *Set) Remove(code string) {
	delete(s.codes, code)
}

// Len returns the number of starred codes.
func (s Set) Len() int { return len(s.codes) }

// Codes returns the starred codes in sorted order.
func (s Set) Codes() []string {
	out := make([]string, 0, len(s.codes))
	for c := range s.codes {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Starred returns the events whose series is in set, in input order.
func Starred(events []aggregator.Event, set Set) []aggregator.Event {
	out := make([]aggregator.Event, 0)
	for _, e := range events {
		if set.Contains(e.Series) {
			out = append(out, e)
		}
	}
	return out
}

// BySeries returns the events whose series is exactly code, in input order.
func BySeries(events []aggregator.Event, code string) []aggregator.Event {
	out := make([]aggregator.Event, 0)
	for _, e := range events {
		if e.Series == code {
			out = append(out, e)
		}
	}
	return out
}

// Mark returns a copy of events with Starred set for series in set.
func Mark(events []aggregator.Event, set Set) []aggregator.Event {
	out := make([]aggregator.Event, len(events))
	for i, e := range events {
		e.Starred = set.Contains(e.Series)
		out[i] = e
	}
	return out
}

// Next returns the earliest event of series code, if any. events must be in
// chronological order.
func Next(events []aggregator.Event, code string) (aggregator.Event, bool) {
	for _, e := range events {
		if e.Series == code {
			return e, true
		}
	}
	return aggregator.Event{}, false
}
