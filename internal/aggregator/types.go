// Package aggregator combines race schedules from multiple providers into one timeline.
//
// This package enables pitlane to:
// - Query every configured provider concurrently
// - Merge their events into one chronological list of upcoming sessions
// - Keep going when some providers fail, and say which ones did
package aggregator

import (
	"context"
	"time"
)

// SessionType identifies the kind of session an event represents.
type SessionType string

const (
	SessionPractice   SessionType = "practice"
	SessionQualifying SessionType = "qualifying"
	SessionSprint     SessionType = "sprint"
	SessionRace       SessionType = "race"
)

// Event is the canonical race or session record, independent of its provider.
type Event struct {
	Name     string      `json:"name"`
	Series   string      `json:"series"`
	Start    time.Time   `json:"start"`
	Location string      `json:"location"`
	Circuit  string      `json:"circuit,omitempty"`
	Session  SessionType `json:"session,omitempty"`
	Provider string      `json:"provider,omitempty"`
	Starred  bool        `json:"starred"`
}

// Provider fetches one source's events for a series selector and season.
//
// Implementations return *HTTPError, *DecodingError or *NoDataError for failures
// they can classify. Malformed individual records are skipped, not returned as errors.
type Provider interface {
	Name() string
	FetchEvents(ctx context.Context, selector string, season int) ([]Event, error)
}

// Target binds a provider to the series selector it is queried with.
type Target struct {
	Provider Provider
	Selector string
}

// Label identifies the target in diagnostics, e.g. "sportsdb:4407".
func (t Target) Label() string {
	if t.Selector == "" {
		return t.Provider.Name()
	}
	return t.Provider.Name() + ":" + t.Selector
}

// ProviderFailure records why one target contributed nothing to a cycle.
type ProviderFailure struct {
	Provider string `json:"provider"`
	Selector string `json:"selector,omitempty"`
	Err      error  `json:"-"`
	Message  string `json:"error"`
}

// Schedule is the immutable result of one aggregation cycle.
type Schedule struct {
	CycleID   string            `json:"cycle_id"`
	FetchedAt time.Time         `json:"fetched_at"`
	Season    int               `json:"season"`
	Events    []Event           `json:"events"`
	Failures  []ProviderFailure `json:"failures,omitempty"`
}

// Options narrows a timeline for display.
type Options struct {
	Limit  int
	Until  time.Time
	Series []string
}
