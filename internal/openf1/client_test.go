package openf1

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gauthierbraillon/pitlane/internal/aggregator"
	"github.com/gauthierbraillon/pitlane/internal/fetch"
)

const meetingsJSON = `[
  {"meeting_key": 1256, "meeting_name": "Australian Grand Prix", "location": "Melbourne",
   "country_name": "Australia", "circuit_short_name": "Melbourne", "date_start": "2025-03-14T01:30:00+00:00", "year": 2025}
]`

const sessionsJSON = `[
  {"session_key": 9686, "session_name": "Practice 1", "session_type": "Practice", "meeting_key": 1256,
   "date_start": "2025-03-14T01:30:00+00:00", "year": 2025},
  {"session_key": 9689, "session_name": "Qualifying", "session_type": "Qualifying", "meeting_key": 1256,
   "date_start": "2025-03-15T16:00:00+11:00", "year": 2025},
  {"session_key": 9693, "session_name": "Race", "session_type": "Race", "meeting_key": 1256,
   "date_start": "2025-03-16T04:00:00+00:00", "year": 2025},
  {"session_key": 9999, "session_name": "Practice 2", "session_type": "Practice", "meeting_key": 1256,
   "date_start": "soon", "year": 2025}
]`

func newClient(t *testing.T, meetings, sessions string, gotQuery *string) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotQuery != nil {
			*gotQuery = r.URL.RawQuery
		}
		switch r.URL.Path {
		case "/v1/meetings":
			w.Write([]byte(meetings))
		case "/v1/sessions":
			w.Write([]byte(sessions))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return NewClient(
		WithBaseURL(server.URL),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithFetchOptions(fetch.WithBackoff(time.Millisecond)),
	)
}

func TestAC420_OpenF1_JoinsSessionsToMeetings(t *testing.T) {
	var query string
	client := newClient(t, meetingsJSON, sessionsJSON, &query)

	events, err := client.FetchEvents(context.Background(), "", 2025)
	if err != nil {
		t.Fatalf("FetchEvents failed: %v", err)
	}
	if query != "year=2025" {
		t.Errorf("expected year=2025 query, got %q", query)
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 sessions with parseable dates, got %d", len(events))
	}

	want := []struct {
		name    string
		session aggregator.SessionType
		start   time.Time
	}{
		{"Australian Grand Prix – Practice 1", aggregator.SessionPractice, time.Date(2025, 3, 14, 1, 30, 0, 0, time.UTC)},
		{"Australian Grand Prix – Qualifying", aggregator.SessionQualifying, time.Date(2025, 3, 15, 5, 0, 0, 0, time.UTC)},
		{"Australian Grand Prix", aggregator.SessionRace, time.Date(2025, 3, 16, 4, 0, 0, 0, time.UTC)},
	}
	for i, w := range want {
		e := events[i]
		if e.Name != w.name || e.Session != w.session {
			t.Errorf("event %d: expected %q (%s), got %q (%s)", i, w.name, w.session, e.Name, e.Session)
		}
		if !e.Start.Equal(w.start) {
			t.Errorf("event %d: expected %s, got %s", i, w.start, e.Start)
		}
		if e.Series != "F1" || e.Location != "Melbourne, Australia" || e.Circuit != "Melbourne" {
			t.Errorf("event %d: unexpected series/location/circuit %+v", i, e)
		}
	}
}

func TestAC421_OpenF1_SessionWithoutMeetingUsesOwnFields(t *testing.T) {
	client := newClient(t, `[]`, `[
	  {"session_key": 1, "session_name": "Sprint", "meeting_key": 42, "location": "Lusail",
	   "country_name": "Qatar", "circuit_short_name": "Lusail", "date_start": "2025-11-29T13:00:00+00:00"}
	]`, nil)

	events, err := client.FetchEvents(context.Background(), "f1", 2025)
	if err != nil {
		t.Fatalf("FetchEvents failed: %v", err)
	}
	if events[0].Name != "Sprint" || events[0].Location != "Lusail, Qatar" {
		t.Errorf("unexpected event %+v", events[0])
	}
	if events[0].Session != aggregator.SessionSprint {
		t.Errorf("expected sprint session, got %q", events[0].Session)
	}
}

func TestAC422_OpenF1_EmptySeasonIsNoData(t *testing.T) {
	client := newClient(t, `[]`, `[]`, nil)

	_, err := client.FetchEvents(context.Background(), "f1", 2031)

	if !errors.Is(err, aggregator.ErrNoData) {
		t.Fatalf("expected no-data error, got %v", err)
	}
}

func TestAC423_OpenF1_UnexpectedShapeIsDecodingError(t *testing.T) {
	client := newClient(t, `{"detail": "rate limited"}`, sessionsJSON, nil)

	_, err := client.FetchEvents(context.Background(), "f1", 2025)

	var decErr *aggregator.DecodingError
	if !errors.As(err, &decErr) {
		t.Fatalf("object instead of array should be a decoding error, got %T: %v", err, err)
	}
}
