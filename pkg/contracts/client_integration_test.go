// Package contracts integration tests verify that the real adapters parse
// responses matching the contracts end to end, through the shared fetcher.
package contracts

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gauthierbraillon/pitlane/internal/aggregator"
	"github.com/gauthierbraillon/pitlane/internal/ergast"
	"github.com/gauthierbraillon/pitlane/internal/openf1"
	"github.com/gauthierbraillon/pitlane/internal/sportsdb"
)

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(Handler())
	t.Cleanup(server.Close)
	return server
}

// TestErgastClient_ParsesContract verifies AC500: both weekend formats expand into sessions.
func TestErgastClient_ParsesContract(t *testing.T) {
	server := newUpstream(t)
	client := ergast.NewClient(ergast.WithBaseURL(server.URL), ergast.WithLocation(time.UTC))

	events, err := client.FetchEvents(context.Background(), "f1", Season)
	if err != nil {
		t.Fatalf("client should parse contract response: %v", err)
	}

	// Five sessions in Melbourne, five in Shanghai.
	if len(events) != 10 {
		t.Fatalf("expected 10 events, got %d: %+v", len(events), events)
	}
	last := events[len(events)-1]
	if last.Name != "Chinese Grand Prix" || last.Session != aggregator.SessionRace {
		t.Errorf("expected race last, got %+v", last)
	}
	if !last.Start.Equal(time.Date(2030, 3, 24, 7, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected race start %v", last.Start)
	}
	if last.Location != "Shanghai, China" || last.Series != "F1" {
		t.Errorf("unexpected mapping: %+v", last)
	}
}

// TestSportsDBClient_ParsesContract verifies AC501: timestamp fallback and skipped records.
func TestSportsDBClient_ParsesContract(t *testing.T) {
	server := newUpstream(t)
	client := sportsdb.NewClient(sportsdb.WithBaseURL(server.URL), sportsdb.WithLocation(time.UTC))

	events, err := client.FetchEvents(context.Background(), "4413", Season)
	if err != nil {
		t.Fatalf("client should parse contract response: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected the undated record to be skipped, got %+v", events)
	}
	if events[0].Series != "WEC" || events[0].Location != "Lusail, Qatar" {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if !events[1].Start.Equal(time.Date(2030, 4, 21, 11, 0, 0, 0, time.UTC)) {
		t.Errorf("expected timestamp fallback, got %v", events[1].Start)
	}
	if events[1].Location != "Autodromo Enzo e Dino Ferrari" {
		t.Errorf("expected venue fallback, got %q", events[1].Location)
	}
}

// TestSportsDBClient_EmptyContract verifies AC502: a null events list is NoData.
func TestSportsDBClient_EmptyContract(t *testing.T) {
	server := newUpstream(t)
	client := sportsdb.NewClient(sportsdb.WithBaseURL(server.URL))

	_, err := client.FetchEvents(context.Background(), "4407", Season)
	if !errors.Is(err, aggregator.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

// TestOpenF1Client_ParsesContract verifies AC503: sessions join their meeting.
func TestOpenF1Client_ParsesContract(t *testing.T) {
	server := newUpstream(t)
	client := openf1.NewClient(openf1.WithBaseURL(server.URL))

	events, err := client.FetchEvents(context.Background(), "", Season)
	if err != nil {
		t.Fatalf("client should parse contract response: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	want := []string{"Bahrain Grand Prix – Practice 1", "Bahrain Grand Prix – Qualifying", "Bahrain Grand Prix"}
	for i, name := range want {
		if events[i].Name != name {
			t.Errorf("event %d: expected %q, got %q", i, name, events[i].Name)
		}
		if events[i].Location != "Sakhir, Bahrain" {
			t.Errorf("event %d: expected meeting location, got %q", i, events[i].Location)
		}
	}
}

// TestAggregator_OverContracts verifies AC504: all adapters merge into one timeline.
func TestAggregator_OverContracts(t *testing.T) {
	server := newUpstream(t)
	targets := []aggregator.Target{
		{Provider: ergast.NewClient(ergast.WithBaseURL(server.URL), ergast.WithLocation(time.UTC)), Selector: "f1"},
		{Provider: sportsdb.NewClient(sportsdb.WithBaseURL(server.URL), sportsdb.WithLocation(time.UTC)), Selector: "4413"},
		{Provider: sportsdb.NewClient(sportsdb.WithBaseURL(server.URL)), Selector: "4407"},
	}
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	agg := aggregator.New(targets,
		aggregator.WithSeason(Season),
		aggregator.WithClock(func() time.Time { return now }))

	schedule, err := agg.FetchSchedule(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schedule.Events) != 12 {
		t.Errorf("expected 12 events, got %d", len(schedule.Events))
	}
	if len(schedule.Failures) != 1 || schedule.Failures[0].Selector != "4407" {
		t.Errorf("expected the empty league as the only failure, got %+v", schedule.Failures)
	}
	if schedule.Events[0].Name != "Qatar 1812km" {
		t.Errorf("expected the earliest event first, got %q", schedule.Events[0].Name)
	}
}
