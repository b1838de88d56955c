package fixture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gauthierbraillon/pitlane/internal/aggregator"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestProvider_FetchEvents_JSON(t *testing.T) {
	path := writeFile(t, "series.json", `[
	  {"name": "Mazda Cup Championship", "series": "mazda", "date": "2025-10-04", "time": "18:00:00Z",
	   "location": "Braselton, GA", "circuit": "Road Atlanta", "session": "Race"},
	  {"name": "4 Hours of Portimão", "series": "European Le Mans Series", "date": "2025-10-18",
	   "circuit": "Autódromo Internacional do Algarve"},
	  {"name": "Last year", "series": "ELMS", "date": "2024-10-19"}
	]`)

	events, err := New(WithLocation(time.UTC), quiet()).FetchEvents(context.Background(), path, 2025)
	if err != nil {
		t.Fatalf("FetchEvents failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events in season 2025, got %d", len(events))
	}

	mazda := events[0]
	if mazda.Series != "Mazda" {
		t.Errorf("series should resolve through the catalog, got %q", mazda.Series)
	}
	if !mazda.Start.Equal(time.Date(2025, 10, 4, 18, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start %s", mazda.Start)
	}
	if mazda.Session != aggregator.SessionRace {
		t.Errorf("expected race session, got %q", mazda.Session)
	}

	elms := events[1]
	if elms.Series != "ELMS" {
		t.Errorf("series name should resolve to ELMS, got %q", elms.Series)
	}
	if elms.Location != "Autódromo Internacional do Algarve" {
		t.Errorf("location should fall back to circuit, got %q", elms.Location)
	}
}

func TestProvider_FetchEvents_YAML(t *testing.T) {
	path := writeFile(t, "series.yaml", `
- name: Petit Le Mans
  series: IMSA
  date: "2025-10-11"
  time: "16:10:00Z"
  location: Braselton, GA
  circuit: Road Atlanta
- name: Super Formula Suzuka
  series: super formula
  date: "2025-11-23"
  location: Suzuka, Japan
`)

	events, err := New(WithLocation(time.UTC), quiet()).FetchEvents(context.Background(), path, 2025)
	if err != nil {
		t.Fatalf("FetchEvents failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[1].Series != "SUPER FORMULA" {
		t.Errorf("unknown series should pass through uppercased, got %q", events[1].Series)
	}
}

func TestProvider_DropsUnparseableDates(t *testing.T) {
	path := writeFile(t, "series.json", `[
	  {"name": "TBD", "series": "WRC", "date": "sometime"},
	  {"name": "Rally Chile", "series": "WRC", "date": "2025-09-14", "location": "Concepción, Chile"}
	]`)

	events, err := New(WithLocation(time.UTC), quiet()).FetchEvents(context.Background(), path, 2025)
	if err != nil {
		t.Fatalf("FetchEvents failed: %v", err)
	}
	if len(events) != 1 || events[0].Name != "Rally Chile" {
		t.Errorf("record with unparseable date must be dropped, got %+v", events)
	}
}

func TestProvider_AnySeason(t *testing.T) {
	path := writeFile(t, "series.json", `[{"name": "Old", "series": "DTM", "date": "2019-05-05"}]`)

	events, err := New(WithAnySeason(), quiet()).FetchEvents(context.Background(), path, 2025)
	if err != nil {
		t.Fatalf("FetchEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected the record regardless of season, got %d", len(events))
	}
}

func TestProvider_Errors(t *testing.T) {
	p := New(quiet())

	if _, err := p.FetchEvents(context.Background(), filepath.Join(t.TempDir(), "missing.json"), 2025); err == nil {
		t.Error("expected error for missing file")
	}

	bad := writeFile(t, "bad.json", `{"not": "a list"}`)
	_, err := p.FetchEvents(context.Background(), bad, 2025)
	var decErr *aggregator.DecodingError
	if !errors.As(err, &decErr) {
		t.Errorf("expected DecodingError, got %v", err)
	}

	empty := writeFile(t, "empty.json", `[]`)
	if _, err := p.FetchEvents(context.Background(), empty, 2025); !errors.Is(err, aggregator.ErrNoData) {
		t.Errorf("expected no-data error, got %v", err)
	}
}
