// Package fixture is a file-backed provider.
//
// It lets series without a public schedule API contribute events, and it powers
// offline runs and tests. The selector is the path of a JSON or YAML file holding
// a list of raw records.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gauthierbraillon/pitlane/internal/aggregator"
	"github.com/gauthierbraillon/pitlane/internal/catalog"
	"github.com/gauthierbraillon/pitlane/internal/racetime"
)

// Name identifies this provider in targets, logs and metrics.
const Name = "fixture"

// Record is one raw schedule entry as written in a fixture file.
type Record struct {
	Name     string `json:"name" yaml:"name"`
	Series   string `json:"series" yaml:"series"`
	Date     string `json:"date" yaml:"date"`
	Time     string `json:"time,omitempty" yaml:"time,omitempty"`
	Location string `json:"location" yaml:"location"`
	Circuit  string `json:"circuit,omitempty" yaml:"circuit,omitempty"`
	Session  string `json:"session,omitempty" yaml:"session,omitempty"`
}

// Option configures the Provider.
type Option func(*Provider)

// WithLocation sets the location used for dates that carry no time of day.
func WithLocation(loc *time.Location) Option {
	return func(p *Provider) {
		p.loc = loc
	}
}

// WithLogger sets the logger for skipped-record diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithAnySeason disables filtering records by season year.
func WithAnySeason() Option {
	return func(p *Provider) {
		p.anySeason = true
	}
}

// Provider reads events from local files.
type Provider struct {
	loc       *time.Location
	logger    *slog.Logger
	anySeason bool
}

// New creates a file-backed provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		loc:    time.Local,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider name.
func (p *Provider) Name() string { return Name }

// FetchEvents reads the file at selector and returns its records for season.
func (p *Provider) FetchEvents(ctx context.Context, selector string, season int) ([]aggregator.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", Name, err)
	}
	if selector == "" {
		return nil, fmt.Errorf("%s: file path is required", Name)
	}

	p.logger.Debug("reading schedule file", "provider", Name, "selector", selector)
	records, err := Load(selector)
	if err != nil {
		return nil, err
	}

	events := make([]aggregator.Event, 0, len(records))
	for _, r := range records {
		e, ok := p.toEvent(r)
		if !ok {
			continue
		}
		if !p.anySeason && e.Start.In(p.location()).Year() != season {
			continue
		}
		events = append(events, e)
	}

	if len(events) == 0 {
		return nil, &aggregator.NoDataError{Provider: Name, Reason: fmt.Sprintf("no events for %d in %s", season, selector)}
	}
	return events, nil
}

// Load reads and decodes a fixture file. Files ending in .yaml or .yml are
// read as YAML, everything else as JSON.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s: %w", Name, path, err)
	}

	var records []Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	default:
		err = json.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, &aggregator.DecodingError{Provider: Name, Err: err}
	}
	return records, nil
}

func (p *Provider) toEvent(r Record) (aggregator.Event, bool) {
	if r.Name == "" || r.Series == "" {
		p.logger.Debug("skipping incomplete record", "provider", Name, "name", r.Name)
		return aggregator.Event{}, false
	}
	start, err := racetime.Resolve(r.Date, r.Time, p.loc)
	if err != nil {
		p.logger.Warn("skipping record with unparseable date", "provider", Name, "event", r.Name, "error", err)
		return aggregator.Event{}, false
	}

	series, ok := catalog.Resolve(r.Series)
	if !ok {
		series = catalog.CanonicalCode(r.Series, nil)
	}

	location := r.Location
	if location == "" {
		location = r.Circuit
	}

	return aggregator.Event{
		Name:     r.Name,
		Series:   series,
		Start:    start,
		Location: location,
		Circuit:  r.Circuit,
		Session:  aggregator.SessionType(strings.ToLower(r.Session)),
		Provider: Name,
	}, true
}

func (p *Provider) location() *time.Location {
	if p.loc == nil {
		return time.Local
	}
	return p.loc
}
