package ergast

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gauthierbraillon/pitlane/internal/aggregator"
	"github.com/gauthierbraillon/pitlane/internal/catalog"
	"github.com/gauthierbraillon/pitlane/internal/fetch"
	"github.com/gauthierbraillon/pitlane/internal/racetime"
)

const (
	// Name identifies this provider in targets, logs and metrics.
	Name = "ergast"

	defaultBaseURL  = "https://api.jolpi.ca"
	defaultSelector = "f1"
)

var seriesTable = map[string]string{
	"f1": catalog.F1,
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient fetch.HTTPClient) ClientOption {
	return func(c *Client) {
		c.fetchOpts = append(c.fetchOpts, fetch.WithHTTPClient(httpClient))
	}
}

// WithFetchOptions passes transport options (rate limit, retries) to the shared fetcher.
func WithFetchOptions(opts ...fetch.Option) ClientOption {
	return func(c *Client) {
		c.fetchOpts = append(c.fetchOpts, opts...)
	}
}

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithLocation sets the location used for dates that carry no time of day.
func WithLocation(loc *time.Location) ClientOption {
	return func(c *Client) {
		c.loc = loc
	}
}

// WithLogger sets the logger for skipped-record diagnostics.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client is an Ergast-compatible schedule client.
type Client struct {
	baseURL   string
	fetchOpts []fetch.Option
	fetcher   *fetch.Client
	loc       *time.Location
	logger    *slog.Logger
}

// NewClient creates a new Ergast client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		loc:     time.Local,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}
	c.fetcher = fetch.New(Name, c.fetchOpts...)

	return c
}

// Name returns the provider name.
func (c *Client) Name() string { return Name }

// FetchEvents retrieves every session of the season's race weekends.
// selector is the API's series slug; empty means "f1".
func (c *Client) FetchEvents(ctx context.Context, selector string, season int) ([]aggregator.Event, error) {
	if selector == "" {
		selector = defaultSelector
	}
	endpoint := fmt.Sprintf("%s/ergast/%s/%d.json", c.baseURL, url.PathEscape(selector), season)

	var response scheduleResponse
	if err := c.fetcher.GetJSON(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	races := response.MRData.RaceTable.Races
	if len(races) == 0 {
		return nil, &aggregator.NoDataError{Provider: Name, Reason: fmt.Sprintf("no races for %s %d", selector, season)}
	}

	series := catalog.CanonicalCode(selector, seriesTable)
	events := make([]aggregator.Event, 0, len(races)*4)
	for _, race := range races {
		events = append(events, c.expandRace(race, series)...)
	}

	if len(events) == 0 {
		return nil, &aggregator.NoDataError{Provider: Name, Reason: "no race had a parseable date"}
	}
	return events, nil
}

// expandRace turns one race weekend into one event per dated session plus the race itself.
func (c *Client) expandRace(race raceRecord, series string) []aggregator.Event {
	raceStart, err := racetime.Resolve(race.Date, race.Time, c.loc)
	if err != nil {
		c.logger.Warn("skipping race with unparseable date",
			"provider", Name, "race", race.RaceName, "date", race.Date, "error", err)
		return nil
	}

	base := aggregator.Event{
		Series:   series,
		Location: location(race),
		Circuit:  race.Circuit.CircuitName,
		Provider: Name,
	}

	var events []aggregator.Event
	for _, s := range race.sessions() {
		if s.when == nil {
			continue
		}
		start, err := racetime.Resolve(s.when.Date, s.when.Time, c.loc)
		if err != nil {
			continue
		}
		e := base
		e.Name = race.RaceName + " – " + s.label
		e.Start = start
		e.Session = s.kind
		events = append(events, e)
	}

	e := base
	e.Name = race.RaceName
	e.Start = raceStart
	e.Session = aggregator.SessionRace
	return append(events, e)
}

func location(race raceRecord) string {
	loc := race.Circuit.Location
	switch {
	case loc.Locality != "" && loc.Country != "":
		return loc.Locality + ", " + loc.Country
	case loc.Locality != "":
		return loc.Locality
	case loc.Country != "":
		return loc.Country
	default:
		return race.Circuit.CircuitName
	}
}
