package sportsdb

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gauthierbraillon/pitlane/internal/aggregator"
	"github.com/gauthierbraillon/pitlane/internal/catalog"
	"github.com/gauthierbraillon/pitlane/internal/fetch"
	"github.com/gauthierbraillon/pitlane/internal/racetime"
)

const (
	// Name identifies this provider in targets, logs and metrics.
	Name = "sportsdb"

	defaultBaseURL = "https://www.thesportsdb.com"
	// DefaultAPIKey is the public test key TheSportsDB hands out for free use.
	DefaultAPIKey = "3"
)

// seriesTable maps lowercased strLeague values to catalog codes.
var seriesTable = map[string]string{
	"formula 1":                        catalog.F1,
	"formula 2":                        catalog.F2,
	"formula e":                        catalog.FE,
	"motogp":                           catalog.MotoGP,
	"nascar cup series":                catalog.NASCAR,
	"indycar series":                   catalog.IndyCar,
	"fia world endurance championship": catalog.WEC,
	"imsa":                             catalog.IMSA,
	"european le mans series":          catalog.ELMS,
	"dtm":                              catalog.DTM,
	"world rally championship":         catalog.WRC,
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

// WithBaseURL overrides the API host (useful for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithAPIKey sets the API key embedded in request paths.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		if key != "" {
			c.apiKey = key
		}
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

// Client fetches season schedules from TheSportsDB.
type Client struct {
	baseURL   string
	apiKey    string
	fetchOpts []fetch.Option
	fetcher   *fetch.Client
	loc       *time.Location
	logger    *slog.Logger
}

// NewClient creates a new TheSportsDB client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		apiKey:  DefaultAPIKey,
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

// FetchEvents retrieves a league's events for season. selector is the numeric league id.
func (c *Client) FetchEvents(ctx context.Context, selector string, season int) ([]aggregator.Event, error) {
	if selector == "" {
		return nil, fmt.Errorf("%s: league id is required", Name)
	}

	query := url.Values{}
	query.Set("id", selector)
	query.Set("s", strconv.Itoa(season))
	endpoint := fmt.Sprintf("%s/api/v1/json/%s/eventsseason.php?%s", c.baseURL, url.PathEscape(c.apiKey), query.Encode())

	var response seasonResponse
	if err := c.fetcher.GetJSON(ctx, endpoint, &response); err != nil {
		return nil, err
	}
	if response.Events == nil || len(*response.Events) == 0 {
		return nil, &aggregator.NoDataError{Provider: Name, Reason: fmt.Sprintf("no events for league %s season %d", selector, season)}
	}

	records := *response.Events
	events := make([]aggregator.Event, 0, len(records))
	for _, r := range records {
		e, ok := c.toEvent(r)
		if !ok {
			continue
		}
		events = append(events, e)
	}

	if len(events) == 0 {
		return nil, &aggregator.NoDataError{Provider: Name, Reason: "no event had a parseable date"}
	}
	return events, nil
}

func (c *Client) toEvent(r eventRecord) (aggregator.Event, bool) {
	if r.Name == "" || r.League == "" {
		c.logger.Debug("skipping incomplete event", "provider", Name, "id", r.ID)
		return aggregator.Event{}, false
	}

	start, err := c.start(r)
	if err != nil {
		c.logger.Warn("skipping event with unparseable date",
			"provider", Name, "event", r.Name, "date", r.Date, "error", err)
		return aggregator.Event{}, false
	}

	return aggregator.Event{
		Name:     r.Name,
		Series:   catalog.CanonicalCode(r.League, seriesTable),
		Start:    start,
		Location: location(r),
		Circuit:  r.Venue,
		Provider: Name,
	}, true
}

// start prefers the most precise instant a record carries. A date without a
// clock would resolve to local midnight, so strTimestamp wins in that case.
func (c *Client) start(r eventRecord) (time.Time, error) {
	if strings.TrimSpace(r.Time) == "" {
		if t, err := racetime.ParseInstant(r.Timestamp); err == nil {
			return t, nil
		}
	}
	t, err := racetime.Resolve(r.Date, r.Time, c.loc)
	if err != nil {
		if ts, tsErr := racetime.ParseInstant(r.Timestamp); tsErr == nil {
			return ts, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

func location(r eventRecord) string {
	switch {
	case r.City != "" && r.Country != "":
		return r.City + ", " + r.Country
	case r.Venue != "":
		return r.Venue
	case r.Country != "":
		return r.Country
	default:
		return r.City
	}
}
