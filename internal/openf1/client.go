package openf1

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gauthierbraillon/pitlane/internal/aggregator"
	"github.com/gauthierbraillon/pitlane/internal/catalog"
	"github.com/gauthierbraillon/pitlane/internal/fetch"
	"github.com/gauthierbraillon/pitlane/internal/racetime"
)

const (
	// Name identifies this provider in targets, logs and metrics.
	Name = "openf1"

	defaultBaseURL  = "https://api.openf1.org"
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

// WithLogger sets the logger for skipped-record diagnostics.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client is an OpenF1 API client.
type Client struct {
	baseURL   string
	fetchOpts []fetch.Option
	fetcher   *fetch.Client
	logger    *slog.Logger
}

// NewClient creates a new OpenF1 client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
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

// FetchEvents retrieves every session of the season. OpenF1 covers Formula 1
// only, so selector just names the series code and defaults to "f1".
func (c *Client) FetchEvents(ctx context.Context, selector string, season int) ([]aggregator.Event, error) {
	if selector == "" {
		selector = defaultSelector
	}

	var meetings []meetingRecord
	if err := c.fetcher.GetJSON(ctx, fmt.Sprintf("%s/v1/meetings?year=%d", c.baseURL, season), &meetings); err != nil {
		return nil, err
	}
	var sessions []sessionRecord
	if err := c.fetcher.GetJSON(ctx, fmt.Sprintf("%s/v1/sessions?year=%d", c.baseURL, season), &sessions); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, &aggregator.NoDataError{Provider: Name, Reason: fmt.Sprintf("no sessions for %d", season)}
	}

	byKey := make(map[int]meetingRecord, len(meetings))
	for _, m := range meetings {
		byKey[m.MeetingKey] = m
	}

	series := catalog.CanonicalCode(selector, seriesTable)
	events := make([]aggregator.Event, 0, len(sessions))
	for _, s := range sessions {
		start, err := racetime.ParseInstant(s.DateStart)
		if err != nil {
			c.logger.Debug("skipping session with unparseable date",
				"provider", Name, "session_key", s.SessionKey, "date", s.DateStart)
			continue
		}

		meeting, ok := byKey[s.MeetingKey]
		if !ok {
			c.logger.Debug("session has no matching meeting", "provider", Name, "meeting_key", s.MeetingKey)
		}

		events = append(events, aggregator.Event{
			Name:     eventName(meeting.MeetingName, s.SessionName),
			Series:   series,
			Start:    start,
			Location: location(meeting, s),
			Circuit:  firstNonEmpty(meeting.CircuitShortName, s.CircuitShortName),
			Session:  sessionKinds[strings.ToLower(s.SessionName)],
			Provider: Name,
		})
	}

	if len(events) == 0 {
		return nil, &aggregator.NoDataError{Provider: Name, Reason: "no session had a parseable date"}
	}
	return events, nil
}

func eventName(meeting, session string) string {
	switch {
	case meeting == "":
		return session
	case strings.EqualFold(session, "race") || session == "":
		return meeting
	default:
		return meeting + " – " + session
	}
}

func location(m meetingRecord, s sessionRecord) string {
	city := firstNonEmpty(m.Location, s.Location)
	country := firstNonEmpty(m.CountryName, s.CountryName)
	switch {
	case city != "" && country != "":
		return city + ", " + country
	case city != "":
		return city
	case country != "":
		return country
	default:
		return firstNonEmpty(m.CircuitShortName, s.CircuitShortName)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
