package aggregator

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gauthierbraillon/pitlane/internal/racetime"
)

const defaultTimeout = 10 * time.Second

// Observer receives per-provider and per-cycle outcomes, e.g. for metrics.
type Observer interface {
	ProviderDone(provider string, elapsed time.Duration, events int, err error)
	CycleDone(elapsed time.Duration, events, failures int, err error)
}

// Option configures the Aggregator.
type Option func(*Aggregator)

// WithTimeout sets the per-provider timeout. A provider that exceeds it counts as failed.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithClock overrides the time source (useful for testing).
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// WithLocation sets the location whose calendar defines "today" and date-only midnights.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithSeason pins the season queried from providers. Zero means the current year.
func WithSeason(season int) Option {
	return func(a *Aggregator) {
		a.season = season
	}
}

// WithLogger sets the logger used for per-provider diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithObserver registers an observer for provider and cycle outcomes.
func WithObserver(o Observer) Option {
	return func(a *Aggregator) {
		a.observer = o
	}
}

// Aggregator fans out to every target and merges their events.
// It keeps no state between calls; concurrent FetchSchedule calls are safe.
type Aggregator struct {
	targets  []Target
	timeout  time.Duration
	now      func() time.Time
	loc      *time.Location
	season   int
	logger   *slog.Logger
	observer Observer
}

// New creates an Aggregator over targets.
func New(targets []Target, opts ...Option) *Aggregator {
	a := &Aggregator{
		targets: slices.Clone(targets),
		timeout: defaultTimeout,
		now:     time.Now,
		loc:     time.Local,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Targets returns the configured targets.
func (a *Aggregator) Targets() []Target {
	return slices.Clone(a.targets)
}

type outcome struct {
	events []Event
	err    error
}

// FetchSchedule runs one aggregation cycle.
//
// Every target is queried concurrently and the call returns once all of them
// have finished or timed out. Failed targets are listed in Schedule.Failures.
// When every target fails the result is an *AggregateError.
func (a *Aggregator) FetchSchedule(ctx context.Context) (*Schedule, error) {
	started := a.now()
	cycleID := uuid.NewString()
	season := a.season
	if season == 0 {
		season = started.In(a.loc).Year()
	}
	logger := a.logger.With("cycle_id", cycleID, "season", season)
	logger.Debug("starting aggregation cycle", "providers", len(a.targets))

	// Each goroutine owns one slot; slots are read only after Wait.
	outcomes := make([]outcome, len(a.targets))
	var wg sync.WaitGroup
	for i, t := range a.targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = a.fetchOne(ctx, t, season, logger)
		}()
	}
	wg.Wait()

	var (
		successes [][]Event
		failures  []ProviderFailure
	)
	for i, o := range outcomes {
		if o.err != nil {
			t := a.targets[i]
			failures = append(failures, ProviderFailure{
				Provider: t.Provider.Name(),
				Selector: t.Selector,
				Err:      o.err,
				Message:  o.err.Error(),
			})
			continue
		}
		successes = append(successes, o.events)
	}

	elapsed := a.now().Sub(started)
	if len(successes) == 0 {
		aggErr := &AggregateError{CycleID: cycleID, Failures: failures}
		if a.observer != nil {
			a.observer.CycleDone(elapsed, 0, len(failures), aggErr)
		}
		logger.Error("all providers failed", "failures", len(failures))
		return nil, aggErr
	}

	events := Merge(successes, racetime.StartOfDay(started, a.loc))
	if a.observer != nil {
		a.observer.CycleDone(elapsed, len(events), len(failures), nil)
	}
	if len(failures) > 0 {
		logger.Warn("aggregation completed with failures", "events", len(events), "failures", len(failures))
	} else {
		logger.Info("aggregation completed", "events", len(events), "duration", elapsed)
	}

	return &Schedule{
		CycleID:   cycleID,
		FetchedAt: started,
		Season:    season,
		Events:    events,
		Failures:  failures,
	}, nil
}

func (a *Aggregator) fetchOne(ctx context.Context, t Target, season int, logger *slog.Logger) (o outcome) {
	label := t.Label()
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			o = outcome{err: fmt.Errorf("%s: provider panicked: %v", label, r)}
		}
		if o.err != nil {
			logger.Warn("provider failed", "provider", label, "error", o.err)
		} else {
			logger.Debug("provider succeeded", "provider", label, "events", len(o.events))
		}
		if a.observer != nil {
			a.observer.ProviderDone(label, time.Since(started), len(o.events), o.err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	events, err := t.Provider.FetchEvents(ctx, t.Selector, season)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return outcome{err: fmt.Errorf("%s: timed out after %s: %w", label, a.timeout, err)}
		}
		return outcome{err: err}
	}
	if len(events) == 0 {
		return outcome{err: &NoDataError{Provider: label, Reason: "no events returned"}}
	}
	return outcome{events: events}
}

// Merge concatenates per-provider results, drops events that start before
// cutoff and sorts the rest chronologically. Events starting at the same
// instant are ordered by series then name so equal inputs give equal output.
// The inputs are not modified.
func Merge(results [][]Event, cutoff time.Time) []Event {
	merged := make([]Event, 0)
	for _, events := range results {
		for _, e := range events {
			if e.Start.Before(cutoff) {
				continue
			}
			merged = append(merged, e)
		}
	}
	slices.SortStableFunc(merged, compareEvents)
	return merged
}

func compareEvents(a, b Event) int {
	if c := a.Start.Compare(b.Start); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Series, b.Series); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}

// Filter narrows a chronological timeline by series, end time and count.
// It always returns a non-nil slice and never modifies events.
func Filter(events []Event, opts Options) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if len(opts.Series) > 0 && !slices.Contains(opts.Series, e.Series) {
			continue
		}
		if !opts.Until.IsZero() && e.Start.After(opts.Until) {
			continue
		}
		out = append(out, e)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out
}
