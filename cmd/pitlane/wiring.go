package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gauthierbraillon/pitlane/internal/aggregator"
	"github.com/gauthierbraillon/pitlane/internal/config"
	"github.com/gauthierbraillon/pitlane/internal/ergast"
	"github.com/gauthierbraillon/pitlane/internal/fetch"
	"github.com/gauthierbraillon/pitlane/internal/fixture"
	"github.com/gauthierbraillon/pitlane/internal/logging"
	"github.com/gauthierbraillon/pitlane/internal/openf1"
	"github.com/gauthierbraillon/pitlane/internal/sportsdb"
	"github.com/gauthierbraillon/pitlane/internal/starred"
	"github.com/gauthierbraillon/pitlane/pkg/prefs"
)

// runtimeEnv is everything a command needs once configuration is resolved.
type runtimeEnv struct {
	dir    string
	cfg    *config.Config
	loc    *time.Location
	logger *slog.Logger
	store  *prefs.Store
}

// setup loads configuration and initialises the default logger. Flags win
// over the config file and environment.
func setup(flags *globalFlags) (*runtimeEnv, error) {
	dir := config.Dir()
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.Log.Format)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	logger := logging.Init(cfg.Log.Format == "json", logging.ParseLevel(cfg.Log.Level))

	return &runtimeEnv{
		dir:    dir,
		cfg:    cfg,
		loc:    loc,
		logger: logger,
		store:  prefs.NewStore(dir),
	}, nil
}

// starredSet reads the persisted starred series.
func (e *runtimeEnv) starredSet() (starred.Set, error) {
	p, err := e.store.LoadOrEmpty()
	if err != nil {
		return starred.Set{}, err
	}
	return starred.NewSet(p.Starred...), nil
}

// newAggregator builds the coordinator over every enabled provider target.
func (e *runtimeEnv) newAggregator(observer aggregator.Observer) *aggregator.Aggregator {
	opts := []aggregator.Option{
		aggregator.WithTimeout(e.cfg.Timeout),
		aggregator.WithLocation(e.loc),
		aggregator.WithSeason(e.cfg.Season),
		aggregator.WithLogger(e.logger),
	}
	if observer != nil {
		opts = append(opts, aggregator.WithObserver(observer))
	}
	return aggregator.New(buildTargets(e.cfg, e.loc, e.logger), opts...)
}

// buildTargets creates one target per configured series selector. HTTP
// providers get their own fetcher so rate limits apply per provider.
func buildTargets(cfg *config.Config, loc *time.Location, logger *slog.Logger) []aggregator.Target {
	fetchOpts := func() []fetch.Option {
		opts := []fetch.Option{
			fetch.WithUserAgent(cfg.Fetch.UserAgent),
			fetch.WithRetries(cfg.Fetch.Retries),
			fetch.WithBackoff(cfg.Fetch.Backoff),
		}
		if cfg.Fetch.RateLimit > 0 {
			opts = append(opts, fetch.WithRateLimit(cfg.Fetch.RateLimit, cfg.Fetch.Burst))
		}
		return opts
	}

	var targets []aggregator.Target

	if p := cfg.Providers.Ergast; p.Enabled {
		opts := []ergast.ClientOption{
			ergast.WithFetchOptions(fetchOpts()...),
			ergast.WithLocation(loc),
			ergast.WithLogger(logger),
		}
		if base := cfg.BaseURL(p.BaseURL); base != "" {
			opts = append(opts, ergast.WithBaseURL(base))
		}
		client := ergast.NewClient(opts...)
		for _, series := range p.Series {
			targets = append(targets, aggregator.Target{Provider: client, Selector: series})
		}
	}

	if p := cfg.Providers.SportsDB; p.Enabled {
		opts := []sportsdb.ClientOption{
			sportsdb.WithFetchOptions(fetchOpts()...),
			sportsdb.WithAPIKey(p.APIKey),
			sportsdb.WithLocation(loc),
			sportsdb.WithLogger(logger),
		}
		if base := cfg.BaseURL(p.BaseURL); base != "" {
			opts = append(opts, sportsdb.WithBaseURL(base))
		}
		client := sportsdb.NewClient(opts...)
		for _, league := range p.Leagues {
			targets = append(targets, aggregator.Target{Provider: client, Selector: league})
		}
	}

	if p := cfg.Providers.OpenF1; p.Enabled {
		opts := []openf1.ClientOption{
			openf1.WithFetchOptions(fetchOpts()...),
			openf1.WithLogger(logger),
		}
		if base := cfg.BaseURL(p.BaseURL); base != "" {
			opts = append(opts, openf1.WithBaseURL(base))
		}
		targets = append(targets, aggregator.Target{Provider: openf1.NewClient(opts...)})
	}

	if len(cfg.Providers.Fixtures) > 0 {
		files := fixture.New(fixture.WithLocation(loc), fixture.WithLogger(logger))
		for _, path := range cfg.Providers.Fixtures {
			targets = append(targets, aggregator.Target{Provider: files, Selector: path})
		}
	}

	return targets
}
