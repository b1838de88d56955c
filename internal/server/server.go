// Package server exposes aggregated schedules over a small JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/singleflight"

	"github.com/gauthierbraillon/pitlane/internal/aggregator"
	"github.com/gauthierbraillon/pitlane/internal/catalog"
	"github.com/gauthierbraillon/pitlane/internal/starred"
)

// ScheduleSource runs an aggregation cycle.
type ScheduleSource interface {
	FetchSchedule(ctx context.Context) (*aggregator.Schedule, error)
}

// StarredFunc returns the current starred set.
type StarredFunc func() (starred.Set, error)

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithStarred sets where the starred set comes from. Without it nothing is starred.
func WithStarred(fn StarredFunc) Option {
	return func(s *Server) {
		if fn != nil {
			s.starred = fn
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server serves schedule and catalog routes. Concurrent schedule requests
// share one in-flight aggregation cycle.
type Server struct {
	source  ScheduleSource
	starred StarredFunc
	metrics http.Handler
	logger  *slog.Logger
	group   singleflight.Group
	router  *mux.Router
}

// New creates a Server reading schedules from source.
func New(source ScheduleSource, opts ...Option) *Server {
	s := &Server{
		source:  source,
		starred: func() (starred.Set, error) { return starred.Set{}, nil },
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe runs an http.Server on addr until ctx is cancelled, then
// shuts it down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTO, writeTO, idleTO time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTO,
		WriteTimeout: writeTO,
		IdleTimeout:  idleTO,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/schedule", s.handleSchedule).Methods(http.MethodGet)
	api.HandleFunc("/series", s.handleSeriesList).Methods(http.MethodGet)
	api.HandleFunc("/series/{code}", s.handleSeries).Methods(http.MethodGet)
	api.HandleFunc("/series/{code}/events", s.handleSeriesEvents).Methods(http.MethodGet)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found", Kind: "not_found"})
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

type errorBody struct {
	Error    string                       `json:"error"`
	Kind     string                       `json:"kind"`
	Failures []aggregator.ProviderFailure `json:"failures,omitempty"`
}

type seriesBody struct {
	catalog.Descriptor
	Starred bool              `json:"starred"`
	Next    *aggregator.Event `json:"next,omitempty"`
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	opts, onlyStarred, err := parseScheduleQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Kind: "bad_request"})
		return
	}

	schedule, set, ok := s.loadSchedule(w, r)
	if !ok {
		return
	}

	events := starred.Mark(schedule.Events, set)
	if onlyStarred {
		events = starred.Starred(events, set)
	}
	out := *schedule
	out.Events = aggregator.Filter(events, opts)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSeriesList(w http.ResponseWriter, r *http.Request) {
	set, err := s.starred()
	if err != nil {
		s.internalError(w, err)
		return
	}
	all := catalog.All()
	out := make([]seriesBody, 0, len(all))
	for _, d := range all {
		out = append(out, seriesBody{Descriptor: d, Starred: set.Contains(d.Code)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	d, ok := lookupSeries(w, r)
	if !ok {
		return
	}
	set, err := s.starred()
	if err != nil {
		s.internalError(w, err)
		return
	}

	body := seriesBody{Descriptor: d, Starred: set.Contains(d.Code)}
	// The next event is best effort: the descriptor is served even when no provider answers.
	if schedule, err := s.fetch(r.Context()); err == nil {
		if next, found := starred.Next(schedule.Events, d.Code); found {
			next.Starred = body.Starred
			body.Next = &next
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleSeriesEvents(w http.ResponseWriter, r *http.Request) {
	d, ok := lookupSeries(w, r)
	if !ok {
		return
	}
	schedule, set, ok := s.loadSchedule(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, starred.Mark(starred.BySeries(schedule.Events, d.Code), set))
}

func lookupSeries(w http.ResponseWriter, r *http.Request) (catalog.Descriptor, bool) {
	raw := mux.Vars(r)["code"]
	code, ok := catalog.Resolve(raw)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown series " + strconv.Quote(raw), Kind: "not_found"})
		return catalog.Descriptor{}, false
	}
	d, _ := catalog.Lookup(code)
	return d, true
}

// loadSchedule fetches the schedule and starred set, writing the error response itself on failure.
func (s *Server) loadSchedule(w http.ResponseWriter, r *http.Request) (*aggregator.Schedule, starred.Set, bool) {
	schedule, err := s.fetch(r.Context())
	if err != nil {
		s.writeScheduleError(w, err)
		return nil, starred.Set{}, false
	}
	set, err := s.starred()
	if err != nil {
		s.internalError(w, err)
		return nil, starred.Set{}, false
	}
	return schedule, set, true
}

// fetch coalesces concurrent callers onto one aggregation cycle. The cycle
// is detached from any single request so one disconnecting client does not
// fail the others.
func (s *Server) fetch(ctx context.Context) (*aggregator.Schedule, error) {
	ch := s.group.DoChan("schedule", func() (any, error) {
		return s.source.FetchSchedule(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*aggregator.Schedule), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Server) writeScheduleError(w http.ResponseWriter, err error) {
	var aggErr *aggregator.AggregateError
	if !errors.As(err, &aggErr) {
		s.internalError(w, err)
		return
	}
	if len(aggErr.Failures) == 0 {
		s.logger.Error("schedule requested with no providers configured", "cycle_id", aggErr.CycleID)
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "no providers configured", Kind: "not_configured"})
		return
	}
	if aggErr.Transient() {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: aggErr.Error(), Kind: "unavailable", Failures: aggErr.Failures})
		return
	}
	writeJSON(w, http.StatusNotFound, errorBody{Error: "no upcoming events", Kind: "no_events", Failures: aggErr.Failures})
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Kind: "internal"})
}

func parseScheduleQuery(r *http.Request) (aggregator.Options, bool, error) {
	q := r.URL.Query()
	var opts aggregator.Options

	for _, raw := range q["series"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			code, ok := catalog.Resolve(part)
			if !ok {
				code = part
			}
			opts.Series = append(opts.Series, code)
		}
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, false, errors.New("limit must be a non-negative integer")
		}
		opts.Limit = n
	}

	onlyStarred := false
	if v := q.Get("starred"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, false, errors.New("starred must be true or false")
		}
		onlyStarred = b
	}
	return opts, onlyStarred, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
