// Package metrics exposes aggregation outcomes as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pitlane"

// Recorder implements aggregator.Observer on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	providerRequests *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	providerEvents   *prometheus.GaugeVec
	cycles           *prometheus.CounterVec
	cycleDuration    prometheus.Histogram
	cycleEvents      prometheus.Gauge
	lastSuccess      prometheus.Gauge
}

// New creates a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.providerRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_requests_total",
		Help:      "Provider fetches by outcome",
	}, []string{"provider", "status"})
	r.providerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_fetch_duration_seconds",
		Help:      "Time spent fetching one provider",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})
	r.providerEvents = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "provider_events",
		Help:      "Events returned by a provider in its last fetch",
	}, []string{"provider"})
	r.cycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "aggregation_cycles_total",
		Help:      "Aggregation cycles by result",
	}, []string{"result"})
	r.cycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "aggregation_duration_seconds",
		Help:      "Wall time of one aggregation cycle",
		Buckets:   prometheus.DefBuckets,
	})
	r.cycleEvents = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "schedule_events",
		Help:      "Upcoming events in the last aggregated schedule",
	})
	r.lastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last cycle with at least one provider",
	})

	r.registry.MustRegister(
		r.providerRequests, r.providerDuration, r.providerEvents,
		r.cycles, r.cycleDuration, r.cycleEvents, r.lastSuccess,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ProviderDone records one provider fetch.
func (r *Recorder) ProviderDone(provider string, elapsed time.Duration, events int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.providerRequests.WithLabelValues(provider, status).Inc()
	r.providerDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	r.providerEvents.WithLabelValues(provider).Set(float64(events))
}

// CycleDone records one aggregation cycle.
func (r *Recorder) CycleDone(elapsed time.Duration, events, failures int, err error) {
	r.cycleDuration.Observe(elapsed.Seconds())

	switch {
	case err != nil:
		r.cycles.WithLabelValues("failed").Inc()
	case failures > 0:
		r.cycles.WithLabelValues("partial").Inc()
		r.lastSuccess.SetToCurrentTime()
	default:
		r.cycles.WithLabelValues("ok").Inc()
		r.lastSuccess.SetToCurrentTime()
	}
	r.cycleEvents.Set(float64(events))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
