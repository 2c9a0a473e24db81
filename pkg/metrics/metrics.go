package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder collects scoring-pipeline metrics on its own registry.
// A nil *Recorder is valid and records nothing.
// ⭐ SSOT: 메트릭 이름은 여기서만
type Recorder struct {
	registry *prometheus.Registry
	client   push.HTTPDoer

	scored       *prometheus.CounterVec
	skipped      *prometheus.CounterVec
	filterFails  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	masterScores prometheus.Histogram
	runDuration  prometheus.Histogram
	universe     prometheus.Gauge
}

// New creates a recorder with a fresh registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		scored: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aegis_signal_scored_total",
				Help: "Signals emitted, by tier",
			},
			[]string{"tier"},
		),
		skipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aegis_signal_skipped_total",
				Help: "Instruments that produced no signal, by reason",
			},
			[]string{"reason"},
		),
		filterFails: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aegis_signal_filter_failures_total",
				Help: "Robustness filter failures, by filter and reason",
			},
			[]string{"filter", "reason"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aegis_signal_instrument_seconds",
				Help:    "Per-instrument pipeline duration in seconds",
				Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
			[]string{"outcome"},
		),
		masterScores: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "aegis_signal_master_score",
				Help:    "Distribution of emitted master scores",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "aegis_signal_run_seconds",
				Help:    "Batch run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		universe: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "aegis_signal_universe_size",
				Help: "Instruments in the last batch",
			},
		),
	}
}

// Registry returns the underlying registry (HTTP handlers, tests)
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordScored records one emitted signal
func (r *Recorder) RecordScored(tier string, master float64) {
	if r == nil {
		return
	}
	r.scored.WithLabelValues(tier).Inc()
	r.masterScores.Observe(master)
}

// RecordSkipped records one skipped instrument
func (r *Recorder) RecordSkipped(reason string) {
	if r == nil {
		return
	}
	r.skipped.WithLabelValues(reason).Inc()
}

// RecordFilterFailure records one failed robustness filter
func (r *Recorder) RecordFilterFailure(filter, reason string) {
	if r == nil {
		return
	}
	r.filterFails.WithLabelValues(filter, reason).Inc()
}

// ObserveInstrument records per-instrument latency; outcome is "scored" or "skipped"
func (r *Recorder) ObserveInstrument(outcome string, seconds float64) {
	if r == nil {
		return
	}
	r.latency.WithLabelValues(outcome).Observe(seconds)
}

// ObserveRun records a finished batch
func (r *Recorder) ObserveRun(universe int, seconds float64) {
	if r == nil {
		return
	}
	r.universe.Set(float64(universe))
	r.runDuration.Observe(seconds)
}

// WithHTTPClient sets the doer used for Pushgateway requests (default http.DefaultClient)
func (r *Recorder) WithHTTPClient(client push.HTTPDoer) *Recorder {
	if r != nil {
		r.client = client
	}
	return r
}

// Push sends every metric to a Prometheus Pushgateway (batch jobs have no scrape endpoint)
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if r == nil || url == "" {
		return nil
	}
	pusher := push.New(url, job).Gatherer(r.registry)
	if r.client != nil {
		pusher = pusher.Client(r.client)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
