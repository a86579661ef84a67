// Package observability exports graphwalk metrics to monitoring systems.
package observability

import (
	"time"

	"github.com/hupe1980/graphwalk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "graphwalk"

// PrometheusCollector implements graphwalk.MetricsCollector with Prometheus
// metrics.
type PrometheusCollector struct {
	rounds        prometheus.Counter
	roundDuration prometheus.Histogram
	buckets       prometheus.Counter
	walkers       prometheus.Counter
	blockLoads    prometheus.Counter
	bytesLoaded   prometheus.Counter
	steps         prometheus.Counter
	spilled       prometheus.Counter
	pending       prometheus.Gauge
}

var _ graphwalk.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector registers the graphwalk metrics with reg. If reg is
// nil, prometheus.DefaultRegisterer is used.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &PrometheusCollector{
		rounds: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Number of completed rounds",
		}),
		roundDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_duration_seconds",
			Help:      "Duration of a round including block loads and spilling",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		buckets: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buckets_processed_total",
			Help:      "Number of buckets processed",
		}),
		walkers: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "walkers_pulled_total",
			Help:      "Number of walkers pulled from buckets",
		}),
		blockLoads: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "block_loads_total",
			Help:      "Number of blocks read into the cache",
		}),
		bytesLoaded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "block_bytes_loaded_total",
			Help:      "Bytes of block data read into the cache",
		}),
		steps: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Number of hops taken by walkers",
		}),
		spilled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "walkers_spilled_total",
			Help:      "Number of walkers written to the spill store",
		}),
		pending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "walkers_pending",
			Help:      "Walkers still pending after the last round",
		}),
	}
}

// RecordRound implements graphwalk.MetricsCollector.
func (p *PrometheusCollector) RecordRound(buckets, walkers int, duration time.Duration) {
	p.rounds.Inc()
	p.roundDuration.Observe(duration.Seconds())
	p.buckets.Add(float64(buckets))
	p.walkers.Add(float64(walkers))
}

// RecordBlockLoad implements graphwalk.MetricsCollector.
func (p *PrometheusCollector) RecordBlockLoad(blocks int, bytes int64) {
	p.blockLoads.Add(float64(blocks))
	p.bytesLoaded.Add(float64(bytes))
}

// RecordSteps implements graphwalk.MetricsCollector.
func (p *PrometheusCollector) RecordSteps(steps int64) {
	p.steps.Add(float64(steps))
}

// RecordSpill implements graphwalk.MetricsCollector.
func (p *PrometheusCollector) RecordSpill(spilled int, pending int64) {
	p.spilled.Add(float64(spilled))
	p.pending.Set(float64(pending))
}
