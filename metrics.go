package graphwalk

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/graphwalk/internal/engine"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; see
// observability.PrometheusCollector.
//
// Methods are called once per round from the engine goroutine.
type MetricsCollector interface {
	// RecordRound is called after each round with the number of buckets
	// processed, the walkers pulled from them and the round duration.
	RecordRound(buckets, walkers int, duration time.Duration)

	// RecordBlockLoad is called with the blocks and bytes read in a round.
	RecordBlockLoad(blocks int, bytes int64)

	// RecordSteps is called with the number of hops taken in a round.
	RecordSteps(steps int64)

	// RecordSpill is called with the walkers spilled after a round and the
	// walkers still pending.
	RecordSpill(spilled int, pending int64)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRound(int, int, time.Duration) {}
func (NoopMetricsCollector) RecordBlockLoad(int, int64)          {}
func (NoopMetricsCollector) RecordSteps(int64)                   {}
func (NoopMetricsCollector) RecordSpill(int, int64)              {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	RoundCount      atomic.Int64
	RoundTotalNanos atomic.Int64
	BucketCount     atomic.Int64
	WalkerCount     atomic.Int64
	BlockLoads      atomic.Int64
	BytesLoaded     atomic.Int64
	Steps           atomic.Int64
	Spilled         atomic.Int64
	Pending         atomic.Int64
}

// RecordRound implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRound(buckets, walkers int, duration time.Duration) {
	b.RoundCount.Add(1)
	b.RoundTotalNanos.Add(duration.Nanoseconds())
	b.BucketCount.Add(int64(buckets))
	b.WalkerCount.Add(int64(walkers))
}

// RecordBlockLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBlockLoad(blocks int, bytes int64) {
	b.BlockLoads.Add(int64(blocks))
	b.BytesLoaded.Add(bytes)
}

// RecordSteps implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSteps(steps int64) {
	b.Steps.Add(steps)
}

// RecordSpill implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSpill(spilled int, pending int64) {
	b.Spilled.Add(int64(spilled))
	b.Pending.Store(pending)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RoundCount:     b.RoundCount.Load(),
		RoundAvgNanos:  b.getAvgRoundNanos(),
		BucketCount:    b.BucketCount.Load(),
		WalkerCount:    b.WalkerCount.Load(),
		BlockLoads:     b.BlockLoads.Load(),
		BytesLoaded:    b.BytesLoaded.Load(),
		Steps:          b.Steps.Load(),
		Spilled:        b.Spilled.Load(),
		Pending:        b.Pending.Load(),
		StepsPerWalker: b.getStepsPerWalker(),
	}
}

func (b *BasicMetricsCollector) getAvgRoundNanos() int64 {
	count := b.RoundCount.Load()
	if count == 0 {
		return 0
	}
	return b.RoundTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getStepsPerWalker() float64 {
	walkers := b.WalkerCount.Load()
	if walkers == 0 {
		return 0
	}
	return float64(b.Steps.Load()) / float64(walkers)
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector counters.
type BasicMetricsStats struct {
	RoundCount    int64
	RoundAvgNanos int64
	BucketCount   int64
	WalkerCount   int64
	BlockLoads    int64
	BytesLoaded   int64
	Steps         int64
	Spilled       int64
	Pending       int64
	// StepsPerWalker is the mean number of hops a pulled walker took before
	// it finished or left the resident blocks.
	StepsPerWalker float64
}

// metricsObserver forwards engine round statistics to a MetricsCollector.
type metricsObserver struct {
	mc MetricsCollector
}

var _ engine.MetricsObserver = metricsObserver{}

func (m metricsObserver) OnRound(s engine.RoundStats) {
	m.mc.RecordRound(s.Buckets, s.Walkers, s.Duration)
	m.mc.RecordBlockLoad(s.Loads, s.Bytes)
	m.mc.RecordSteps(s.Steps)
	m.mc.RecordSpill(s.Spilled, s.Pending)
}
