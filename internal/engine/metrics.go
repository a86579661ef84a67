package engine

import "time"

// RoundStats describes one round.
type RoundStats struct {
	Round    int
	Buckets  int
	Walkers  int
	Steps    int64
	Loads    int
	Bytes    int64
	Spilled  int
	Pending  int64
	Duration time.Duration
}

// MetricsObserver receives per-round statistics.
type MetricsObserver interface {
	// OnRound is called after every round.
	OnRound(s RoundStats)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (NoopMetricsObserver) OnRound(RoundStats) {}
