package observability

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/graphwalk"
	"github.com/hupe1980/graphwalk/blobstore"
	"github.com/hupe1980/graphwalk/testutil"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCollector_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheusCollector(reg)

	p.RecordRound(3, 40, 20*time.Millisecond)
	p.RecordRound(1, 2, time.Millisecond)
	p.RecordBlockLoad(2, 4096)
	p.RecordSteps(120)
	p.RecordSpill(7, 11)
	p.RecordSpill(0, 5)

	assert.InDelta(t, 2, promtest.ToFloat64(p.rounds), 0)
	assert.InDelta(t, 4, promtest.ToFloat64(p.buckets), 0)
	assert.InDelta(t, 42, promtest.ToFloat64(p.walkers), 0)
	assert.InDelta(t, 2, promtest.ToFloat64(p.blockLoads), 0)
	assert.InDelta(t, 4096, promtest.ToFloat64(p.bytesLoaded), 0)
	assert.InDelta(t, 120, promtest.ToFloat64(p.steps), 0)
	assert.InDelta(t, 7, promtest.ToFloat64(p.spilled), 0)
	assert.InDelta(t, 5, promtest.ToFloat64(p.pending), 0)

	n, err := promtest.GatherAndCount(reg, "graphwalk_round_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPrometheusCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusCollector(reg)
	assert.Panics(t, func() { NewPrometheusCollector(reg) })
}

func TestPrometheusCollector_Run(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	testutil.WriteDataset(t, store, "cycle", testutil.Cycle(5), 40)

	reg := prometheus.NewRegistry()
	p := NewPrometheusCollector(reg)

	g, err := graphwalk.Open(ctx, "cycle",
		graphwalk.WithBlobStore(store),
		graphwalk.WithBlockSize(40),
		graphwalk.WithCacheSlots(2),
		graphwalk.WithMetricsCollector(p),
	)
	require.NoError(t, err)
	defer g.Close()

	stats, err := g.Run(ctx, graphwalk.Walk{WalksPerSource: 2, Hops: 4})
	require.NoError(t, err)

	assert.InDelta(t, float64(stats.Rounds), promtest.ToFloat64(p.rounds), 0)
	assert.InDelta(t, float64(stats.Steps), promtest.ToFloat64(p.steps), 0)
	assert.InDelta(t, float64(stats.BlockLoads), promtest.ToFloat64(p.blockLoads), 0)
	assert.InDelta(t, 0, promtest.ToFloat64(p.pending), 0)
}
