package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/graphwalk/blobstore"
	"github.com/hupe1980/graphwalk/internal/app"
	"github.com/hupe1980/graphwalk/internal/cache"
	"github.com/hupe1980/graphwalk/internal/driver"
	"github.com/hupe1980/graphwalk/internal/format"
	"github.com/hupe1980/graphwalk/internal/partition"
	"github.com/hupe1980/graphwalk/internal/sample"
	"github.com/hupe1980/graphwalk/internal/schedule"
	"github.com/hupe1980/graphwalk/internal/walk"
	"github.com/hupe1980/graphwalk/model"
	"github.com/hupe1980/graphwalk/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	cache *cache.Cache
	walks *walk.Manager
}

func newFixture(t *testing.T, g *format.Graph, blockSize int64, capacity int, opts ...walk.Option) *fixture {
	t.Helper()
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	layout := testutil.WriteDataset(t, store, "g", g, blockSize)

	tbl, err := partition.New(layout)
	require.NoError(t, err)
	d, err := driver.Open(ctx, store, "g", layout.Meta)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	c, err := cache.New(tbl, capacity, blockSize, d, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return &fixture{cache: c, walks: walk.NewManager(tbl, opts...)}
}

func (f *fixture) engine(t *testing.T, sk schedule.Kind, kind sample.Kind, opts ...Option) *Engine {
	t.Helper()
	sched, err := schedule.New(sk, f.cache, f.walks, schedule.WithSeed(5))
	require.NoError(t, err)
	s, err := sample.New(kind)
	require.NoError(t, err)
	return New(f.cache, f.walks, sched, s, opts...)
}

func TestCycleScenario(t *testing.T) {
	for _, sk := range []schedule.Kind{schedule.Greedy, schedule.Annealing, schedule.LP} {
		for _, kind := range []sample.Kind{sample.Naive, sample.ITS, sample.Alias, sample.Reject} {
			t.Run(sk.String()+"/"+kind.String(), func(t *testing.T) {
				ctx := context.Background()
				f := newFixture(t, testutil.Cycle(5), 40, 2)
				require.Equal(t, 3, f.walks.NumBlocks())

				rec := app.NewRecorder()
				a, err := app.NewSecondOrder(10, 4, app.Uniform(),
					app.WithSeeder(app.FromSources([]model.VertexID{0}, 10)),
					app.WithObserver(rec),
				)
				require.NoError(t, err)

				e := f.engine(t, sk, kind, WithThreads(3), WithSeed(11))
				n, err := e.Prologue(ctx, a)
				require.NoError(t, err)
				assert.Equal(t, 10, n)
				assert.Equal(t, model.Hop(4), f.walks.MaxHop(2))

				stats, err := e.Run(ctx, a)
				require.NoError(t, err)
				assert.Equal(t, int64(40), stats.Steps)
				assert.Positive(t, stats.Rounds)
				assert.Positive(t, stats.BlockLoads)
				assert.Zero(t, f.walks.Total())
				require.NoError(t, f.walks.Validate())

				assert.Equal(t, int64(10), rec.Finished())
				require.Len(t, rec.Walkers(), 10)
				for _, id := range rec.Walkers() {
					path := rec.Path(id)
					require.Len(t, path, 5)
					assert.Equal(t, model.VertexID(0), path[0])
					for i := 1; i < len(path); i++ {
						u, v := path[i-1], path[i]
						assert.True(t, (u+1)%5 == v || (v+1)%5 == u, "walker %d path %v", id, path)
					}
				}
			})
		}
	}
}

func TestIsolatedVertexTeleports(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutil.Isolated(3), 16, 2)
	require.Equal(t, 3, f.walks.NumBlocks())

	const walkers = 3000
	rec := app.NewRecorder()
	a, err := app.NewSecondOrder(1, 3, app.Uniform(),
		app.WithSeeder(app.FromSources([]model.VertexID{0}, walkers)),
		app.WithObserver(rec),
	)
	require.NoError(t, err)

	e := f.engine(t, schedule.Annealing, sample.ITS, WithThreads(4), WithSeed(3))
	_, err = e.Prologue(ctx, a)
	require.NoError(t, err)
	stats, err := e.Run(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(3*walkers), stats.Steps)
	assert.Equal(t, int64(walkers), rec.Finished())

	counts := make([]int, 3)
	for _, id := range rec.Walkers() {
		path := rec.Path(id)
		require.Len(t, path, 4)
		for _, v := range path[1:] {
			require.Less(t, uint32(v), uint32(3))
			counts[v]++
		}
	}
	assert.Greater(t, testutil.ChiSquarePValue(counts, []float64{1, 1, 1}), 0.001, "counts %v", counts)
}

func TestRandomGraphWithSpill(t *testing.T) {
	ctx := context.Background()
	spill, err := driver.NewSpillStore(ctx, blobstore.NewMemoryStore())
	require.NoError(t, err)

	g := testutil.NewRNG(99).RandomGraph(60, 240, false)
	f := newFixture(t, g, 256, 3, walk.WithSpillStore(spill), walk.WithSpillThreshold(1))
	require.Greater(t, f.walks.NumBlocks(), 3)

	funcs, err := app.Node2Vec(0.5, 2)
	require.NoError(t, err)
	rec := app.NewRecorder()
	a, err := app.NewSecondOrder(2, 10, funcs, app.WithObserver(rec))
	require.NoError(t, err)

	for _, sk := range []schedule.Kind{schedule.Greedy, schedule.Annealing, schedule.LP} {
		t.Run(sk.String(), func(t *testing.T) {
			e := f.engine(t, sk, sample.Reject, WithThreads(4))
			before := rec.Finished()
			n, err := e.Prologue(ctx, a)
			require.NoError(t, err)
			assert.Equal(t, 120, n)

			stats, err := e.Run(ctx, a)
			require.NoError(t, err)
			assert.Equal(t, int64(1200), stats.Steps)
			assert.Positive(t, stats.Spilled)
			assert.Equal(t, int64(120), rec.Finished()-before)
			assert.Zero(t, f.walks.Total())
			require.NoError(t, f.walks.Validate())
		})
	}
}

func TestRunDeterministicSingleThread(t *testing.T) {
	run := func() []model.VertexID {
		ctx := context.Background()
		f := newFixture(t, testutil.Cycle(5), 40, 2)
		rec := app.NewRecorder()
		a, err := app.NewSecondOrder(2, 6, app.Uniform(), app.WithObserver(rec))
		require.NoError(t, err)
		e := f.engine(t, schedule.Greedy, sample.Alias, WithThreads(1), WithSeed(42))
		_, err = e.Prologue(ctx, a)
		require.NoError(t, err)
		_, err = e.Run(ctx, a)
		require.NoError(t, err)

		var all []model.VertexID
		for _, id := range rec.Walkers() {
			all = append(all, rec.Path(id)...)
		}
		return all
	}
	assert.Equal(t, run(), run())
}

func TestRejectLimitIsFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutil.Cycle(5), 40, 2)
	funcs := &sample.TransitFuncs{
		Equal:          func(_, _ sample.TransitContext) float64 { return 0 },
		CommonNeighbor: func(_, _ sample.TransitContext) float64 { return 1 },
		Other:          func(_, _ sample.TransitContext) float64 { return 0 },
		UpperBound:     func(_, _ sample.TransitContext) float64 { return 0.001 },
		LowerBound:     func(_, _ sample.TransitContext) float64 { return 0 },
	}
	a, err := app.NewSecondOrder(1, 4, funcs)
	require.NoError(t, err)

	e := f.engine(t, schedule.Annealing, sample.Reject, WithThreads(2))
	_, err = e.Prologue(ctx, a)
	require.NoError(t, err)
	_, err = e.Run(ctx, a)
	require.ErrorIs(t, err, sample.ErrRejectLimit)

	var rej *sample.RejectLimitError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, 2, rej.Degree)
}

type stubScheduler struct{}

func (stubScheduler) Schedule(context.Context) ([]model.Bucket, error) { return nil, nil }
func (stubScheduler) Name() string                                      { return "stub" }

func TestNoProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutil.Cycle(5), 40, 2)
	a, err := app.NewSecondOrder(1, 4, app.Uniform())
	require.NoError(t, err)

	s, err := sample.New(sample.ITS)
	require.NoError(t, err)
	e := New(f.cache, f.walks, stubScheduler{}, s)
	_, err = e.Prologue(ctx, a)
	require.NoError(t, err)

	stats, err := e.Run(ctx, a)
	assert.ErrorIs(t, err, ErrNoProgress)
	assert.Equal(t, 1, stats.Rounds)
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t, testutil.Cycle(5), 40, 2)
	a, err := app.NewSecondOrder(1, 4, app.Uniform())
	require.NoError(t, err)
	e := f.engine(t, schedule.Greedy, sample.ITS)
	_, err = e.Prologue(context.Background(), a)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats, err := e.Run(ctx, a)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Rounds)
	assert.Equal(t, int64(5), f.walks.Total())
}

type roundRecorder struct {
	mu     sync.Mutex
	rounds []RoundStats
}

func (r *roundRecorder) OnRound(s RoundStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rounds = append(r.rounds, s)
}

func TestMetricsObserver(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutil.Cycle(5), 40, 2)
	a, err := app.NewSecondOrder(3, 5, app.Uniform())
	require.NoError(t, err)

	obs := &roundRecorder{}
	e := f.engine(t, schedule.LP, sample.ITS, WithMetricsObserver(obs))
	_, err = e.Prologue(ctx, a)
	require.NoError(t, err)
	stats, err := e.Run(ctx, a)
	require.NoError(t, err)

	require.Len(t, obs.rounds, stats.Rounds)
	var steps int64
	var loads int
	for i, r := range obs.rounds {
		assert.Equal(t, i, r.Round)
		assert.Positive(t, r.Buckets)
		steps += r.Steps
		loads += r.Loads
	}
	assert.Equal(t, stats.Steps, steps)
	assert.Equal(t, stats.BlockLoads, loads)
	assert.Zero(t, obs.rounds[len(obs.rounds)-1].Pending)
	assert.Equal(t, int64(75), stats.Steps)
}

// invariantChecker verifies the walk state after every round.
type invariantChecker struct {
	t         *testing.T
	walks     *walk.Manager
	rec       *app.Recorder
	seeded    int64
	hops      model.Hop
	nvertices model.VertexID
	rounds    int
}

func (c *invariantChecker) OnRound(RoundStats) {
	c.rounds++
	assert.NoError(c.t, c.walks.Validate(), "round %d", c.rounds)
	assert.Equal(c.t, c.seeded-c.rec.Finished(), c.walks.Total(), "round %d", c.rounds)

	var held int64
	for w := range c.walks.All() {
		held++
		assert.Less(c.t, w.Hop, c.hops, "walker %d", w.ID)
		assert.Less(c.t, w.Current, c.nvertices, "walker %d", w.ID)
		assert.Less(c.t, w.Previous, c.nvertices, "walker %d", w.ID)
	}
	assert.Equal(c.t, c.walks.Total(), held, "round %d", c.rounds)
}

func TestInvariantsBetweenRounds(t *testing.T) {
	g := testutil.NewRNG(17).RandomGraph(80, 160, false)
	funcs, err := app.Node2Vec(0.5, 2)
	require.NoError(t, err)

	for _, sk := range []schedule.Kind{schedule.Greedy, schedule.Annealing, schedule.LP} {
		for _, kind := range []sample.Kind{sample.Naive, sample.ITS, sample.Alias, sample.Reject} {
			t.Run(sk.String()+"/"+kind.String(), func(t *testing.T) {
				ctx := context.Background()
				f := newFixture(t, g, 96, 2)
				require.GreaterOrEqual(t, f.walks.NumBlocks(), 16)

				rec := app.NewRecorder()
				a, err := app.NewSecondOrder(2, 9, funcs, app.WithObserver(rec))
				require.NoError(t, err)

				sched, err := schedule.New(sk, f.cache, f.walks,
					schedule.WithSeed(5),
					schedule.WithLPBudget(10*time.Millisecond),
				)
				require.NoError(t, err)
				s, err := sample.New(kind)
				require.NoError(t, err)

				check := &invariantChecker{t: t, walks: f.walks, rec: rec, hops: 9, nvertices: 80}
				e := New(f.cache, f.walks, sched, s, WithThreads(4), WithSeed(2), WithMetricsObserver(check))

				n, err := e.Prologue(ctx, a)
				require.NoError(t, err)
				require.Equal(t, 160, n)
				check.seeded = int64(n)

				stats, err := e.Run(ctx, a)
				require.NoError(t, err)
				assert.Equal(t, int64(160*9), stats.Steps)
				assert.Equal(t, stats.Rounds, check.rounds)
				assert.Equal(t, int64(160), rec.Finished())
			})
		}
	}
}
