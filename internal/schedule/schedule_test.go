package schedule

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/hupe1980/graphwalk/internal/cache"
	"github.com/hupe1980/graphwalk/internal/format"
	"github.com/hupe1980/graphwalk/internal/partition"
	"github.com/hupe1980/graphwalk/internal/walk"
	"github.com/hupe1980/graphwalk/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFixture returns a cache and manager over n single-vertex blocks, so
// vertex i lives in block i.
func newFixture(t *testing.T, n, capacity int) (*cache.Cache, *walk.Manager) {
	t.Helper()
	vb := make([]uint32, n+1)
	eb := make([]uint64, n+1)
	for i := range vb {
		vb[i] = uint32(i)
	}
	tbl, err := partition.New(&format.Layout{
		Meta:         format.Meta{NVertices: uint32(n)},
		VertexBounds: vb,
		EdgeBounds:   eb,
	})
	require.NoError(t, err)

	loader := cache.LoaderFunc(func(_ context.Context, blk *partition.Block, dst *cache.Slot) error {
		dst.Offsets = append(dst.Offsets[:0], make([]uint64, blk.NumVertices+1)...)
		dst.Edges = dst.Edges[:0]
		return nil
	})
	c, err := cache.New(tbl, capacity, 1024, loader, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, walk.NewManager(tbl)
}

func addWalks(t *testing.T, m *walk.Manager, prev, cur model.BlockID, n int) {
	t.Helper()
	for range n {
		require.NoError(t, m.MoveWalk(model.Walker{Previous: model.VertexID(prev), Current: model.VertexID(cur), Hop: 1}))
	}
}

// round schedules once, checks that every bucket is resident and non-empty
// and pulls its walkers.
func round(t *testing.T, s Scheduler, c *cache.Cache, m *walk.Manager) []model.Bucket {
	t.Helper()
	ctx := context.Background()
	buckets, err := s.Schedule(ctx)
	require.NoError(t, err)
	tbl := c.Table()
	for _, b := range buckets {
		assert.True(t, tbl.Resident(b.Prev), "bucket %s: previous block not resident", b)
		assert.True(t, tbl.Resident(b.Cur), "bucket %s: current block not resident", b)
		assert.Positive(t, m.Count(b), "bucket %s is empty", b)
		_, err := m.Pull(ctx, b)
		require.NoError(t, err)
	}
	return buckets
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{Greedy, Annealing, LP} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("fifo")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNew(t *testing.T) {
	c, m := newFixture(t, 3, 1)
	_, err := New(Greedy, c, m)
	assert.ErrorIs(t, err, ErrCapacity)

	c, m = newFixture(t, 1, 1)
	s, err := New(Annealing, c, m)
	require.NoError(t, err)
	assert.Equal(t, "annealing", s.Name())

	c, m = newFixture(t, 3, 2)
	_, err = New(Kind(9), c, m)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestGreedy(t *testing.T) {
	c, m := newFixture(t, 4, 2)
	addWalks(t, m, 0, 2, 5)
	addWalks(t, m, 1, 2, 3)
	addWalks(t, m, 2, 3, 1)
	addWalks(t, m, 3, 3, 1)

	s, err := New(Greedy, c, m)
	require.NoError(t, err)

	assert.Equal(t, []model.Bucket{{Prev: 0, Cur: 2}}, round(t, s, c, m))
	assert.ElementsMatch(t, []model.BlockID{2, 0}, c.Resident())

	assert.Equal(t, []model.Bucket{{Prev: 1, Cur: 2}}, round(t, s, c, m))
	assert.ElementsMatch(t, []model.BlockID{2, 1}, c.Resident())

	assert.Equal(t, []model.Bucket{{Prev: 2, Cur: 3}}, round(t, s, c, m))
	assert.Equal(t, []model.Bucket{{Prev: 3, Cur: 3}}, round(t, s, c, m))
	assert.Empty(t, round(t, s, c, m))
	assert.Zero(t, m.Total())
	assert.Equal(t, 4, c.Loads())
}

func TestAnnealing(t *testing.T) {
	c, m := newFixture(t, 6, 3)
	addWalks(t, m, 1, 3, 10)
	addWalks(t, m, 3, 5, 10)
	addWalks(t, m, 5, 1, 10)
	addWalks(t, m, 0, 2, 1)

	s, err := New(Annealing, c, m, WithSeed(7))
	require.NoError(t, err)

	assert.Equal(t, []model.Bucket{{Prev: 1, Cur: 3}, {Prev: 3, Cur: 5}, {Prev: 5, Cur: 1}}, round(t, s, c, m))
	assert.ElementsMatch(t, []model.BlockID{1, 3, 5}, c.Resident())

	assert.Equal(t, []model.Bucket{{Prev: 0, Cur: 2}}, round(t, s, c, m))
	resident := c.Resident()
	assert.Contains(t, resident, model.BlockID(0))
	assert.Contains(t, resident, model.BlockID(2))
	assert.Equal(t, 5, c.Loads(), "one resident block is reused")

	occ, ok := c.Occupant(0)
	require.True(t, ok)
	assert.NotContains(t, []model.BlockID{0, 2}, occ, "resident blocks move to the front slots")

	assert.Empty(t, round(t, s, c, m))
}

func TestAnnealingRanked(t *testing.T) {
	c, m := newFixture(t, 3, 2)
	addWalks(t, m, 0, 0, 2)
	addWalks(t, m, 1, 1, 2)
	c.Table().Block(1).ExpWalkLen = 4

	plain, err := New(Annealing, c, m)
	require.NoError(t, err)
	bw := plain.(*annealing).snapshot()
	assert.Equal(t, []model.BlockID{0, 1, 2}, plain.(*annealing).ranked(bw))

	expected, err := New(Annealing, c, m, WithExpectedLength(true))
	require.NoError(t, err)
	assert.Equal(t, []model.BlockID{1, 0, 2}, expected.(*annealing).ranked(bw))
}

func TestLPDensestPair(t *testing.T) {
	c, m := newFixture(t, 5, 2)
	addWalks(t, m, 0, 1, 2)
	addWalks(t, m, 1, 0, 2)
	addWalks(t, m, 2, 3, 5)
	addWalks(t, m, 3, 2, 1)
	addWalks(t, m, 4, 4, 3)

	s, err := New(LP, c, m)
	require.NoError(t, err)

	assert.Equal(t, []model.Bucket{{Prev: 2, Cur: 3}, {Prev: 3, Cur: 2}}, round(t, s, c, m))
	assert.ElementsMatch(t, []model.BlockID{2, 3}, c.Resident())

	// Loading block 4 next to a resident block serves 3 walkers per load,
	// loading the pair {0, 1} only 2.
	assert.Equal(t, []model.Bucket{{Prev: 4, Cur: 4}}, round(t, s, c, m))
	assert.Equal(t, []model.Bucket{{Prev: 0, Cur: 1}, {Prev: 1, Cur: 0}}, round(t, s, c, m))
	assert.Empty(t, round(t, s, c, m))
}

func unlimited() *lpBudget {
	return &lpBudget{ctx: context.Background(), nodes: lpMaxNodes, deadline: time.Now().Add(time.Minute)}
}

func TestProgramInfeasible(t *testing.T) {
	p := &program{blocks: []model.BlockID{0, 1, 2}, k: 2, cached: []bool{true, false, false}, minCached: 2}
	_, ok := p.solve(unlimited(), nil)
	assert.False(t, ok)

	p.minCached = 1
	p.edges = []lpEdge{{u: 1, v: 2, w: 5}, {u: 0, v: 1, w: 1}}
	sel, ok := p.solve(unlimited(), nil)
	require.True(t, ok)
	assert.Equal(t, []model.BlockID{0, 1}, sel)
}

func TestProgramIncumbent(t *testing.T) {
	p := &program{
		blocks: []model.BlockID{7, 3, 5},
		k:      2,
		cached: []bool{false, false, false},
		edges:  []lpEdge{{u: 1, v: 2, w: 5}, {u: 0, v: 1, w: 1}},
	}

	// An exhausted budget returns the feasible start selection.
	spent := &lpBudget{ctx: context.Background(), deadline: time.Now().Add(time.Minute)}
	sel, ok := p.solve(spent, []model.BlockID{7, 3})
	require.True(t, ok)
	assert.Equal(t, []model.BlockID{3, 7}, sel)

	// The search improves on a weaker start.
	sel, ok = p.solve(unlimited(), []model.BlockID{7, 3})
	require.True(t, ok)
	assert.Equal(t, []model.BlockID{3, 5}, sel)

	// Infeasible starts are ignored.
	_, _, ok = p.incumbent([]model.BlockID{7, 9})
	assert.False(t, ok)
	_, _, ok = p.incumbent([]model.BlockID{7})
	assert.False(t, ok)
}

func TestLPManyBlocks(t *testing.T) {
	for _, n := range []int{16, 24, 40} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			c, m := newFixture(t, n, 2)
			r := rand.New(rand.NewPCG(uint64(n), 7))
			for range 160 {
				addWalks(t, m, model.BlockID(r.IntN(n)), model.BlockID(r.IntN(n)), 1)
			}

			s, err := New(LP, c, m, WithLPBudget(20*time.Millisecond))
			require.NoError(t, err)

			require.NotEmpty(t, round(t, s, c, m))
			require.Len(t, c.Resident(), 2)

			start := time.Now()
			require.NotEmpty(t, round(t, s, c, m))
			assert.Less(t, time.Since(start), 2*time.Second)

			for rounds := 0; m.Total() > 0; rounds++ {
				require.Less(t, rounds, n*n, "no progress with %d walkers left", m.Total())
				require.NotEmpty(t, round(t, s, c, m))
			}
			require.NoError(t, m.Validate())
		})
	}
}

func TestLPBudgetFallback(t *testing.T) {
	c, m := newFixture(t, 6, 2)
	addWalks(t, m, 0, 1, 4)
	addWalks(t, m, 4, 5, 3)
	addWalks(t, m, 2, 3, 1)

	s, err := New(LP, c, m, WithLPBudget(time.Nanosecond))
	require.NoError(t, err)
	l := s.(*lpScheduler)
	bw := l.snapshot()
	heuristic := l.seed(bw, l.ranked(bw))

	round(t, s, c, m)
	assert.ElementsMatch(t, heuristic, c.Resident())
}

func TestEnsureProgress(t *testing.T) {
	c, m := newFixture(t, 5, 3)
	addWalks(t, m, 3, 4, 2)
	addWalks(t, m, 0, 3, 1)

	s, err := New(Annealing, c, m)
	require.NoError(t, err)
	a := s.(*annealing)
	bw := a.snapshot()

	got := a.ensureProgress(bw, []model.BlockID{0, 1, 2})
	assert.ElementsMatch(t, []model.BlockID{0, 3, 4}, got)

	got = a.ensureProgress(bw, []model.BlockID{0, 3, 2})
	assert.Equal(t, []model.BlockID{0, 3, 2}, got)
}

func TestSelectAllBlocks(t *testing.T) {
	for _, k := range []Kind{Annealing, LP} {
		t.Run(k.String(), func(t *testing.T) {
			c, m := newFixture(t, 3, 3)
			addWalks(t, m, 0, 2, 1)
			addWalks(t, m, 2, 1, 1)

			s, err := New(k, c, m)
			require.NoError(t, err)
			assert.Equal(t, []model.Bucket{{Prev: 0, Cur: 2}, {Prev: 2, Cur: 1}}, round(t, s, c, m))
			assert.Len(t, c.Resident(), 3)
		})
	}
}

func TestSchedulersDrain(t *testing.T) {
	for _, k := range []Kind{Greedy, Annealing, LP} {
		t.Run(k.String(), func(t *testing.T) {
			const n = 7
			c, m := newFixture(t, n, 3)
			r := rand.New(rand.NewPCG(1, 2))
			for range 200 {
				addWalks(t, m, model.BlockID(r.IntN(n)), model.BlockID(r.IntN(n)), 1)
			}

			s, err := New(k, c, m, WithSeed(3), WithMaxIter(10))
			require.NoError(t, err)

			for rounds := 0; m.Total() > 0; rounds++ {
				require.Less(t, rounds, n*n, "no progress with %d walkers left", m.Total())
				require.NotEmpty(t, round(t, s, c, m))
			}
			assert.Empty(t, round(t, s, c, m))
			require.NoError(t, m.Validate())
		})
	}
}
