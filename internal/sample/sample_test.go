package sample

import (
	"errors"
	"math"
	"testing"

	"github.com/hupe1980/graphwalk/model"
	"github.com/hupe1980/graphwalk/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node2vecFuncs(p, q float64) *TransitFuncs {
	bound := func(fn func(float64, float64) float64) TransitFunc {
		return func(_, _ TransitContext) float64 { return fn(fn(1/p, 1), 1/q) }
	}
	return &TransitFuncs{
		Equal:          func(_, _ TransitContext) float64 { return 1 / p },
		CommonNeighbor: func(_, _ TransitContext) float64 { return 1 },
		Other:          func(_, _ TransitContext) float64 { return 1 / q },
		UpperBound:     bound(math.Max),
		LowerBound:     bound(math.Min),
	}
}

func weightedFuncs() *TransitFuncs {
	w := func(cur, _ TransitContext) float64 { return float64(cur.Weight) }
	return &TransitFuncs{Equal: w, CommonNeighbor: w, Other: w}
}

// hopContext describes a hop 1 -> 0 where 0 has neighbors 1, 2, 3 and 4 and
// 1 has neighbors 0 and 2.
func hopContext(funcs *TransitFuncs, seed uint64) *Context {
	c := NewContext(8, funcs, NewRand(seed, 0))
	c.Reset(0, 1, []model.VertexID{1, 2, 3, 4}, nil, []model.VertexID{0, 2})
	return c
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{Naive, ITS, Alias, Reject} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := ParseKind("REJECTION")
	require.NoError(t, err)
	assert.Equal(t, Reject, got)

	_, err = ParseKind("metropolis")
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = New(Kind(42))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestTransitFuncsValidate(t *testing.T) {
	assert.NoError(t, node2vecFuncs(1, 1).Validate())
	assert.ErrorIs(t, (&TransitFuncs{}).Validate(), ErrMissingTransit)
	var nilFuncs *TransitFuncs
	assert.ErrorIs(t, nilFuncs.Validate(), ErrMissingTransit)
}

func TestNeighborWeights(t *testing.T) {
	c := hopContext(node2vecFuncs(2, 0.5), 1)
	assert.Equal(t, []float64{0.5, 1, 2, 2}, c.NeighborWeights(nil))
	for i, want := range []float64{0.5, 1, 2, 2} {
		assert.Equal(t, want, c.VertexWeight(i))
	}
	assert.Equal(t, 2.0, c.MaxWeight())
	assert.Equal(t, 0.5, c.MinWeight())
}

func TestNeighborWeightsBitmap(t *testing.T) {
	prev := make([]model.VertexID, 0, 2*bitmapDegree)
	for v := range model.VertexID(2 * bitmapDegree) {
		prev = append(prev, 2*v+1)
	}
	neighbors := []model.VertexID{0, 1, 2, 3, 500}

	c := NewContext(1024, node2vecFuncs(4, 0.25), NewRand(1, 0))
	c.Reset(7, 0, neighbors, nil, prev)
	got := c.NeighborWeights(nil)
	assert.Equal(t, []float64{0.25, 1, 4, 1, 4}, got)
	for i := range neighbors {
		assert.Equal(t, got[i], c.VertexWeight(i))
	}

	// A second reset must rebuild the set.
	c.Reset(7, 0, neighbors, nil, []model.VertexID{2})
	assert.Equal(t, []float64{0.25, 4, 1, 4, 4}, c.NeighborWeights(got))
}

func TestWalkStartBounds(t *testing.T) {
	c := NewContext(8, node2vecFuncs(2, 0.25), NewRand(1, 0))
	c.Reset(3, 3, []model.VertexID{1, 2}, nil, []model.VertexID{1, 2})
	assert.Equal(t, 1.0, c.MaxWeight())
	assert.Equal(t, 0.5, c.MinWeight())

	c.Funcs = &TransitFuncs{Equal: c.Funcs.Equal, CommonNeighbor: c.Funcs.CommonNeighbor, Other: c.Funcs.Other}
	assert.Zero(t, c.MaxWeight())
	assert.Zero(t, c.MinWeight())
}

func TestVertexSampleDegenerate(t *testing.T) {
	for _, k := range []Kind{Naive, ITS, Alias, Reject} {
		t.Run(k.String(), func(t *testing.T) {
			s, err := New(k)
			require.NoError(t, err)

			c := NewContext(5, node2vecFuncs(1, 1), NewRand(9, 0))
			for range 100 {
				c.Reset(2, 2, nil, nil, nil)
				v, err := VertexSample(c, s)
				require.NoError(t, err)
				assert.Less(t, uint32(v), uint32(5))
			}

			ref := NewRand(9, 0)
			c = NewContext(5, node2vecFuncs(1, 1), NewRand(9, 0))
			c.Reset(2, 1, []model.VertexID{4}, nil, []model.VertexID{2})
			v, err := VertexSample(c, s)
			require.NoError(t, err)
			assert.Equal(t, model.VertexID(4), v)
			assert.Zero(t, s.Draws())
			assert.Equal(t, ref.Uint64(), c.Rand.Uint64(), "single neighbor consumed randomness")
		})
	}
}

func TestSamplersDistribution(t *testing.T) {
	const trials = 40000
	want := []float64{0.5, 1, 2, 2}

	for _, k := range []Kind{ITS, Alias, Reject} {
		t.Run(k.String(), func(t *testing.T) {
			s, err := New(k)
			require.NoError(t, err)

			c := hopContext(node2vecFuncs(2, 0.5), 42)
			counts := make([]int, len(want))
			for range trials {
				v, err := VertexSample(c, s)
				require.NoError(t, err)
				counts[v-1]++
			}
			p := testutil.ChiSquarePValue(counts, want)
			assert.Greater(t, p, 0.001, "counts %v", counts)
			assert.GreaterOrEqual(t, s.Draws(), uint64(trials))
		})
	}
}

func TestSamplersWeighted(t *testing.T) {
	const trials = 30000
	stored := []float32{3, 0, 1, 6}

	for _, k := range []Kind{ITS, Alias, Reject} {
		t.Run(k.String(), func(t *testing.T) {
			s, err := New(k)
			require.NoError(t, err)

			c := NewContext(8, weightedFuncs(), NewRand(7, 1))
			c.Reset(0, 1, []model.VertexID{1, 2, 3, 4}, stored, []model.VertexID{0})
			counts := make([]int, len(stored))
			for range trials {
				v, err := VertexSample(c, s)
				require.NoError(t, err)
				counts[v-1]++
			}
			assert.Zero(t, counts[1], "zero weight sampled")
			assert.Greater(t, testutil.ChiSquarePValue(counts, []float64{3, 0, 1, 6}), 0.001, "counts %v", counts)
		})
	}
}

func TestNaiveUniform(t *testing.T) {
	s, err := New(Naive)
	require.NoError(t, err)

	c := hopContext(node2vecFuncs(2, 0.5), 3)
	counts := make([]int, 4)
	for range 20000 {
		v, err := VertexSample(c, s)
		require.NoError(t, err)
		counts[v-1]++
	}
	assert.Greater(t, testutil.ChiSquarePValue(counts, []float64{1, 1, 1, 1}), 0.001)
}

func TestSampleIndex(t *testing.T) {
	rng := testutil.NewRNG(5)
	weights := rng.Weights(16, 0.1, 10)

	for _, k := range []Kind{ITS, Alias, Reject} {
		t.Run(k.String(), func(t *testing.T) {
			s, err := New(k)
			require.NoError(t, err)

			r := NewRand(11, 0)
			counts := make([]int, len(weights))
			for range 64000 {
				i, err := s.SampleIndex(weights, r)
				require.NoError(t, err)
				counts[i]++
			}
			assert.Greater(t, testutil.ChiSquarePValue(counts, weights), 0.001)
		})
	}
}

func TestSampleIndexInvalid(t *testing.T) {
	r := NewRand(1, 1)
	for _, k := range []Kind{ITS, Alias, Reject} {
		s, err := New(k)
		require.NoError(t, err)

		for _, weights := range [][]float64{nil, {0, 0}, {1, -1}, {math.NaN()}, {math.Inf(1), 1}} {
			_, err := s.SampleIndex(weights, r)
			assert.ErrorIs(t, err, ErrInvalidWeights, "%s %v", k, weights)
		}
	}

	s, err := New(ITS)
	require.NoError(t, err)
	c := NewContext(8, weightedFuncs(), NewRand(7, 1))
	c.Reset(0, 1, []model.VertexID{1, 2}, []float32{0, 0}, nil)
	_, err = VertexSample(c, s)
	assert.ErrorIs(t, err, ErrInvalidWeights)
}

func TestRejectLimit(t *testing.T) {
	funcs := node2vecFuncs(2, 0.5)
	// Understate the bounds so Other candidates can never be accepted.
	funcs.UpperBound = func(_, _ TransitContext) float64 { return 0.1 }
	funcs.LowerBound = func(_, _ TransitContext) float64 { return 0 }
	funcs.Other = func(_, _ TransitContext) float64 { return 0 }
	funcs.Equal = func(_, _ TransitContext) float64 { return 0 }
	funcs.CommonNeighbor = func(_, _ TransitContext) float64 { return 0 }

	s, err := New(Reject)
	require.NoError(t, err)

	c := hopContext(funcs, 1)
	_, err = VertexSample(c, s)
	require.ErrorIs(t, err, ErrRejectLimit)

	var limitErr *RejectLimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, model.VertexID(0), limitErr.Vertex)
	assert.Equal(t, 0.1, limitErr.PMax)
	assert.Equal(t, 4, limitErr.Degree)
	assert.Equal(t, 2, limitErr.PrevDegree)
	assert.Equal(t, MaxRejectTries, limitErr.Tries)
	assert.Equal(t, uint64(MaxRejectTries), s.Draws())
}

func TestRejectAcceptsBelowLowerBound(t *testing.T) {
	// Weights the bounds claim are at least pmin are accepted without
	// evaluating them.
	funcs := node2vecFuncs(1, 1)
	s, err := New(Reject)
	require.NoError(t, err)

	c := hopContext(funcs, 2)
	for range 100 {
		_, err := VertexSample(c, s)
		require.NoError(t, err)
	}
	assert.Equal(t, uint64(100), s.Draws())
}

func TestDerive(t *testing.T) {
	a := Derive(1, 0, 0).Uint64()
	assert.Equal(t, a, Derive(1, 0, 0).Uint64())
	assert.NotEqual(t, a, Derive(1, 0, 1).Uint64())
	assert.NotEqual(t, a, Derive(1, 1, 0).Uint64())
	assert.NotEqual(t, a, Derive(2, 0, 0).Uint64())
}
