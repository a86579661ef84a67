package app

import (
	"fmt"
	"math"

	"github.com/hupe1980/graphwalk/internal/sample"
)

func constant(v float64) sample.TransitFunc {
	return func(_, _ sample.TransitContext) float64 { return v }
}

// Node2Vec returns the node2vec transition functions with return parameter p
// and in-out parameter q: 1/p back to the previous vertex, 1 to its
// neighbors and 1/q elsewhere.
func Node2Vec(p, q float64) (*sample.TransitFuncs, error) {
	if !(p > 0) || !(q > 0) || math.IsInf(p, 0) || math.IsInf(q, 0) {
		return nil, fmt.Errorf("%w: node2vec p=%g q=%g", ErrInvalidArgument, p, q)
	}
	ret, in, out := 1/p, 1.0, 1/q
	return &sample.TransitFuncs{
		Equal:          constant(ret),
		CommonNeighbor: constant(in),
		Other:          constant(out),
		UpperBound:     constant(max(ret, in, out)),
		LowerBound:     constant(min(ret, in, out)),
	}, nil
}

// Autoregressive returns the transition functions of the second-order
// autoregressive walk with memory factor alpha in [0, 1). Every candidate
// gets (1-alpha) of the first-order score, and neighbors of the previous
// vertex additionally get alpha of the previous vertex's score. Scores are
// scaled by the larger of the two degrees.
func Autoregressive(alpha float64) (*sample.TransitFuncs, error) {
	if !(alpha >= 0 && alpha < 1) {
		return nil, fmt.Errorf("%w: autoregressive alpha=%g", ErrInvalidArgument, alpha)
	}
	first := func(cur, prev sample.TransitContext) float64 {
		m := float64(max(cur.Degree, prev.Degree))
		return (1 - alpha) * m / float64(cur.Degree)
	}
	common := func(cur, prev sample.TransitContext) float64 {
		m := float64(max(cur.Degree, prev.Degree))
		return first(cur, prev) + alpha*m/float64(prev.Degree)
	}
	return &sample.TransitFuncs{
		Equal:          first,
		CommonNeighbor: common,
		Other:          first,
		UpperBound: func(cur, prev sample.TransitContext) float64 {
			if prev.Degree > 0 {
				return common(cur, prev)
			}
			return first(cur, prev)
		},
		LowerBound: first,
	}, nil
}

// Uniform returns transition functions that weight every candidate 1, or
// its stored edge weight on weighted graphs.
func Uniform() *sample.TransitFuncs {
	w := func(cur, _ sample.TransitContext) float64 {
		if cur.Weighted {
			return float64(cur.Weight)
		}
		return 1
	}
	return &sample.TransitFuncs{
		Equal:          w,
		CommonNeighbor: w,
		Other:          w,
		UpperBound:     constant(1),
		LowerBound:     constant(1),
	}
}
