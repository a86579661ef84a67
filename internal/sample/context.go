package sample

import (
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/graphwalk/model"
)

// bitmapDegree is the previous-vertex degree above which membership tests of
// a full neighbor scan use a bitmap instead of binary search.
const bitmapDegree = 64

type relation uint8

const (
	relEqual relation = iota
	relCommon
	relOther
)

// Context is the sampling state of one hop. Slices are borrowed from cache
// slots and valid for the current round only.
//
// A worker reuses one Context for all its hops through Reset.
type Context struct {
	Cur           model.VertexID
	Prev          model.VertexID
	NumVertices   uint32
	Neighbors     []model.VertexID
	Weights       []float32
	PrevNeighbors []model.VertexID
	Funcs         *TransitFuncs
	Rand          *Rand

	prevSet     *roaring.Bitmap
	prevSetFull bool
	scratch     []float64
}

// NewContext returns a context bound to funcs and rng.
func NewContext(nvertices uint32, funcs *TransitFuncs, rng *Rand) *Context {
	return &Context{NumVertices: nvertices, Funcs: funcs, Rand: rng}
}

// Reset points the context at a new hop. weights is nil on unweighted graphs.
func (c *Context) Reset(cur, prev model.VertexID, neighbors []model.VertexID, weights []float32, prevNeighbors []model.VertexID) {
	c.Cur, c.Prev = cur, prev
	c.Neighbors = neighbors
	c.Weights = weights
	c.PrevNeighbors = prevNeighbors
	c.prevSetFull = false
}

// Degree returns the degree of the current vertex.
func (c *Context) Degree() int { return len(c.Neighbors) }

// PrevDegree returns the degree of the previous vertex.
func (c *Context) PrevDegree() int { return len(c.PrevNeighbors) }

// Weighted reports whether stored edge weights are available.
func (c *Context) Weighted() bool { return c.Weights != nil }

func (c *Context) sides(i int) (cur, prev TransitContext) {
	cur = TransitContext{Vertex: c.Cur, Degree: len(c.Neighbors), Weighted: c.Weighted()}
	prev = TransitContext{Vertex: c.Prev, Degree: len(c.PrevNeighbors), Weighted: c.Weighted()}
	if c.Weights != nil && i >= 0 {
		cur.Weight = c.Weights[i]
	}
	return cur, prev
}

func (c *Context) score(rel relation, cur, prev TransitContext) float64 {
	switch rel {
	case relEqual:
		return c.Funcs.Equal(cur, prev)
	case relCommon:
		return c.Funcs.CommonNeighbor(cur, prev)
	default:
		return c.Funcs.Other(cur, prev)
	}
}

func (c *Context) relationOf(candidate model.VertexID, useSet bool) relation {
	if candidate == c.Prev {
		return relEqual
	}
	var found bool
	if useSet {
		found = c.prevSet.Contains(uint32(candidate))
	} else {
		_, found = slices.BinarySearch(c.PrevNeighbors, candidate)
	}
	if found {
		return relCommon
	}
	return relOther
}

func (c *Context) buildPrevSet() {
	if c.prevSetFull {
		return
	}
	if c.prevSet == nil {
		c.prevSet = roaring.New()
	} else {
		c.prevSet.Clear()
	}
	for _, v := range c.PrevNeighbors {
		c.prevSet.Add(uint32(v))
	}
	c.prevSetFull = true
}

// VertexWeight returns the transition weight of the i-th neighbor.
func (c *Context) VertexWeight(i int) float64 {
	cur, prev := c.sides(i)
	return c.score(c.relationOf(c.Neighbors[i], false), cur, prev)
}

// NeighborWeights returns the transition weights of all neighbors in dst,
// reusing its capacity.
func (c *Context) NeighborWeights(dst []float64) []float64 {
	dst = slices.Grow(dst[:0], len(c.Neighbors))[:len(c.Neighbors)]
	useSet := len(c.PrevNeighbors) > bitmapDegree
	if useSet {
		c.buildPrevSet()
	}
	for i, v := range c.Neighbors {
		cur, prev := c.sides(i)
		dst[i] = c.score(c.relationOf(v, useSet), cur, prev)
	}
	return dst
}

// MaxWeight returns the upper bound of the transition weights, or 0 when the
// functions declare none. At the first hop of a walk (Cur == Prev) every
// candidate is the previous vertex or its neighbor, so the bound is taken
// over Equal and CommonNeighbor.
func (c *Context) MaxWeight() float64 {
	if c.Funcs.UpperBound == nil {
		return 0
	}
	cur, prev := c.sides(-1)
	if c.Cur == c.Prev {
		return math.Max(c.Funcs.Equal(cur, prev), c.Funcs.CommonNeighbor(cur, prev))
	}
	return c.Funcs.UpperBound(cur, prev)
}

// MinWeight returns the lower bound of the transition weights, or 0 when the
// functions declare none.
func (c *Context) MinWeight() float64 {
	if c.Funcs.UpperBound == nil {
		return 0
	}
	cur, prev := c.sides(-1)
	if c.Cur == c.Prev {
		return math.Min(c.Funcs.Equal(cur, prev), c.Funcs.CommonNeighbor(cur, prev))
	}
	if c.Funcs.LowerBound == nil {
		return 0
	}
	return c.Funcs.LowerBound(cur, prev)
}
