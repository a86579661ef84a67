package format

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidGraph is returned for edge lists or CSR arrays that cannot form a graph.
var ErrInvalidGraph = errors.New("format: invalid graph")

// Edge is one input edge.
type Edge struct {
	Src    uint32
	Dst    uint32
	Weight float32
}

// Graph is an in-memory CSR graph.
type Graph struct {
	Offsets   []uint64
	Neighbors []uint32
	Weights   []float32 // nil for unweighted graphs
}

// NumVertices returns the number of vertices.
func (g *Graph) NumVertices() uint32 {
	if len(g.Offsets) == 0 {
		return 0
	}
	return uint32(len(g.Offsets) - 1)
}

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() uint64 {
	return uint64(len(g.Neighbors))
}

// Weighted reports whether the graph carries edge weights.
func (g *Graph) Weighted() bool {
	return g.Weights != nil
}

// Adjacency returns the sorted neighbors of v.
func (g *Graph) Adjacency(v uint32) []uint32 {
	return g.Neighbors[g.Offsets[v]:g.Offsets[v+1]]
}

// Degree returns the out-degree of v.
func (g *Graph) Degree(v uint32) uint64 {
	return g.Offsets[v+1] - g.Offsets[v]
}

// Validate checks the CSR invariants: monotone offsets, in-range sorted neighbors.
func (g *Graph) Validate() error {
	if len(g.Offsets) == 0 || g.Offsets[0] != 0 {
		return fmt.Errorf("%w: offsets must start at 0", ErrInvalidGraph)
	}
	n := g.NumVertices()
	if g.Offsets[n] != g.NumEdges() {
		return fmt.Errorf("%w: last offset %d != edge count %d", ErrInvalidGraph, g.Offsets[n], g.NumEdges())
	}
	if g.Weights != nil && len(g.Weights) != len(g.Neighbors) {
		return fmt.Errorf("%w: %d weights for %d edges", ErrInvalidGraph, len(g.Weights), len(g.Neighbors))
	}
	for v := range n {
		if g.Offsets[v] > g.Offsets[v+1] {
			return fmt.Errorf("%w: offsets decrease at vertex %d", ErrInvalidGraph, v)
		}
		adj := g.Adjacency(v)
		for i, u := range adj {
			if u >= n {
				return fmt.Errorf("%w: vertex %d has neighbor %d out of range", ErrInvalidGraph, v, u)
			}
			if i > 0 && adj[i-1] > u {
				return fmt.Errorf("%w: adjacency of vertex %d is not sorted", ErrInvalidGraph, v)
			}
		}
	}
	return nil
}

// BuildOptions configures BuildGraph.
type BuildOptions struct {
	// NumVertices fixes the vertex count. 0 derives it from the largest id.
	NumVertices uint32
	// Undirected adds the reverse of every edge.
	Undirected bool
	// Weighted keeps edge weights.
	Weighted bool
	// Dedup drops repeated (src, dst) pairs, keeping the first weight.
	Dedup bool
}

// BuildGraph converts an edge list into a CSR graph with sorted adjacency.
func BuildGraph(edges []Edge, opts BuildOptions) (*Graph, error) {
	n := opts.NumVertices
	if n == 0 {
		for _, e := range edges {
			n = max(n, e.Src+1, e.Dst+1)
		}
	}

	all := edges
	if opts.Undirected {
		all = make([]Edge, 0, 2*len(edges))
		for _, e := range edges {
			all = append(all, e)
			if e.Src != e.Dst {
				all = append(all, Edge{Src: e.Dst, Dst: e.Src, Weight: e.Weight})
			}
		}
	} else {
		all = slices.Clone(edges)
	}

	for _, e := range all {
		if e.Src >= n || e.Dst >= n {
			return nil, fmt.Errorf("%w: edge %d->%d exceeds %d vertices", ErrInvalidGraph, e.Src, e.Dst, n)
		}
		if opts.Weighted && !(e.Weight >= 0) {
			return nil, fmt.Errorf("%w: edge %d->%d has weight %v", ErrInvalidGraph, e.Src, e.Dst, e.Weight)
		}
	}

	slices.SortStableFunc(all, func(a, b Edge) int {
		if c := cmp.Compare(a.Src, b.Src); c != 0 {
			return c
		}
		return cmp.Compare(a.Dst, b.Dst)
	})
	if opts.Dedup {
		all = slices.CompactFunc(all, func(a, b Edge) bool {
			return a.Src == b.Src && a.Dst == b.Dst
		})
	}

	g := &Graph{
		Offsets:   make([]uint64, int(n)+1),
		Neighbors: make([]uint32, len(all)),
	}
	if opts.Weighted {
		g.Weights = make([]float32, len(all))
	}
	for i, e := range all {
		g.Offsets[e.Src+1]++
		g.Neighbors[i] = e.Dst
		if opts.Weighted {
			g.Weights[i] = e.Weight
		}
	}
	for v := 1; v < len(g.Offsets); v++ {
		g.Offsets[v] += g.Offsets[v-1]
	}
	return g, nil
}
