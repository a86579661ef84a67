package testutil

import (
	"context"
	"testing"

	"github.com/hupe1980/graphwalk/blobstore"
	"github.com/hupe1980/graphwalk/internal/format"
	"github.com/stretchr/testify/require"
)

func build(edges []format.Edge, opts format.BuildOptions) *format.Graph {
	g, err := format.BuildGraph(edges, opts)
	if err != nil {
		panic(err)
	}
	return g
}

// Cycle returns the undirected cycle 0-1-...-(n-1)-0.
func Cycle(n uint32) *format.Graph {
	edges := make([]format.Edge, 0, n)
	for u := range n {
		edges = append(edges, format.Edge{Src: u, Dst: (u + 1) % n, Weight: 1})
	}
	return build(edges, format.BuildOptions{NumVertices: n, Undirected: true, Dedup: true})
}

// WeightedCycle returns the undirected cycle where edge u-v weighs u+v+1.
func WeightedCycle(n uint32) *format.Graph {
	edges := make([]format.Edge, 0, n)
	for u := range n {
		v := (u + 1) % n
		edges = append(edges, format.Edge{Src: u, Dst: v, Weight: float32(u + v + 1)})
	}
	return build(edges, format.BuildOptions{NumVertices: n, Undirected: true, Weighted: true, Dedup: true})
}

// Star returns the undirected star with center 0 and n-1 leaves.
func Star(n uint32) *format.Graph {
	edges := make([]format.Edge, 0, n)
	for v := uint32(1); v < n; v++ {
		edges = append(edges, format.Edge{Src: 0, Dst: v, Weight: 1})
	}
	return build(edges, format.BuildOptions{NumVertices: n, Undirected: true})
}

// Isolated returns a graph of n vertices without edges.
func Isolated(n uint32) *format.Graph {
	return build(nil, format.BuildOptions{NumVertices: n})
}

// Complete returns the undirected complete graph on n vertices.
func Complete(n uint32) *format.Graph {
	var edges []format.Edge
	for u := range n {
		for v := u + 1; v < n; v++ {
			edges = append(edges, format.Edge{Src: u, Dst: v, Weight: 1})
		}
	}
	return build(edges, format.BuildOptions{NumVertices: n, Undirected: true})
}

// RandomGraph returns an undirected graph with n vertices and about m edges.
// Weights are in [1, 10) when weighted is set.
func (r *RNG) RandomGraph(n uint32, m int, weighted bool) *format.Graph {
	r.mu.Lock()
	edges := make([]format.Edge, 0, m)
	for range m {
		u, v := uint32(r.rand.Intn(int(n))), uint32(r.rand.Intn(int(n)))
		if u == v {
			continue
		}
		edges = append(edges, format.Edge{Src: u, Dst: v, Weight: 1 + 9*r.rand.Float32()})
	}
	r.mu.Unlock()
	return build(edges, format.BuildOptions{NumVertices: n, Undirected: true, Weighted: weighted, Dedup: true})
}

// PowerLawGraph returns an undirected graph whose edge endpoints follow a
// Zipf distribution with skew s, giving a few high-degree hubs.
func (r *RNG) PowerLawGraph(n uint32, avgDegree int, s float64) *format.Graph {
	r.mu.Lock()
	m := int(n) * avgDegree / 2
	edges := make([]format.Edge, 0, m)
	for range m {
		u := uint32(r.zipfLocked(int(n), s))
		v := uint32(r.rand.Intn(int(n)))
		if u == v {
			continue
		}
		edges = append(edges, format.Edge{Src: u, Dst: v, Weight: 1})
	}
	r.mu.Unlock()
	return build(edges, format.BuildOptions{NumVertices: n, Undirected: true, Dedup: true})
}

// WriteDataset stores g as dataset name partitioned for blockSize.
func WriteDataset(tb testing.TB, store blobstore.BlobStore, name string, g *format.Graph, blockSize int64) *format.Layout {
	tb.Helper()
	layout, err := format.Write(context.Background(), store, name, g, format.WriteOptions{
		BlockSize:       blockSize,
		ExpectedLengths: true,
		MaxExpected:     16,
	})
	require.NoError(tb, err)
	return layout
}
