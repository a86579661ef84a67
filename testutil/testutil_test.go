package testutil

import (
	"testing"

	"github.com/hupe1980/graphwalk/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixtures(t *testing.T) {
	g := Cycle(5)
	require.NoError(t, g.Validate())
	assert.Equal(t, uint32(5), g.NumVertices())
	assert.Equal(t, uint64(10), g.NumEdges())
	assert.Equal(t, []uint32{1, 4}, g.Adjacency(0))

	w := WeightedCycle(5)
	assert.True(t, w.Weighted())
	assert.Equal(t, []float32{2, 5}, w.Weights[w.Offsets[0]:w.Offsets[1]])

	s := Star(4)
	assert.Equal(t, uint64(3), s.Degree(0))
	assert.Equal(t, uint64(1), s.Degree(3))

	assert.Equal(t, uint64(0), Isolated(3).NumEdges())
	assert.Equal(t, uint64(12), Complete(4).NumEdges())
}

func TestRandomGraphs(t *testing.T) {
	rng := NewRNG(4711)

	g := rng.RandomGraph(100, 300, true)
	require.NoError(t, g.Validate())
	assert.True(t, g.Weighted())

	p := rng.PowerLawGraph(200, 6, 1.5)
	require.NoError(t, p.Validate())

	// Vertex 0 is the most likely hub.
	var maxDeg uint64
	for v := range p.NumVertices() {
		maxDeg = max(maxDeg, p.Degree(v))
	}
	assert.Greater(t, p.Degree(0), uint64(10))
	assert.Equal(t, maxDeg, p.Degree(0))
}

func TestWriteDataset(t *testing.T) {
	store := blobstore.NewMemoryStore()
	layout := WriteDataset(t, store, "cycle", Cycle(5), 40)

	assert.Equal(t, 3, layout.NumBlocks())
	assert.Equal(t, []uint32{0, 2, 4, 5}, layout.VertexBounds)
	assert.Len(t, layout.Expected, 3)
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	v1 := rng.Weights(10, 0, 1)

	rng.Reset()
	v2 := rng.Weights(10, 0, 1)

	assert.Equal(t, v1, v2)
}

func TestChiSquare(t *testing.T) {
	weights := []float64{1, 2, 0, 7}

	stat, df := ChiSquare([]int{100, 200, 0, 700}, weights)
	assert.InDelta(t, 0, stat, 1e-12)
	assert.Equal(t, 2, df)
	assert.InDelta(t, 1, ChiSquarePValue([]int{100, 200, 0, 700}, weights), 1e-9)

	assert.Less(t, ChiSquarePValue([]int{500, 200, 0, 300}, weights), 1e-6)

	stat, _ = ChiSquare([]int{1, 2, 1, 7}, weights)
	assert.True(t, stat > 1e300)
}
