// Package partition holds the static block table of a dataset.
//
// Blocks are contiguous vertex ranges with their induced edge ranges. Each
// block also records which cache slot currently holds it; CacheIndex equals
// Sentinel() when the block is not resident. CacheIndex is written only by the
// cache during the single-threaded reschedule phase.
package partition

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hupe1980/graphwalk/blobstore"
	"github.com/hupe1980/graphwalk/internal/format"
	"github.com/hupe1980/graphwalk/model"
)

// ErrVertexOutOfRange is returned for vertex ids >= NumVertices.
var ErrVertexOutOfRange = errors.New("partition: vertex out of range")

// Block is one partition block.
type Block struct {
	ID          model.BlockID
	StartVertex model.VertexID
	NumVertices uint32
	StartEdge   model.EdgeID
	NumEdges    uint64
	// CacheIndex is the slot holding the block, or the table sentinel.
	CacheIndex uint32
	// Rank orders blocks with equal scheduling scores (lower first).
	Rank uint32
	// ExpWalkLen is the expected number of consecutive hops inside the block.
	ExpWalkLen float32
}

// Contains reports whether v belongs to the block.
func (b *Block) Contains(v model.VertexID) bool {
	return v >= b.StartVertex && uint32(v-b.StartVertex) < b.NumVertices
}

// Bytes returns the size the block occupies in a cache slot.
func (b *Block) Bytes(weighted bool) int64 {
	return format.BlockBytes(b.NumVertices, b.NumEdges, weighted)
}

// Table is the block table of one dataset.
type Table struct {
	blocks    []Block
	bounds    []uint32
	nvertices uint32
	nedges    uint64
	weighted  bool
	reordered bool
}

// New builds a table from a dataset layout.
func New(layout *format.Layout) (*Table, error) {
	nb := layout.NumBlocks()
	if nb == 0 {
		return nil, fmt.Errorf("partition: dataset has no vertices")
	}
	if layout.Expected != nil && len(layout.Expected) != nb {
		return nil, fmt.Errorf("partition: %d expected lengths for %d blocks", len(layout.Expected), nb)
	}

	t := &Table{
		blocks:    make([]Block, nb),
		bounds:    layout.VertexBounds,
		nvertices: layout.Meta.NVertices,
		nedges:    layout.Meta.NEdges,
		weighted:  layout.Meta.Weighted,
		reordered: layout.Meta.Reordered,
	}
	for i := range t.blocks {
		b := &t.blocks[i]
		b.ID = model.BlockID(i)
		b.StartVertex = model.VertexID(layout.VertexBounds[i])
		b.NumVertices = layout.VertexBounds[i+1] - layout.VertexBounds[i]
		b.StartEdge = model.EdgeID(layout.EdgeBounds[i])
		b.NumEdges = layout.EdgeBounds[i+1] - layout.EdgeBounds[i]
		b.CacheIndex = uint32(nb)
		b.Rank = uint32(i)
		b.ExpWalkLen = 1
		if layout.Expected != nil {
			b.ExpWalkLen = layout.Expected[i]
		}
	}
	return t, nil
}

// Load reads the layout of dataset name for blockSize and builds its table.
func Load(ctx context.Context, store blobstore.BlobStore, name string, blockSize int64) (*Table, error) {
	layout, err := format.ReadLayout(ctx, store, name, blockSize)
	if err != nil {
		return nil, err
	}
	return New(layout)
}

// NumBlocks returns the number of blocks.
func (t *Table) NumBlocks() int { return len(t.blocks) }

// NumVertices returns the number of vertices in the graph.
func (t *Table) NumVertices() uint32 { return t.nvertices }

// NumEdges returns the number of edges in the graph.
func (t *Table) NumEdges() uint64 { return t.nedges }

// Weighted reports whether blocks carry edge weights.
func (t *Table) Weighted() bool { return t.weighted }

// Reordered reports whether vertex ids were reordered for locality.
func (t *Table) Reordered() bool { return t.reordered }

// Sentinel is the CacheIndex of blocks that are not resident.
func (t *Table) Sentinel() uint32 { return uint32(len(t.blocks)) }

// Block returns a pointer to block id. It panics for ids out of range.
func (t *Table) Block(id model.BlockID) *Block { return &t.blocks[id] }

// BlockOf returns the block containing v.
func (t *Table) BlockOf(v model.VertexID) model.BlockID {
	// bounds[i] <= v < bounds[i+1]
	i := sort.Search(len(t.bounds), func(i int) bool { return t.bounds[i] > uint32(v) })
	return model.BlockID(i - 1)
}

// Lookup is BlockOf with a range check.
func (t *Table) Lookup(v model.VertexID) (model.BlockID, error) {
	if uint32(v) >= t.nvertices {
		return 0, fmt.Errorf("%w: %d >= %d", ErrVertexOutOfRange, v, t.nvertices)
	}
	return t.BlockOf(v), nil
}

// Resident reports whether block id occupies a cache slot.
func (t *Table) Resident(id model.BlockID) bool {
	return t.blocks[id].CacheIndex != t.Sentinel()
}

// MaxBlockBytes returns the slot size needed by the largest block.
func (t *Table) MaxBlockBytes() int64 {
	var m int64
	for i := range t.blocks {
		m = max(m, t.blocks[i].Bytes(t.weighted))
	}
	return m
}

// ResetCache marks every block as not resident.
func (t *Table) ResetCache() {
	for i := range t.blocks {
		t.blocks[i].CacheIndex = t.Sentinel()
	}
}
