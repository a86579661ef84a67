package format

import (
	"context"
	"fmt"

	"github.com/hupe1980/graphwalk/blobstore"
)

// WriteOptions configures Write.
type WriteOptions struct {
	// BlockSize is the partition block size in bytes.
	BlockSize int64
	// Reordered marks vertex ids as locality-reordered.
	Reordered bool
	// ExpectedLengths also writes per-block expected walk lengths, capped at MaxExpected.
	ExpectedLengths bool
	MaxExpected     float32
}

// Layout describes a written dataset.
type Layout struct {
	Meta         Meta
	VertexBounds []uint32
	EdgeBounds   []uint64
	Expected     []float32
}

// NumBlocks returns the number of partition blocks.
func (l *Layout) NumBlocks() int {
	return max(len(l.VertexBounds)-1, 0)
}

// Write stores g as dataset name, partitioned for opts.BlockSize.
func Write(ctx context.Context, store blobstore.BlobStore, name string, g *Graph, opts WriteOptions) (*Layout, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if opts.BlockSize <= 0 {
		return nil, fmt.Errorf("%w: block size %d", ErrInvalidGraph, opts.BlockSize)
	}

	vblk, eblk, err := Partition(g.Offsets, g.Weighted(), opts.BlockSize)
	if err != nil {
		return nil, err
	}

	layout := &Layout{
		Meta: Meta{
			Version:   Version,
			Weighted:  g.Weighted(),
			Reordered: opts.Reordered,
			NVertices: g.NumVertices(),
			NEdges:    g.NumEdges(),
		},
		VertexBounds: vblk,
		EdgeBounds:   eblk,
	}

	if err := writeStream(ctx, store, OffsetsName(name), AppendUint64s(nil, g.Offsets)); err != nil {
		return nil, err
	}
	if err := writeStream(ctx, store, NeighborsName(name), AppendUint32s(nil, g.Neighbors)); err != nil {
		return nil, err
	}
	if g.Weighted() {
		if err := writeStream(ctx, store, WeightsName(name), AppendFloat32s(nil, g.Weights)); err != nil {
			return nil, err
		}
	}

	if err := store.Put(ctx, VertexBoundsName(name, opts.BlockSize), AppendUint32s(nil, vblk)); err != nil {
		return nil, err
	}
	if err := store.Put(ctx, EdgeBoundsName(name, opts.BlockSize), AppendUint64s(nil, eblk)); err != nil {
		return nil, err
	}
	if opts.ExpectedLengths {
		maxLen := opts.MaxExpected
		if maxLen <= 0 {
			maxLen = 1000
		}
		layout.Expected = ExpectedLengths(g, vblk, maxLen)
		if err := store.Put(ctx, ExpectedLengthName(name, opts.BlockSize), AppendFloat32s(nil, layout.Expected)); err != nil {
			return nil, err
		}
	}

	// The meta record goes last: its presence marks a complete dataset.
	meta, _ := layout.Meta.MarshalBinary()
	if err := store.Put(ctx, MetaName(name), meta); err != nil {
		return nil, err
	}
	return layout, nil
}

// WritePartition stores the partition files of an existing dataset for another block size.
func WritePartition(ctx context.Context, store blobstore.BlobStore, name string, blockSize int64, vblk []uint32, eblk []uint64) error {
	if err := store.Put(ctx, VertexBoundsName(name, blockSize), AppendUint32s(nil, vblk)); err != nil {
		return err
	}
	return store.Put(ctx, EdgeBoundsName(name, blockSize), AppendUint64s(nil, eblk))
}

func writeStream(ctx context.Context, store blobstore.BlobStore, name string, data []byte) error {
	w, err := store.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	return nil
}
