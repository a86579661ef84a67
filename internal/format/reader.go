package format

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/graphwalk/blobstore"
)

// ReadMeta reads and validates the meta record of a dataset.
func ReadMeta(ctx context.Context, store blobstore.BlobStore, name string) (Meta, error) {
	buf, err := blobstore.ReadAll(ctx, store, MetaName(name))
	if err != nil {
		return Meta{}, fmt.Errorf("read %s: %w", MetaName(name), err)
	}
	var m Meta
	if err := m.UnmarshalBinary(buf); err != nil {
		return Meta{}, err
	}
	return m, nil
}

// ReadOffsets reads the whole offsets file.
func ReadOffsets(ctx context.Context, store blobstore.BlobStore, name string, meta Meta) ([]uint64, error) {
	buf, err := blobstore.ReadAll(ctx, store, OffsetsName(name))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", OffsetsName(name), err)
	}
	if want := (int(meta.NVertices) + 1) * 8; len(buf) != want {
		return nil, fmt.Errorf("%w: %s is %d bytes, want %d", ErrCorrupt, OffsetsName(name), len(buf), want)
	}
	return DecodeUint64s[uint64](nil, buf), nil
}

// ReadLayout reads the partition files for blockSize. When they are missing
// the partition is computed from the offsets file. Expected lengths are
// optional and nil when absent.
func ReadLayout(ctx context.Context, store blobstore.BlobStore, name string, blockSize int64) (*Layout, error) {
	meta, err := ReadMeta(ctx, store, name)
	if err != nil {
		return nil, err
	}
	layout := &Layout{Meta: meta}

	vbuf, err := blobstore.ReadAll(ctx, store, VertexBoundsName(name, blockSize))
	switch {
	case err == nil:
		ebuf, err := blobstore.ReadAll(ctx, store, EdgeBoundsName(name, blockSize))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", EdgeBoundsName(name, blockSize), err)
		}
		layout.VertexBounds = DecodeUint32s[uint32](nil, vbuf)
		layout.EdgeBounds = DecodeUint64s[uint64](nil, ebuf)
	case errors.Is(err, blobstore.ErrNotFound):
		offsets, err := ReadOffsets(ctx, store, name, meta)
		if err != nil {
			return nil, err
		}
		layout.VertexBounds, layout.EdgeBounds, err = Partition(offsets, meta.Weighted, blockSize)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("read %s: %w", VertexBoundsName(name, blockSize), err)
	}

	if err := layout.validate(); err != nil {
		return nil, err
	}

	xbuf, err := blobstore.ReadAll(ctx, store, ExpectedLengthName(name, blockSize))
	switch {
	case err == nil:
		layout.Expected = DecodeFloat32s(nil, xbuf)
		if len(layout.Expected) != layout.NumBlocks() {
			return nil, fmt.Errorf("%w: %d expected lengths for %d blocks", ErrCorrupt, len(layout.Expected), layout.NumBlocks())
		}
	case !errors.Is(err, blobstore.ErrNotFound):
		return nil, fmt.Errorf("read %s: %w", ExpectedLengthName(name, blockSize), err)
	}
	return layout, nil
}

func (l *Layout) validate() error {
	v, e := l.VertexBounds, l.EdgeBounds
	if len(v) == 0 || len(v) != len(e) {
		return fmt.Errorf("%w: %d vertex bounds, %d edge bounds", ErrCorrupt, len(v), len(e))
	}
	if v[0] != 0 || e[0] != 0 {
		return fmt.Errorf("%w: partition must start at 0", ErrCorrupt)
	}
	if v[len(v)-1] != l.Meta.NVertices || e[len(e)-1] != l.Meta.NEdges {
		return fmt.Errorf("%w: partition ends at (%d, %d), graph has (%d, %d)",
			ErrCorrupt, v[len(v)-1], e[len(e)-1], l.Meta.NVertices, l.Meta.NEdges)
	}
	for i := 1; i < len(v); i++ {
		if v[i] <= v[i-1] || e[i] < e[i-1] {
			return fmt.Errorf("%w: partition boundary %d is not increasing", ErrCorrupt, i)
		}
	}
	return nil
}

// ReadGraph loads a whole dataset into memory.
func ReadGraph(ctx context.Context, store blobstore.BlobStore, name string) (*Graph, Meta, error) {
	meta, err := ReadMeta(ctx, store, name)
	if err != nil {
		return nil, Meta{}, err
	}
	offsets, err := ReadOffsets(ctx, store, name, meta)
	if err != nil {
		return nil, Meta{}, err
	}
	nbuf, err := blobstore.ReadAll(ctx, store, NeighborsName(name))
	if err != nil {
		return nil, Meta{}, fmt.Errorf("read %s: %w", NeighborsName(name), err)
	}
	g := &Graph{Offsets: offsets, Neighbors: DecodeUint32s[uint32](nil, nbuf)}
	if meta.Weighted {
		wbuf, err := blobstore.ReadAll(ctx, store, WeightsName(name))
		if err != nil {
			return nil, Meta{}, fmt.Errorf("read %s: %w", WeightsName(name), err)
		}
		g.Weights = DecodeFloat32s(nil, wbuf)
	}
	if g.NumEdges() != meta.NEdges {
		return nil, Meta{}, fmt.Errorf("%w: %d neighbors, meta says %d", ErrCorrupt, g.NumEdges(), meta.NEdges)
	}
	return g, meta, nil
}
