package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/hupe1980/graphwalk/blobstore"
	"github.com/hupe1980/graphwalk/internal/cache"
	"github.com/hupe1980/graphwalk/internal/format"
	"github.com/hupe1980/graphwalk/internal/partition"
	"github.com/hupe1980/graphwalk/internal/resource"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("driver: closed")

// Options configures a Driver.
type Options struct {
	Logger   *slog.Logger
	Resource *resource.Controller
}

// Option configures a Driver.
type Option func(*Options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithResourceController rate limits block reads.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *Options) { o.Resource = rc }
}

// Driver reads blocks of one dataset.
type Driver struct {
	meta      format.Meta
	offsets   blobstore.Blob
	neighbors blobstore.Blob
	weights   blobstore.Blob
	opts      Options

	scratch   []byte
	bytesRead atomic.Int64
	closed    atomic.Bool
}

var _ cache.Loader = (*Driver)(nil)

// Open opens the data files of dataset name.
func Open(ctx context.Context, store blobstore.BlobStore, name string, meta format.Meta, opts ...Option) (*Driver, error) {
	o := Options{Logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Driver{meta: meta, opts: o}

	var err error
	if d.offsets, err = openChecked(ctx, store, format.OffsetsName(name), (int64(meta.NVertices)+1)*8); err != nil {
		return nil, err
	}
	if d.neighbors, err = openChecked(ctx, store, format.NeighborsName(name), int64(meta.NEdges)*4); err != nil {
		_ = d.Close()
		return nil, err
	}
	if meta.Weighted {
		if d.weights, err = openChecked(ctx, store, format.WeightsName(name), int64(meta.NEdges)*4); err != nil {
			_ = d.Close()
			return nil, err
		}
	}
	return d, nil
}

func openChecked(ctx context.Context, store blobstore.BlobStore, name string, size int64) (blobstore.Blob, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("driver: open %s: %w", name, err)
	}
	if b.Size() != size {
		_ = b.Close()
		return nil, fmt.Errorf("%w: %s is %d bytes, want %d", format.ErrCorrupt, name, b.Size(), size)
	}
	return b, nil
}

// BytesRead returns the number of bytes read from storage.
func (d *Driver) BytesRead() int64 { return d.bytesRead.Load() }

// LoadBlock reads blk into dst, reusing dst's buffers.
//
// LoadBlock is called only from the single-threaded reschedule phase.
func (d *Driver) LoadBlock(ctx context.Context, blk *partition.Block, dst *cache.Slot) error {
	if d.closed.Load() {
		return ErrClosed
	}

	buf, err := d.read(ctx, d.offsets, int64(blk.StartVertex)*8, (int64(blk.NumVertices)+1)*8)
	if err != nil {
		return fmt.Errorf("driver: block %d offsets: %w", blk.ID, err)
	}
	dst.Offsets = format.DecodeUint64s(dst.Offsets, buf)

	buf, err = d.read(ctx, d.neighbors, int64(blk.StartEdge)*4, int64(blk.NumEdges)*4)
	if err != nil {
		return fmt.Errorf("driver: block %d neighbors: %w", blk.ID, err)
	}
	dst.Edges = format.DecodeUint32s(dst.Edges, buf)

	dst.EdgeWeights = dst.EdgeWeights[:0]
	if d.weights != nil {
		buf, err = d.read(ctx, d.weights, int64(blk.StartEdge)*4, int64(blk.NumEdges)*4)
		if err != nil {
			return fmt.Errorf("driver: block %d weights: %w", blk.ID, err)
		}
		dst.EdgeWeights = format.DecodeFloat32s(dst.EdgeWeights, buf)
	}

	if n := len(dst.Offsets); n > 0 && dst.Offsets[0] != uint64(blk.StartEdge) {
		return fmt.Errorf("%w: block %d starts at edge %d, offsets say %d", format.ErrCorrupt, blk.ID, blk.StartEdge, dst.Offsets[0])
	}
	return nil
}

// read returns length bytes at off. Mapped blobs are sliced without a copy;
// other blobs are read into a scratch buffer valid until the next call.
func (d *Driver) read(ctx context.Context, b blobstore.Blob, off, length int64) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	if off+length > b.Size() {
		return nil, fmt.Errorf("%w: range [%d,%d) beyond %d bytes", format.ErrCorrupt, off, off+length, b.Size())
	}
	if err := d.opts.Resource.AcquireIO(ctx, int(length)); err != nil {
		return nil, err
	}
	d.bytesRead.Add(length)

	if m, ok := b.(blobstore.Mappable); ok {
		data, err := m.Bytes()
		if err == nil {
			return data[off : off+length], nil
		}
	}

	if int64(cap(d.scratch)) < length {
		d.scratch = make([]byte, length)
	}
	buf := d.scratch[:length]
	if err := blobstore.ReadFull(ctx, b, buf, off); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close releases the data files.
func (d *Driver) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	var errs []error
	for _, b := range []blobstore.Blob{d.offsets, d.neighbors, d.weights} {
		if b != nil {
			errs = append(errs, b.Close())
		}
	}
	return errors.Join(errs...)
}
