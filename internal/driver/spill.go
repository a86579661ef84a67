package driver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/hupe1980/graphwalk/blobstore"
	"github.com/hupe1980/graphwalk/internal/format"
	"github.com/hupe1980/graphwalk/internal/resource"
	"github.com/hupe1980/graphwalk/model"
	"github.com/hupe1980/graphwalk/walkstore"
)

// SpillOptions configures a SpillStore.
type SpillOptions struct {
	Codec    walkstore.Codec
	Logger   *slog.Logger
	Resource *resource.Controller
	// Sync forces spilled frames to durable storage before Append returns.
	Sync bool
}

// SpillOption configures a SpillStore.
type SpillOption func(*SpillOptions)

// WithSpillCodec sets the frame compression.
func WithSpillCodec(c walkstore.Codec) SpillOption {
	return func(o *SpillOptions) { o.Codec = c }
}

// WithSpillLogger sets the logger.
func WithSpillLogger(l *slog.Logger) SpillOption {
	return func(o *SpillOptions) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithSpillResource rate limits spill IO.
func WithSpillResource(rc *resource.Controller) SpillOption {
	return func(o *SpillOptions) { o.Resource = rc }
}

// WithSpillSync syncs every spilled blob.
func WithSpillSync() SpillOption {
	return func(o *SpillOptions) { o.Sync = true }
}

// SpillStore keeps spilled walkers as blobs named walks/<bucket>/<seq>.walk.
// Each Append writes one blob holding one frame.
type SpillStore struct {
	store blobstore.BlobStore
	opts  SpillOptions

	mu  sync.Mutex
	seq map[int]uint64
}

var _ walkstore.Store = (*SpillStore)(nil)

// NewSpillStore creates a spill store on store. Leftover frames from an
// earlier run are deleted.
func NewSpillStore(ctx context.Context, store blobstore.BlobStore, opts ...SpillOption) (*SpillStore, error) {
	o := SpillOptions{Codec: walkstore.CodecLZ4, Logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	stale, err := store.List(ctx, format.WalkPrefix)
	if err != nil {
		return nil, fmt.Errorf("driver: list spill: %w", err)
	}
	for _, name := range stale {
		if err := store.Delete(ctx, name); err != nil {
			return nil, fmt.Errorf("driver: delete stale %s: %w", name, err)
		}
	}
	if len(stale) > 0 {
		o.Logger.Debug("removed stale spill frames", "count", len(stale))
	}

	return &SpillStore{store: store, opts: o, seq: make(map[int]uint64)}, nil
}

func (s *SpillStore) next(bucket int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.seq[bucket]
	s.seq[bucket] = n + 1
	return n
}

// Append writes walkers as a new frame blob of bucket.
func (s *SpillStore) Append(ctx context.Context, bucket int, walkers []model.Walker) error {
	if len(walkers) == 0 {
		return nil
	}
	frame, err := walkstore.AppendFrame(nil, walkers, s.opts.Codec)
	if err != nil {
		return err
	}

	name := format.WalkName(bucket, s.next(bucket))
	w, err := s.store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("driver: spill %s: %w", name, err)
	}
	rw := resource.NewRateLimitedWriter(ctx, w, s.opts.Resource)
	if _, err := rw.Write(frame); err != nil {
		_ = w.Close()
		return fmt.Errorf("driver: spill %s: %w", name, err)
	}
	if s.opts.Sync {
		if err := w.Sync(); err != nil {
			_ = w.Close()
			return fmt.Errorf("driver: sync %s: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("driver: spill %s: %w", name, err)
	}

	s.opts.Logger.Debug("spilled walkers", "bucket", bucket, "walkers", len(walkers), "bytes", len(frame), "codec", s.opts.Codec)
	return nil
}

// Drain reads every frame of bucket in spill order and deletes them.
func (s *SpillStore) Drain(ctx context.Context, bucket int, dst []model.Walker) ([]model.Walker, error) {
	names, err := s.store.List(ctx, format.WalkBucketPrefix(bucket))
	if err != nil {
		return dst, fmt.Errorf("driver: list bucket %d: %w", bucket, err)
	}
	for _, name := range names {
		data, err := s.readFrame(ctx, name)
		if err != nil {
			return dst, fmt.Errorf("driver: read %s: %w", name, err)
		}
		if dst, err = walkstore.DecodeFrames(dst, data); err != nil {
			return dst, fmt.Errorf("driver: %s: %w", name, err)
		}
		if err := s.store.Delete(ctx, name); err != nil {
			return dst, fmt.Errorf("driver: delete %s: %w", name, err)
		}
	}
	return dst, nil
}

func (s *SpillStore) readFrame(ctx context.Context, name string) ([]byte, error) {
	b, err := s.store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = b.Close() }()

	rc, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	return io.ReadAll(resource.NewRateLimitedReader(ctx, rc, s.opts.Resource))
}

// Close does nothing; spilled frames stay until drained.
func (s *SpillStore) Close() error { return nil }
