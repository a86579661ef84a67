// Package walk owns the pending walkers of a run.
//
// Walkers are kept per bucket, the (previous block, current block) pair of the
// walker. The bucket matrix counts are updated atomically by MoveWalk, which
// is called concurrently by the engine workers. Pull and Spill are called from
// the single-threaded reschedule phase.
package walk

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/graphwalk/internal/partition"
	"github.com/hupe1980/graphwalk/internal/resource"
	"github.com/hupe1980/graphwalk/model"
	"github.com/hupe1980/graphwalk/walkstore"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidWalker is returned for walkers with out of range vertices.
	ErrInvalidWalker = errors.New("walk: invalid walker")
	// ErrInconsistent is returned by Validate when counts disagree.
	ErrInconsistent = errors.New("walk: inconsistent bucket counts")
)

// DefaultSpillThreshold is the in-memory walker count above which a bucket is
// spilled when a spill store is configured.
const DefaultSpillThreshold = 1 << 20

// Options configures a Manager.
type Options struct {
	Logger *slog.Logger
	// Store receives spilled walkers. Nil disables spilling.
	Store walkstore.Store
	// SpillThreshold is the per-bucket in-memory walker count that triggers a spill.
	SpillThreshold int
	// Resource bounds concurrent spill writers.
	Resource *resource.Controller
}

// Option configures a Manager.
type Option func(*Options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithSpillStore enables spilling to s.
func WithSpillStore(s walkstore.Store) Option {
	return func(o *Options) { o.Store = s }
}

// WithSpillThreshold sets the per-bucket spill threshold.
func WithSpillThreshold(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.SpillThreshold = n
		}
	}
}

// WithResourceController bounds spill concurrency by the controller's
// background worker slots.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *Options) { o.Resource = rc }
}

type bucket struct {
	mu      sync.Mutex
	walkers []model.Walker
	spilled int
}

// Manager tracks pending walkers and the bucket matrix.
type Manager struct {
	table   *partition.Table
	nblocks int
	opts    Options

	buckets []bucket
	counts  []atomic.Int64
	total   atomic.Int64

	maxHop    []model.Hop
	watermark []atomic.Uint32
}

// NewManager creates an empty manager for the blocks of table.
func NewManager(table *partition.Table, opts ...Option) *Manager {
	o := Options{
		Logger:         slog.New(slog.DiscardHandler),
		SpillThreshold: DefaultSpillThreshold,
	}
	for _, opt := range opts {
		opt(&o)
	}

	n := table.NumBlocks()
	return &Manager{
		table:     table,
		nblocks:   n,
		opts:      o,
		buckets:   make([]bucket, n*n),
		counts:    make([]atomic.Int64, n*n),
		maxHop:    make([]model.Hop, n),
		watermark: make([]atomic.Uint32, n),
	}
}

// Table returns the partition table.
func (m *Manager) Table() *partition.Table { return m.table }

// NumBlocks returns the number of blocks.
func (m *Manager) NumBlocks() int { return m.nblocks }

// BucketOf returns the bucket of w.
func (m *Manager) BucketOf(w model.Walker) model.Bucket {
	return model.Bucket{Prev: m.table.BlockOf(w.Previous), Cur: m.table.BlockOf(w.Current)}
}

// MoveWalk adds w to the bucket of its previous and current vertex.
// It is safe for concurrent use.
func (m *Manager) MoveWalk(w model.Walker) error {
	if n := m.table.NumVertices(); uint32(w.Current) >= n || uint32(w.Previous) >= n {
		return fmt.Errorf("%w: %s with %d vertices", ErrInvalidWalker, w, n)
	}
	idx := m.BucketOf(w).Index(m.nblocks)

	b := &m.buckets[idx]
	b.mu.Lock()
	b.walkers = append(b.walkers, w)
	b.mu.Unlock()

	m.counts[idx].Add(1)
	m.total.Add(1)
	return nil
}

// Pull removes and returns every walker of bucket b, including spilled ones.
func (m *Manager) Pull(ctx context.Context, b model.Bucket) ([]model.Walker, error) {
	idx := b.Index(m.nblocks)
	bk := &m.buckets[idx]

	bk.mu.Lock()
	ws, spilled := bk.walkers, bk.spilled
	bk.walkers, bk.spilled = nil, 0
	bk.mu.Unlock()

	if spilled > 0 {
		inMemory := len(ws)
		var err error
		ws, err = m.opts.Store.Drain(ctx, idx, ws)
		if err != nil {
			return nil, fmt.Errorf("walk: restore bucket %s: %w", b, err)
		}
		if got := len(ws) - inMemory; got != spilled {
			return nil, fmt.Errorf("%w: bucket %s restored %d of %d spilled walkers", ErrInconsistent, b, got, spilled)
		}
	}

	m.counts[idx].Add(-int64(len(ws)))
	m.total.Add(-int64(len(ws)))
	return ws, nil
}

// NBlockWalks returns the pending walker count of a bucket index.
func (m *Manager) NBlockWalks(idx int) int64 {
	return m.counts[idx].Load()
}

// Count returns the pending walker count of b.
func (m *Manager) Count(b model.Bucket) int64 {
	return m.counts[b.Index(m.nblocks)].Load()
}

// Total returns the number of pending walkers.
func (m *Manager) Total() int64 { return m.total.Load() }

// Counts returns a snapshot of the bucket matrix, indexed by Bucket.Index.
func (m *Manager) Counts() []int64 {
	out := make([]int64, len(m.counts))
	for i := range m.counts {
		out[i] = m.counts[i].Load()
	}
	return out
}

// SetMaxHop sets the hop budget of walkers whose current vertex is in blk.
func (m *Manager) SetMaxHop(blk model.BlockID, hops model.Hop) {
	m.maxHop[blk] = hops
}

// MaxHop returns the hop budget of blk.
func (m *Manager) MaxHop(blk model.BlockID) model.Hop {
	return m.maxHop[blk]
}

// SetWalkerMaxHop records w's hop in the watermark of its current block.
// It is safe for concurrent use.
func (m *Manager) SetWalkerMaxHop(w model.Walker) {
	wm := &m.watermark[m.table.BlockOf(w.Current)]
	for {
		old := wm.Load()
		if uint32(w.Hop) <= old || wm.CompareAndSwap(old, uint32(w.Hop)) {
			return
		}
	}
}

// HopWatermark returns the largest hop recorded for blk.
func (m *Manager) HopWatermark(blk model.BlockID) model.Hop {
	return model.Hop(m.watermark[blk].Load())
}

// CacheDrained reports whether every bucket touching a resident block is empty.
func (m *Manager) CacheDrained(resident []model.BlockID) bool {
	for _, r := range resident {
		for o := range m.nblocks {
			if m.Count(model.Bucket{Prev: r, Cur: model.BlockID(o)}) > 0 ||
				m.Count(model.Bucket{Prev: model.BlockID(o), Cur: r}) > 0 {
				return false
			}
		}
	}
	return true
}

// InMemory returns the number of walkers held in memory.
func (m *Manager) InMemory() int64 {
	var n int64
	for i := range m.buckets {
		b := &m.buckets[i]
		b.mu.Lock()
		n += int64(len(b.walkers))
		b.mu.Unlock()
	}
	return n
}

// Spill writes the in-memory walkers of every bucket above the spill
// threshold to the spill store and returns how many were written. Counts are
// unchanged; spilled walkers are returned by the next Pull.
func (m *Manager) Spill(ctx context.Context) (int, error) {
	if m.opts.Store == nil {
		return 0, nil
	}

	var spilled atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for idx := range m.buckets {
		bk := &m.buckets[idx]
		bk.mu.Lock()
		n := len(bk.walkers)
		bk.mu.Unlock()
		if n < m.opts.SpillThreshold {
			continue
		}

		if err := m.opts.Resource.AcquireBackground(gctx); err != nil {
			break
		}
		bk.mu.Lock()
		ws := bk.walkers
		bk.walkers = nil
		bk.spilled += len(ws)
		bk.mu.Unlock()

		g.Go(func() error {
			defer m.opts.Resource.ReleaseBackground()
			if err := m.opts.Store.Append(gctx, idx, ws); err != nil {
				return fmt.Errorf("walk: spill bucket %s: %w", model.BucketAt(idx, m.nblocks), err)
			}
			spilled.Add(int64(len(ws)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(spilled.Load()), err
	}
	if err := ctx.Err(); err != nil {
		return int(spilled.Load()), err
	}

	if n := spilled.Load(); n > 0 {
		m.opts.Logger.Debug("spilled walkers", "walkers", n)
	}
	return int(spilled.Load()), nil
}

// Validate checks that the matrix sum equals Total and that every bucket
// count matches the walkers it holds.
func (m *Manager) Validate() error {
	var sum int64
	for idx := range m.buckets {
		c := m.counts[idx].Load()
		bk := &m.buckets[idx]
		bk.mu.Lock()
		held := int64(len(bk.walkers) + bk.spilled)
		bk.mu.Unlock()
		if c != held {
			return fmt.Errorf("%w: bucket %s counts %d, holds %d", ErrInconsistent, model.BucketAt(idx, m.nblocks), c, held)
		}
		sum += c
	}
	if total := m.total.Load(); sum != total {
		return fmt.Errorf("%w: matrix sum %d, total %d", ErrInconsistent, sum, total)
	}
	return nil
}

// All iterates over the in-memory walkers. It must not run concurrently
// with MoveWalk.
func (m *Manager) All() iter.Seq[model.Walker] {
	return func(yield func(model.Walker) bool) {
		for i := range m.buckets {
			for _, w := range m.buckets[i].walkers {
				if !yield(w) {
					return
				}
			}
		}
	}
}
