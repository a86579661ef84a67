package graphwalk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/hupe1980/graphwalk/blobstore"
	"github.com/hupe1980/graphwalk/internal/app"
	"github.com/hupe1980/graphwalk/internal/blockcache"
	"github.com/hupe1980/graphwalk/internal/cache"
	"github.com/hupe1980/graphwalk/internal/driver"
	"github.com/hupe1980/graphwalk/internal/engine"
	"github.com/hupe1980/graphwalk/internal/format"
	"github.com/hupe1980/graphwalk/internal/partition"
	"github.com/hupe1980/graphwalk/internal/resource"
	"github.com/hupe1980/graphwalk/internal/sample"
	"github.com/hupe1980/graphwalk/internal/schedule"
	"github.com/hupe1980/graphwalk/internal/walk"
	"github.com/hupe1980/graphwalk/model"
)

type (
	VertexID = model.VertexID
	WalkerID = model.WalkerID
	Hop      = model.Hop
	Walker   = model.Walker

	// Stats summarizes a run.
	Stats = engine.Stats

	// Transit holds the callbacks that weight a walker's candidate vertices.
	Transit        = sample.TransitFuncs
	TransitFunc    = sample.TransitFunc
	TransitContext = sample.TransitContext

	// Observer receives every hop and every finished walker. Calls are
	// concurrent.
	Observer = app.Observer
	// Recorder is an Observer that keeps every walker's path in memory.
	Recorder = app.Recorder
)

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return app.NewRecorder() }

// Node2Vec returns the node2vec transition with return parameter p and
// in-out parameter q.
func Node2Vec(p, q float64) (*Transit, error) {
	t, err := app.Node2Vec(p, q)
	return t, translateError(err)
}

// Autoregressive returns the second-order autoregressive transition with
// 0 <= alpha < 1.
func Autoregressive(alpha float64) (*Transit, error) {
	t, err := app.Autoregressive(alpha)
	return t, translateError(err)
}

// Uniform returns a first-order transition: uniform over neighbors, or
// proportional to edge weights on weighted graphs.
func Uniform() *Transit { return app.Uniform() }

// Walk describes one batch of walks.
type Walk struct {
	// WalksPerSource is the number of walkers started at every source.
	WalksPerSource uint32
	// Hops is the number of hops each walker takes.
	Hops Hop
	// Transit weights candidate vertices. Nil means Uniform.
	Transit *Transit
	// Sources restricts the start vertices. Empty means every vertex.
	Sources []VertexID
	// RandomSources, if set, starts that many walkers at uniformly random
	// vertices instead. WalksPerSource is ignored.
	RandomSources uint32
	// StopAtBlockBoundary parks a walker as soon as it leaves its block, even
	// if the next block is resident.
	StopAtBlockBoundary bool
	// Observer receives hops and finished walkers.
	Observer Observer
}

func (w Walk) app(seed uint64) (*app.SecondOrder, error) {
	wps := w.WalksPerSource
	opts := []app.Option{app.WithContinueUpdate(!w.StopAtBlockBoundary)}
	switch {
	case w.RandomSources > 0:
		wps = max(wps, 1)
		opts = append(opts, app.WithSeeder(app.RandomSources(w.RandomSources, seed)))
	case len(w.Sources) > 0:
		opts = append(opts, app.WithSeeder(app.FromSources(w.Sources, w.WalksPerSource)))
	}
	if w.Observer != nil {
		opts = append(opts, app.WithObserver(w.Observer))
	}
	transit := w.Transit
	if transit == nil {
		transit = app.Uniform()
	}
	return app.NewSecondOrder(wps, w.Hops, transit, opts...)
}

// Info describes an opened or converted dataset.
type Info struct {
	Name            string
	Vertices        uint32
	Edges           uint64
	Weighted        bool
	Reordered       bool
	BlockSize       int64
	Blocks          int
	MaxBlockBytes   int64
	ExpectedLengths bool
	// Slots is the number of cache slots; zero for converted datasets.
	Slots int
}

func layoutInfo(name string, blockSize int64, layout *format.Layout, table *partition.Table) Info {
	return Info{
		Name:            name,
		Vertices:        layout.Meta.NVertices,
		Edges:           layout.Meta.NEdges,
		Weighted:        layout.Meta.Weighted,
		Reordered:       layout.Meta.Reordered,
		BlockSize:       blockSize,
		Blocks:          layout.NumBlocks(),
		MaxBlockBytes:   table.MaxBlockBytes(),
		ExpectedLengths: len(layout.Expected) > 0,
	}
}

// Graph is an opened dataset. Runs on one Graph are serialized.
type Graph struct {
	name   string
	opts   options
	logger *Logger

	// base is the store as configured; store may wrap it with a read cache.
	base   blobstore.BlobStore
	store  blobstore.BlobStore
	remote *blockcache.LRUBlockCache
	rc     *resource.Controller
	layout *format.Layout
	table  *partition.Table
	driver *driver.Driver
	cache  *cache.Cache

	mu     sync.Mutex
	closed bool
}

// Open opens the dataset name.
//
// Without WithBlobStore, name is a path: the dataset files live in its
// directory and share its base name.
func Open(ctx context.Context, name string, optFns ...Option) (*Graph, error) {
	o := applyOptions(optFns)
	logger := o.logger.WithDataset(name)

	g, err := open(ctx, name, o, logger)
	if err != nil {
		err = translateError(err)
		logger.LogOpen(ctx, 0, 0, 0, err)
		return nil, err
	}
	logger.LogOpen(ctx, g.table.NumBlocks(), g.cache.Capacity(), g.cache.SlotBytes(), nil)
	return g, nil
}

func open(ctx context.Context, name string, o options, logger *Logger) (*Graph, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty dataset name", ErrInvalidArgument)
	}
	if o.blockSize <= 0 {
		return nil, fmt.Errorf("%w: block size %d", ErrInvalidArgument, o.blockSize)
	}
	if o.cacheSlots <= 0 && o.cacheMemory <= 0 {
		return nil, fmt.Errorf("%w: cache memory %d", ErrInvalidArgument, o.cacheMemory)
	}

	base := o.store
	if base == nil {
		base = blobstore.NewLocalStore(filepath.Dir(name))
		name = filepath.Base(name)
	}

	var limit int64
	if o.cacheSlots <= 0 {
		limit = o.cacheMemory + max(o.remoteCache, 0)
	}
	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   limit,
		IOLimitBytesPerSec: o.ioLimit,
	})

	g := &Graph{name: name, opts: o, logger: logger, base: base, store: base, rc: rc}
	if o.remoteCache > 0 {
		g.remote = blockcache.NewLRUBlockCache(o.remoteCache, rc)
		g.store = blobstore.NewCachingStore(base, g.remote, DefaultRemoteCacheBlockSize)
	}

	layout, err := format.ReadLayout(ctx, g.store, name, o.blockSize)
	if err != nil {
		return nil, g.closeOnError(err)
	}
	table, err := partition.New(layout)
	if err != nil {
		return nil, g.closeOnError(err)
	}
	g.layout, g.table = layout, table

	g.driver, err = driver.Open(ctx, g.store, name, layout.Meta,
		driver.WithLogger(logger.Logger),
		driver.WithResourceController(rc),
	)
	if err != nil {
		return nil, g.closeOnError(err)
	}

	slotBytes := max(table.MaxBlockBytes(), 8)
	slots := o.cacheSlots
	if slots <= 0 {
		slots = int(o.cacheMemory / slotBytes)
	}
	if need := min(2, table.NumBlocks()); slots < need {
		return nil, g.closeOnError(fmt.Errorf("%w: cache holds %d slots of %d bytes, need %d",
			ErrInvalidArgument, slots, slotBytes, need))
	}

	g.cache, err = cache.New(table, slots, slotBytes, g.driver, rc, cache.WithLogger(logger.Logger))
	if err != nil {
		return nil, g.closeOnError(err)
	}
	return g, nil
}

func (g *Graph) closeOnError(err error) error {
	return errors.Join(err, g.release())
}

// Info describes the dataset.
func (g *Graph) Info() Info {
	info := layoutInfo(g.name, g.opts.blockSize, g.layout, g.table)
	info.Slots = g.cache.Capacity()
	return info
}

// Run starts the walkers described by w and moves them until every walker
// has taken w.Hops hops.
func (g *Graph) Run(ctx context.Context, w Walk) (Stats, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return Stats{}, ErrClosed
	}

	stats, err := g.run(ctx, w)
	err = translateError(err)
	g.logger.LogRun(ctx, stats, err)
	return stats, err
}

func (g *Graph) run(ctx context.Context, w Walk) (Stats, error) {
	a, err := w.app(g.opts.seed)
	if err != nil {
		return Stats{}, err
	}

	walkOpts := []walk.Option{
		walk.WithLogger(g.logger.Logger),
		walk.WithResourceController(g.rc),
	}
	if g.opts.spillThreshold > 0 {
		spill := g.opts.spillStore
		if spill == nil {
			ss, err := driver.NewSpillStore(ctx, g.base,
				driver.WithSpillCodec(g.opts.spillCodec),
				driver.WithSpillLogger(g.logger.Logger),
				driver.WithSpillResource(g.rc),
			)
			if err != nil {
				return Stats{}, err
			}
			defer ss.Close()
			spill = ss
		}
		walkOpts = append(walkOpts,
			walk.WithSpillStore(spill),
			walk.WithSpillThreshold(g.opts.spillThreshold),
		)
	}
	walks := walk.NewManager(g.table, walkOpts...)

	sched, err := schedule.New(g.opts.scheduler, g.cache, walks,
		schedule.WithLogger(g.logger.Logger),
		schedule.WithSeed(g.opts.seed),
		schedule.WithMaxIter(g.opts.maxIter),
		schedule.WithLPBudget(g.opts.lpBudget),
		schedule.WithExpectedLength(g.opts.expectedLength),
	)
	if err != nil {
		return Stats{}, err
	}
	s, err := sample.New(g.opts.sampler)
	if err != nil {
		return Stats{}, err
	}

	e := engine.New(g.cache, walks, sched, s,
		engine.WithLogger(g.logger.Logger),
		engine.WithThreads(g.opts.threads),
		engine.WithSeed(g.opts.seed),
		engine.WithMetricsObserver(metricsObserver{mc: g.opts.metricsCollector}),
	)
	if _, err := e.Prologue(ctx, a); err != nil {
		return Stats{}, err
	}
	return e.Run(ctx, a)
}

// Close releases the cache and the dataset handles. It is safe to call more
// than once.
func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true
	return g.release()
}

func (g *Graph) release() error {
	var errs []error
	if g.cache != nil {
		errs = append(errs, g.cache.Close())
	}
	if g.driver != nil {
		errs = append(errs, g.driver.Close())
	}
	if g.remote != nil {
		errs = append(errs, g.remote.Close())
	}
	return errors.Join(errs...)
}

// ConvertOptions configures Convert.
type ConvertOptions struct {
	// BlockSize is the partition block size. Zero means DefaultBlockSize.
	BlockSize int64
	// NumVertices fixes the vertex count. Zero derives it from the largest id.
	NumVertices uint32
	// Undirected adds the reverse of every edge.
	Undirected bool
	// Weighted keeps the third column as edge weight.
	Weighted bool
	// Dedup drops repeated edges.
	Dedup bool
	// Reordered marks vertex ids as locality-ordered.
	Reordered bool
	// ExpectedLengths also stores per-block expected walk lengths.
	ExpectedLengths bool
}

// Convert reads a text edge list ("src dst [weight]" per line) and writes it
// as a dataset named name to store.
func Convert(ctx context.Context, store blobstore.BlobStore, name string, r io.Reader, opts ConvertOptions) (Info, error) {
	if opts.BlockSize == 0 {
		opts.BlockSize = DefaultBlockSize
	}

	edges, err := format.ReadEdgeList(r)
	if err != nil {
		return Info{}, translateError(err)
	}
	g, err := format.BuildGraph(edges, format.BuildOptions{
		NumVertices: opts.NumVertices,
		Undirected:  opts.Undirected,
		Weighted:    opts.Weighted,
		Dedup:       opts.Dedup,
	})
	if err != nil {
		return Info{}, translateError(err)
	}
	layout, err := format.Write(ctx, store, name, g, format.WriteOptions{
		BlockSize:       opts.BlockSize,
		Reordered:       opts.Reordered,
		ExpectedLengths: opts.ExpectedLengths,
	})
	if err != nil {
		return Info{}, translateError(err)
	}
	table, err := partition.New(layout)
	if err != nil {
		return Info{}, translateError(err)
	}
	return layoutInfo(name, opts.BlockSize, layout, table), nil
}
