package graphwalk

import (
	"log/slog"
	"time"

	"github.com/hupe1980/graphwalk/blobstore"
	"github.com/hupe1980/graphwalk/internal/sample"
	"github.com/hupe1980/graphwalk/internal/schedule"
	"github.com/hupe1980/graphwalk/walkstore"
)

const (
	// DefaultBlockSize is the partition block size in bytes.
	DefaultBlockSize int64 = 1 << 20
	// DefaultCacheMemory is the memory budget for cache slots.
	DefaultCacheMemory int64 = 64 << 20
	// DefaultRemoteCacheBlockSize is the page size of the remote read cache.
	DefaultRemoteCacheBlockSize int64 = 64 << 10
)

// SamplerKind selects how a walker's next vertex is drawn.
type SamplerKind = sample.Kind

const (
	SamplerNaive  = sample.Naive
	SamplerITS    = sample.ITS
	SamplerAlias  = sample.Alias
	SamplerReject = sample.Reject
)

// ParseSampler parses a sampler name ("naive", "its", "alias", "reject").
func ParseSampler(s string) (SamplerKind, error) {
	k, err := sample.ParseKind(s)
	return k, translateError(err)
}

// SchedulerKind selects how blocks are chosen for a round.
type SchedulerKind = schedule.Kind

const (
	SchedulerGreedy    = schedule.Greedy
	SchedulerAnnealing = schedule.Annealing
	SchedulerLP        = schedule.LP
)

// ParseScheduler parses a scheduler name ("greedy", "annealing", "lp").
func ParseScheduler(s string) (SchedulerKind, error) {
	k, err := schedule.ParseKind(s)
	return k, translateError(err)
}

type options struct {
	store            blobstore.BlobStore
	blockSize        int64
	cacheMemory      int64
	cacheSlots       int
	threads          int
	sampler          SamplerKind
	scheduler        SchedulerKind
	seed             uint64
	maxIter          int
	lpBudget         time.Duration
	expectedLength   bool
	spillThreshold   int
	spillStore       walkstore.Store
	spillCodec       walkstore.Codec
	ioLimit          int64
	remoteCache      int64
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Open.
type Option func(*options)

// WithBlobStore sets the store holding the dataset.
//
// Without it, the dataset name is resolved as a path on the local file system.
func WithBlobStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithBlockSize selects the partition to use. Partition files written for
// this size are read when present; otherwise the partition is computed from
// the vertex offsets.
func WithBlockSize(bytes int64) Option {
	return func(o *options) {
		o.blockSize = bytes
	}
}

// WithCacheMemory sets the memory budget for cache slots. The number of slots
// is the budget divided by the size of the largest block.
func WithCacheMemory(bytes int64) Option {
	return func(o *options) {
		o.cacheMemory = bytes
	}
}

// WithCacheSlots fixes the number of cache slots, overriding WithCacheMemory.
func WithCacheSlots(n int) Option {
	return func(o *options) {
		o.cacheSlots = n
	}
}

// WithThreads sets the number of walker goroutines per bucket.
// If n <= 0, GOMAXPROCS is used.
func WithThreads(n int) Option {
	return func(o *options) {
		o.threads = n
	}
}

// WithSampler selects the vertex sampler.
func WithSampler(k SamplerKind) Option {
	return func(o *options) {
		o.sampler = k
	}
}

// WithScheduler selects the block scheduler.
func WithScheduler(k SchedulerKind) Option {
	return func(o *options) {
		o.scheduler = k
	}
}

// WithSeed seeds every random source of a run. Runs with the same seed, data
// and single thread produce the same walks.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithMaxIter sets the number of swap attempts of the annealing scheduler.
func WithMaxIter(n int) Option {
	return func(o *options) {
		o.maxIter = n
	}
}

// WithLPBudget limits the search time the LP scheduler spends per round.
// When it runs out the best selection found so far is loaded.
func WithLPBudget(d time.Duration) Option {
	return func(o *options) {
		o.lpBudget = d
	}
}

// WithExpectedLength weights scheduler scores by each block's expected walk
// length, when the dataset carries them.
func WithExpectedLength(enabled bool) Option {
	return func(o *options) {
		o.expectedLength = enabled
	}
}

// WithSpill spills buckets holding at least threshold walkers after each
// round. Zero disables spilling.
func WithSpill(threshold int) Option {
	return func(o *options) {
		o.spillThreshold = threshold
	}
}

// WithSpillStore sets where spilled walkers go. Without it, walkers are
// written as frames to the dataset's blob store.
func WithSpillStore(s walkstore.Store) Option {
	return func(o *options) {
		o.spillStore = s
	}
}

// WithSpillCodec sets the frame compression of the default spill store.
func WithSpillCodec(c walkstore.Codec) Option {
	return func(o *options) {
		o.spillCodec = c
	}
}

// WithIOLimit caps block and spill throughput in bytes per second.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithRemoteCache keeps up to bytes of recently read dataset pages in memory.
// Useful when the blob store is remote (S3, MinIO).
func WithRemoteCache(bytes int64) Option {
	return func(o *options) {
		o.remoteCache = bytes
	}
}

// WithMetricsCollector configures a metrics collector for monitoring runs.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &graphwalk.BasicMetricsCollector{}
//	g, _ := graphwalk.Open(ctx, "web", graphwalk.WithMetricsCollector(metrics))
//	// ... g.Run(ctx, walk) ...
//	stats := metrics.GetStats()
//	fmt.Printf("Rounds: %d, Steps: %d\n", stats.RoundCount, stats.Steps)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := graphwalk.NewJSONLogger(slog.LevelInfo)
//	g, _ := graphwalk.Open(ctx, "web", graphwalk.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		blockSize:        DefaultBlockSize,
		cacheMemory:      DefaultCacheMemory,
		sampler:          SamplerITS,
		scheduler:        SchedulerAnnealing,
		maxIter:          schedule.DefaultMaxIter,
		lpBudget:         schedule.DefaultLPBudget,
		spillCodec:       walkstore.CodecLZ4,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
