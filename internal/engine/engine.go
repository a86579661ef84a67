package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/hupe1980/graphwalk/internal/app"
	"github.com/hupe1980/graphwalk/internal/cache"
	"github.com/hupe1980/graphwalk/internal/sample"
	"github.com/hupe1980/graphwalk/internal/schedule"
	"github.com/hupe1980/graphwalk/internal/walk"
	"github.com/hupe1980/graphwalk/model"
	"golang.org/x/sync/errgroup"
)

// ErrNoProgress is returned when a round schedules no bucket although
// walkers are pending.
var ErrNoProgress = errors.New("engine: no progress")

// Stats summarizes a run.
type Stats struct {
	Rounds int
	// Steps is the number of hops taken.
	Steps int64
	// BlockLoads is the number of blocks read from storage.
	BlockLoads int
	// BytesLoaded is the number of block bytes read from storage.
	BytesLoaded int64
	// Refreshes counts rounds after which no walker touched a resident block.
	Refreshes int
	// Spilled is the number of walkers written to the spill store.
	Spilled int64
	// Draws is the sampler's candidate draw count.
	Draws    uint64
	Duration time.Duration
}

// Options configures an Engine.
type Options struct {
	Logger  *slog.Logger
	Threads int
	Seed    uint64
	Metrics MetricsObserver
}

// Option configures an Engine.
type Option func(*Options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithThreads sets the number of worker goroutines. Values below one use
// GOMAXPROCS.
func WithThreads(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Threads = n
		}
	}
}

// WithSeed sets the seed of the worker random sources.
func WithSeed(seed uint64) Option {
	return func(o *Options) { o.Seed = seed }
}

// WithMetricsObserver sets the round observer.
func WithMetricsObserver(m MetricsObserver) Option {
	return func(o *Options) {
		if m != nil {
			o.Metrics = m
		}
	}
}

// Engine drives the rounds of a run.
type Engine struct {
	cache   *cache.Cache
	walks   *walk.Manager
	sched   schedule.Scheduler
	sampler sample.Sampler
	opts    Options
}

// New returns an engine over c and walks.
func New(c *cache.Cache, walks *walk.Manager, sched schedule.Scheduler, s sample.Sampler, opts ...Option) *Engine {
	o := Options{
		Logger:  slog.New(slog.DiscardHandler),
		Threads: runtime.GOMAXPROCS(0),
		Metrics: NoopMetricsObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{cache: c, walks: walks, sched: sched, sampler: s, opts: o}
}

// Prologue seeds the walkers of a and sets the hop budget of every block.
func (e *Engine) Prologue(ctx context.Context, a app.App) (int, error) {
	n, err := a.Init(ctx, e.walks)
	if err != nil {
		return n, err
	}
	for b := range e.walks.NumBlocks() {
		e.walks.SetMaxHop(model.BlockID(b), a.MaxHops())
	}
	e.opts.Logger.Info("walkers seeded",
		"walkers", n,
		"hops", a.MaxHops(),
		"blocks", e.walks.NumBlocks(),
	)
	return n, nil
}

// Run processes rounds until no walker is pending.
func (e *Engine) Run(ctx context.Context, a app.App) (Stats, error) {
	var stats Stats
	start := time.Now()
	loads, bytes := e.cache.Loads(), e.cache.LoadedBytes()
	draws := e.sampler.Draws()

	e.opts.Logger.Info("walk started",
		"walkers", e.walks.Total(),
		"scheduler", e.sched.Name(),
		"sampler", e.sampler.Kind(),
		"threads", e.opts.Threads,
	)

	finish := func(err error) (Stats, error) {
		stats.BlockLoads = e.cache.Loads() - loads
		stats.BytesLoaded = e.cache.LoadedBytes() - bytes
		stats.Draws = e.sampler.Draws() - draws
		stats.Duration = time.Since(start)
		return stats, err
	}

	for round := 0; e.walks.Total() > 0; round++ {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		rs, err := e.round(ctx, round, a)
		stats.Rounds++
		stats.Steps += rs.Steps
		stats.Spilled += int64(rs.Spilled)
		if err != nil {
			return finish(err)
		}
		if e.walks.CacheDrained(e.cache.Resident()) {
			stats.Refreshes++
		}

		e.opts.Metrics.OnRound(rs)
		e.opts.Logger.Debug("round finished",
			"round", round,
			"buckets", rs.Buckets,
			"walkers", rs.Walkers,
			"steps", rs.Steps,
			"loads", rs.Loads,
			"pending", rs.Pending,
			"duration", rs.Duration,
		)
	}

	stats, _ = finish(nil)
	e.opts.Logger.Info("walk finished",
		"rounds", stats.Rounds,
		"steps", stats.Steps,
		"block_loads", stats.BlockLoads,
		"draws", stats.Draws,
		"duration", stats.Duration,
	)
	return stats, nil
}

func (e *Engine) round(ctx context.Context, round int, a app.App) (RoundStats, error) {
	rs := RoundStats{Round: round}
	start := time.Now()
	loads, bytes := e.cache.Loads(), e.cache.LoadedBytes()

	buckets, err := e.sched.Schedule(ctx)
	rs.Loads = e.cache.Loads() - loads
	rs.Bytes = e.cache.LoadedBytes() - bytes
	if err != nil {
		return rs, fmt.Errorf("engine: schedule round %d: %w", round, err)
	}
	if len(buckets) == 0 {
		return rs, fmt.Errorf("%w: round %d with %d pending walkers", ErrNoProgress, round, e.walks.Total())
	}
	rs.Buckets = len(buckets)

	for i, b := range buckets {
		ws, err := e.walks.Pull(ctx, b)
		if err != nil {
			return rs, err
		}
		steps, err := e.process(ctx, a, ws, round, i)
		rs.Walkers += len(ws)
		rs.Steps += steps
		if err != nil {
			return rs, err
		}
	}

	spilled, err := e.walks.Spill(ctx)
	rs.Spilled = spilled
	if err != nil {
		return rs, err
	}
	rs.Pending = e.walks.Total()
	rs.Duration = time.Since(start)
	return rs, nil
}

// process advances ws on up to Threads workers. Worker w of the i-th bucket
// of a round draws from the stream (seed, round, i*Threads+w).
func (e *Engine) process(ctx context.Context, a app.App, ws []model.Walker, round, bucket int) (int64, error) {
	if len(ws) == 0 {
		return 0, nil
	}
	workers := min(e.opts.Threads, len(ws))
	chunk := (len(ws) + workers - 1) / workers

	var steps atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		lo, hi := w*chunk, min((w+1)*chunk, len(ws))
		if lo >= hi {
			break
		}
		rng := sample.Derive(e.opts.Seed, round, bucket*e.opts.Threads+w)
		g.Go(func() error {
			var n int64
			defer func() { steps.Add(n) }()
			for i, walker := range ws[lo:hi] {
				if i%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				k, err := a.Step(walker, e.cache, e.walks, e.sampler, rng)
				n += int64(k)
				if err != nil {
					e.logStepError(walker, err)
					return fmt.Errorf("engine: %s: %w", walker, err)
				}
			}
			return nil
		})
	}
	err := g.Wait()
	return steps.Load(), err
}

func (e *Engine) logStepError(w model.Walker, err error) {
	var rej *sample.RejectLimitError
	if errors.As(err, &rej) {
		e.opts.Logger.Error("rejection sampling exceeded retry limit",
			"walker", w.ID,
			"vertex", rej.Vertex,
			"pmax", rej.PMax,
			"pmin", rej.PMin,
			"degree", rej.Degree,
			"prev_degree", rej.PrevDegree,
		)
		return
	}
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		e.opts.Logger.Error("walker step failed", "walker", w.ID, "error", err)
	}
}
