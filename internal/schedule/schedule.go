package schedule

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hupe1980/graphwalk/internal/cache"
	"github.com/hupe1980/graphwalk/internal/walk"
	"github.com/hupe1980/graphwalk/model"
)

var (
	// ErrUnknownKind is returned for unknown scheduler names.
	ErrUnknownKind = errors.New("schedule: unknown scheduler")
	// ErrCapacity is returned when the cache cannot hold both blocks of a bucket.
	ErrCapacity = errors.New("schedule: cache capacity too small")
)

// DefaultMaxIter is the default number of annealing swaps per round.
const DefaultMaxIter = 30

// Kind selects a scheduling policy.
type Kind uint8

const (
	Greedy Kind = iota
	Annealing
	LP
)

// String returns the policy name.
func (k Kind) String() string {
	switch k {
	case Greedy:
		return "greedy"
	case Annealing:
		return "annealing"
	case LP:
		return "lp"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind parses a policy name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "greedy", "naive":
		return Greedy, nil
	case "annealing", "sa", "":
		return Annealing, nil
	case "lp":
		return LP, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Scheduler fills the cache for the next round.
type Scheduler interface {
	// Schedule loads the blocks of the next round and returns the buckets it
	// may process. It returns no buckets only when no walker is pending.
	Schedule(ctx context.Context) ([]model.Bucket, error)
	// Name returns the policy name.
	Name() string
}

// Options configures a scheduler.
type Options struct {
	Logger *slog.Logger
	// Seed seeds the annealing swaps.
	Seed uint64
	// MaxIter is the number of annealing swaps per round.
	MaxIter int
	// Expected weights block scores by their expected walk length.
	Expected bool
	// LPBudget limits the search time of one LP Schedule call.
	LPBudget time.Duration
}

// Option configures a scheduler.
type Option func(*Options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithSeed sets the seed of the annealing swaps.
func WithSeed(seed uint64) Option {
	return func(o *Options) { o.Seed = seed }
}

// WithMaxIter sets the number of annealing swaps per round.
func WithMaxIter(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.MaxIter = n
		}
	}
}

// WithExpectedLength weights scores by the expected walk length of blocks.
func WithExpectedLength(enabled bool) Option {
	return func(o *Options) { o.Expected = enabled }
}

// WithLPBudget sets the search time limit of one LP Schedule call. When it
// runs out the best selection found so far is used.
func WithLPBudget(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.LPBudget = d
		}
	}
}

// New returns a scheduler of kind k over c and walks.
func New(k Kind, c *cache.Cache, walks *walk.Manager, opts ...Option) (Scheduler, error) {
	o := Options{
		Logger:   slog.New(slog.DiscardHandler),
		MaxIter:  DefaultMaxIter,
		LPBudget: DefaultLPBudget,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if n := walks.NumBlocks(); c.Capacity() < min(2, n) {
		return nil, fmt.Errorf("%w: %d slots for %d blocks", ErrCapacity, c.Capacity(), n)
	}

	b := base{cache: c, walks: walks, opts: o, n: walks.NumBlocks()}
	switch k {
	case Greedy:
		return &greedy{base: b}, nil
	case Annealing:
		return newAnnealing(b), nil
	case LP:
		return &lpScheduler{base: b}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, k)
	}
}

type base struct {
	cache *cache.Cache
	walks *walk.Manager
	opts  Options
	n     int
}

// snapshot returns the bucket matrix as float64, indexed by Bucket.Index.
func (b *base) snapshot() []float64 {
	counts := b.walks.Counts()
	bw := make([]float64, len(counts))
	for i, c := range counts {
		bw[i] = float64(c)
	}
	return bw
}

// expLen returns the score factor of walkers whose current block is blk.
func (b *base) expLen(blk model.BlockID) float64 {
	if !b.opts.Expected {
		return 1
	}
	return float64(b.cache.Table().Block(blk).ExpWalkLen)
}

// blockWalks returns, per block, the walkers of every bucket touching it.
func (b *base) blockWalks(bw []float64) []float64 {
	out := make([]float64, b.n)
	for p := range b.n {
		for c := range b.n {
			out[p] += bw[p*b.n+c]
			if p != c {
				out[p] += bw[c*b.n+p]
			}
		}
	}
	return out
}

// score returns the walkers of buckets inside blocks.
func (b *base) score(bw []float64, blocks []model.BlockID) float64 {
	var s float64
	for _, p := range blocks {
		for _, c := range blocks {
			s += b.expLen(c) * bw[int(p)*b.n+int(c)]
		}
	}
	return s
}

func (b *base) residentSet() mapset.Set[model.BlockID] {
	return mapset.NewThreadUnsafeSet(b.cache.Resident()...)
}

// ranked returns block ids ordered by descending score, ties broken by rank
// and id.
func (b *base) ranked(bw []float64) []model.BlockID {
	walks := b.blockWalks(bw)
	ids := allBlocks(b.n)
	t := b.cache.Table()
	slices.SortStableFunc(ids, func(u, v model.BlockID) int {
		su, sv := b.expLen(u)*walks[u], b.expLen(v)*walks[v]
		if su != sv {
			return cmp.Compare(sv, su)
		}
		return cmp.Compare(t.Block(u).Rank, t.Block(v).Rank)
	})
	return ids
}

// seed returns the capacity-1 top ranked blocks plus the block sharing the
// most walkers with them. order is permuted so that its first capacity
// entries are the seed and the rest are the remaining pool.
func (b *base) seed(bw []float64, order []model.BlockID) []model.BlockID {
	k := b.cache.Capacity()
	best, most := k-1, 0.0
	for p := k - 1; p < len(order); p++ {
		var nw float64
		for c := range k - 1 {
			nw += bw[int(order[p])*b.n+int(order[c])] + bw[int(order[c])*b.n+int(order[p])]
		}
		if nw > most {
			best, most = p, nw
		}
	}
	order[k-1], order[best] = order[best], order[k-1]
	return slices.Clone(order[:k])
}

func allBlocks(n int) []model.BlockID {
	ids := make([]model.BlockID, n)
	for i := range ids {
		ids[i] = model.BlockID(i)
	}
	return ids
}

// ensureProgress swaps the endpoints of the fullest bucket into blocks when
// the chosen set holds no pending walker.
func (b *base) ensureProgress(bw []float64, blocks []model.BlockID) []model.BlockID {
	if b.walks.Total() == 0 {
		return blocks
	}
	for _, p := range blocks {
		for _, c := range blocks {
			if bw[int(p)*b.n+int(c)] > 0 {
				return blocks
			}
		}
	}

	fullest := 0
	for i, c := range bw {
		if c > bw[fullest] {
			fullest = i
		}
	}
	bk := model.BucketAt(fullest, b.n)
	need := []model.BlockID{bk.Prev}
	if bk.Cur != bk.Prev {
		need = append(need, bk.Cur)
	}

	walks := b.blockWalks(bw)
	out := slices.Clone(blocks)
	for _, blk := range need {
		if slices.Contains(out, blk) {
			continue
		}
		worst := -1
		for i, o := range out {
			if slices.Contains(need, o) {
				continue
			}
			if worst < 0 || walks[o] < walks[out[worst]] {
				worst = i
			}
		}
		out[worst] = blk
	}
	b.opts.Logger.Debug("empty block selection replaced", "bucket", bk, "blocks", out)
	return out
}

// commit places blocks in the cache and returns the non-empty buckets
// inside them. Resident blocks are moved to the front slots without I/O and
// the others are loaded into the following slots.
func (b *base) commit(ctx context.Context, bw []float64, blocks []model.BlockID) ([]model.Bucket, error) {
	resident := b.residentSet()
	chosen := mapset.NewThreadUnsafeSet(blocks...)
	cached := chosen.Intersect(resident).ToSlice()
	uncached := chosen.Difference(resident).ToSlice()
	slices.Sort(cached)
	slices.Sort(uncached)

	pos := 0
	for _, blk := range append(cached, uncached...) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.cache.Load(ctx, blk, pos); err != nil {
			return nil, err
		}
		pos++
	}
	for i := range pos {
		b.cache.ResetLife(i)
	}

	ordered := chosen.ToSlice()
	slices.Sort(ordered)
	var buckets []model.Bucket
	for _, p := range ordered {
		for _, c := range ordered {
			if bw[int(p)*b.n+int(c)] > 0 {
				buckets = append(buckets, model.Bucket{Prev: p, Cur: c})
			}
		}
	}

	b.opts.Logger.Debug("blocks scheduled",
		"moved", len(cached),
		"loaded", len(uncached),
		"buckets", len(buckets),
	)
	return buckets, nil
}
