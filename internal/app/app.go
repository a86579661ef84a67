package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/graphwalk/internal/cache"
	"github.com/hupe1980/graphwalk/internal/sample"
	"github.com/hupe1980/graphwalk/internal/walk"
	"github.com/hupe1980/graphwalk/model"
)

// ErrInvalidArgument is returned for invalid application parameters.
var ErrInvalidArgument = errors.New("app: invalid argument")

// App is a walk application.
type App interface {
	// WalksPerSource returns the number of walkers started per source vertex.
	WalksPerSource() uint32
	// MaxHops returns the hop budget of every walker.
	MaxHops() model.Hop
	// Funcs returns the transition functions.
	Funcs() *sample.TransitFuncs
	// Init adds the initial walkers to walks and returns how many it added.
	Init(ctx context.Context, walks *walk.Manager) (int, error)
	// Step advances w while its current block is resident and returns the
	// number of hops taken. Walkers with budget left are re-inserted into
	// walks.
	Step(w model.Walker, c *cache.Cache, walks *walk.Manager, s sample.Sampler, rng *sample.Rand) (int, error)
}

// Option configures a SecondOrder application.
type Option func(*SecondOrder)

// WithContinueUpdate sets whether a walker keeps stepping after it enters
// another resident block. It is enabled by default.
func WithContinueUpdate(enabled bool) Option {
	return func(a *SecondOrder) { a.continueUpdate = enabled }
}

// WithSeeder replaces the default PerVertex seeder.
func WithSeeder(s Seeder) Option {
	return func(a *SecondOrder) {
		if s != nil {
			a.seeder = s
		}
	}
}

// WithObserver registers an observer of hops and finished walkers.
func WithObserver(o Observer) Option {
	return func(a *SecondOrder) { a.observer = o }
}

// SecondOrder runs walkers whose transitions depend on the current and
// previous vertex.
type SecondOrder struct {
	walksPerSource uint32
	hops           model.Hop
	funcs          *sample.TransitFuncs
	seeder         Seeder
	continueUpdate bool
	observer       Observer

	contexts sync.Pool
}

// NewSecondOrder returns an application that starts walksPerSource walkers
// per source and stops them after hops hops.
func NewSecondOrder(walksPerSource uint32, hops model.Hop, funcs *sample.TransitFuncs, opts ...Option) (*SecondOrder, error) {
	if walksPerSource == 0 {
		return nil, fmt.Errorf("%w: zero walks per source", ErrInvalidArgument)
	}
	if hops == 0 {
		return nil, fmt.Errorf("%w: zero hops", ErrInvalidArgument)
	}
	if err := funcs.Validate(); err != nil {
		return nil, err
	}

	a := &SecondOrder{
		walksPerSource: walksPerSource,
		hops:           hops,
		funcs:          funcs,
		seeder:         PerVertex(walksPerSource),
		continueUpdate: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *SecondOrder) WalksPerSource() uint32 { return a.walksPerSource }

func (a *SecondOrder) MaxHops() model.Hop { return a.hops }

func (a *SecondOrder) Funcs() *sample.TransitFuncs { return a.funcs }

// Init seeds walks with the walkers of the configured seeder.
func (a *SecondOrder) Init(ctx context.Context, walks *walk.Manager) (int, error) {
	n := 0
	err := a.seeder(walks.Table().NumVertices(), func(w model.Walker) error {
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := walks.MoveWalk(w); err != nil {
			return err
		}
		walks.SetWalkerMaxHop(w)
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("app: seed walkers: %w", err)
	}
	return n, nil
}

// Step samples hops for w while its current vertex is resident and its
// budget lasts. The budget is the hop limit of the block holding the
// current vertex, or MaxHops when walks sets none. Both the current and the
// previous block of w must be resident.
func (a *SecondOrder) Step(w model.Walker, c *cache.Cache, walks *walk.Manager, s sample.Sampler, rng *sample.Rand) (int, error) {
	cur, err := c.Lookup(w.Current)
	if err != nil {
		return 0, err
	}
	prev, err := c.Lookup(w.Previous)
	if err != nil {
		return 0, err
	}

	sc := a.context(c.Table().NumVertices(), rng)
	defer a.contexts.Put(sc)

	steps := 0
	for cur != nil && w.Hop < a.budget(walks, w.Current) {
		sc.Reset(w.Current, w.Previous, cur.Neighbors(w.Current), cur.Weights(w.Current), prev.Neighbors(w.Previous))
		next, err := sample.VertexSample(sc, s)
		if err != nil {
			return steps, err
		}
		if a.observer != nil {
			a.observer.OnHop(w, next)
		}
		w = w.Advance(next)
		steps++

		prev = cur
		if !cur.Block().Contains(next) {
			cur = resident(c, next)
			if !a.continueUpdate {
				break
			}
		}
	}

	if w.Hop < a.budget(walks, w.Current) {
		if err := walks.MoveWalk(w); err != nil {
			return steps, err
		}
		walks.SetWalkerMaxHop(w)
		return steps, nil
	}
	if a.observer != nil {
		a.observer.OnFinish(w)
	}
	return steps, nil
}

func (a *SecondOrder) budget(walks *walk.Manager, v model.VertexID) model.Hop {
	if h := walks.MaxHop(walks.Table().BlockOf(v)); h > 0 {
		return h
	}
	return a.hops
}

func (a *SecondOrder) context(nvertices uint32, rng *sample.Rand) *sample.Context {
	if sc, ok := a.contexts.Get().(*sample.Context); ok && sc.NumVertices == nvertices {
		sc.Rand = rng
		return sc
	}
	return sample.NewContext(nvertices, a.funcs, rng)
}

// resident returns the slot holding v, or nil.
func resident(c *cache.Cache, v model.VertexID) *cache.Slot {
	s, err := c.Lookup(v)
	if err != nil {
		return nil
	}
	return s
}
