package app

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/hupe1980/graphwalk/model"
)

// Seeder emits the initial walkers of a graph with nvertices vertices.
// Emitted walkers start with Previous == Current == Source and hop 0.
type Seeder func(nvertices uint32, emit func(model.Walker) error) error

// PerVertex starts walks walkers at every vertex. The k-th walker of vertex
// v has id v*walks+k.
func PerVertex(walks uint32) Seeder {
	return func(nvertices uint32, emit func(model.Walker) error) error {
		if uint64(nvertices)*uint64(walks) > math.MaxUint32+1 {
			return fmt.Errorf("%w: %d walkers per vertex on %d vertices", ErrInvalidArgument, walks, nvertices)
		}
		for v := range nvertices {
			for k := range walks {
				if err := emit(model.NewWalker(model.WalkerID(v*walks+k), model.VertexID(v))); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

// RandomSources starts n walkers at uniformly drawn vertices. Walker k has
// id k.
func RandomSources(n uint32, seed uint64) Seeder {
	return func(nvertices uint32, emit func(model.Walker) error) error {
		if nvertices == 0 {
			return fmt.Errorf("%w: empty graph", ErrInvalidArgument)
		}
		r := rand.New(rand.NewPCG(seed, uint64(n)))
		for k := range n {
			v := model.VertexID(r.Uint32N(nvertices))
			if err := emit(model.NewWalker(model.WalkerID(k), v)); err != nil {
				return err
			}
		}
		return nil
	}
}

// FromSources starts walks walkers at each of sources, numbered in order.
func FromSources(sources []model.VertexID, walks uint32) Seeder {
	return func(nvertices uint32, emit func(model.Walker) error) error {
		if uint64(len(sources))*uint64(walks) > math.MaxUint32+1 {
			return fmt.Errorf("%w: %d walkers per source on %d sources", ErrInvalidArgument, walks, len(sources))
		}
		id := model.WalkerID(0)
		for _, v := range sources {
			if uint32(v) >= nvertices {
				return fmt.Errorf("%w: source %d with %d vertices", ErrInvalidArgument, v, nvertices)
			}
			for range walks {
				if err := emit(model.NewWalker(id, v)); err != nil {
					return err
				}
				id++
			}
		}
		return nil
	}
}
