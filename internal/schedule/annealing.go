package schedule

import (
	"context"
	"math/rand/v2"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hupe1980/graphwalk/model"
)

// annealing is a hill climber over slot sets. Despite its name it never
// accepts a worse set.
type annealing struct {
	base
	rng *rand.Rand
}

func newAnnealing(b base) *annealing {
	return &annealing{base: b, rng: rand.New(rand.NewPCG(b.opts.Seed, 0x9e3779b97f4a7c15))}
}

func (a *annealing) Name() string { return Annealing.String() }

func (a *annealing) Schedule(ctx context.Context) ([]model.Bucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.walks.Total() == 0 {
		return nil, nil
	}
	bw := a.snapshot()
	blocks := a.ensureProgress(bw, a.choose(bw))
	return a.commit(ctx, bw, blocks)
}

func (a *annealing) choose(bw []float64) []model.BlockID {
	k := a.cache.Capacity()
	if k >= a.n {
		return allBlocks(a.n)
	}

	order := a.ranked(bw)
	cand := a.seed(bw, order)
	resident := a.residentSet()
	best := a.ratio(bw, cand, resident)

	for range a.opts.MaxIter {
		pos := k + a.rng.IntN(a.n-k)
		i := a.rng.IntN(k)
		cand[i], order[pos] = order[pos], cand[i]
		if r := a.ratio(bw, cand, resident); r > best {
			best = r
			continue
		}
		cand[i], order[pos] = order[pos], cand[i]
	}
	return cand
}

// ratio returns the score of blocks per block that must be loaded. A set
// that is entirely resident counts as one load.
func (a *annealing) ratio(bw []float64, blocks []model.BlockID, resident mapset.Set[model.BlockID]) float64 {
	loads := 0
	for _, b := range blocks {
		if !resident.Contains(b) {
			loads++
		}
	}
	return a.score(bw, blocks) / float64(max(loads, 1))
}
