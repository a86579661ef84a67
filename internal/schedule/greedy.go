package schedule

import (
	"context"

	"github.com/hupe1980/graphwalk/model"
)

// greedy executes the block with the most incoming walkers against each
// block that shares walkers with it, one partner per round.
type greedy struct {
	base

	exec    model.BlockID
	targets []model.BlockID
	cursor  int
}

func (g *greedy) Name() string { return Greedy.String() }

func (g *greedy) Schedule(ctx context.Context) ([]model.Bucket, error) {
	rebuilt := false
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if g.cursor >= len(g.targets) {
			if rebuilt || g.walks.Total() == 0 {
				return nil, nil
			}
			if err := g.rebuild(ctx); err != nil {
				return nil, err
			}
			rebuilt = true
			continue
		}

		blk := g.targets[g.cursor]
		g.cursor++

		in := model.Bucket{Prev: blk, Cur: g.exec}
		out := model.Bucket{Prev: g.exec, Cur: blk}
		var buckets []model.Bucket
		if g.walks.Count(in) > 0 {
			buckets = append(buckets, in)
		}
		if blk != g.exec && g.walks.Count(out) > 0 {
			buckets = append(buckets, out)
		}
		if len(buckets) == 0 {
			continue
		}

		if err := g.swapIn(ctx, blk, g.exec); err != nil {
			return nil, err
		}
		g.opts.Logger.Debug("blocks scheduled", "exec", g.exec, "block", blk, "buckets", len(buckets))
		return buckets, nil
	}
}

// rebuild loads the block with the largest column sum and collects the
// blocks sharing walkers with it.
func (g *greedy) rebuild(ctx context.Context) error {
	var most int64
	g.exec = 0
	for c := range g.n {
		var nw int64
		for p := range g.n {
			nw += g.walks.NBlockWalks(p*g.n + c)
		}
		if nw > most {
			most, g.exec = nw, model.BlockID(c)
		}
	}
	if err := g.swapIn(ctx, g.exec, model.BlockID(g.n)); err != nil {
		return err
	}
	g.cache.Age()

	g.targets = g.targets[:0]
	for b := range g.n {
		blk := model.BlockID(b)
		if g.walks.Count(model.Bucket{Prev: blk, Cur: g.exec}) > 0 ||
			g.walks.Count(model.Bucket{Prev: g.exec, Cur: blk}) > 0 {
			g.targets = append(g.targets, blk)
		}
	}
	g.cursor = 0
	return nil
}

// swapIn makes blk resident. A new block goes to the first empty slot or
// else to the oldest slot not holding exclude.
func (g *greedy) swapIn(ctx context.Context, blk, exclude model.BlockID) error {
	if idx := g.cache.Table().Block(blk).CacheIndex; idx != g.cache.Table().Sentinel() {
		g.cache.ResetLife(int(idx))
		return nil
	}

	slot, life := 0, int64(-1)
	for i := range g.cache.Capacity() {
		occ, ok := g.cache.Occupant(i)
		if !ok {
			slot = i
			break
		}
		if l := int64(g.cache.Slot(i).Life()); l > life && occ != exclude {
			slot, life = i, l
		}
	}
	return g.cache.Load(ctx, blk, slot)
}
