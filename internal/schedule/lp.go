package schedule

import (
	"cmp"
	"context"
	"math"
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hupe1980/graphwalk/model"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	// lpMaxNodes bounds the branch and bound nodes of one Schedule call.
	lpMaxNodes = 256
	// lpMaxEdges is the number of heaviest block pairs kept in the program.
	lpMaxEdges = 32
	lpTol      = 1e-10
	lpIntTol   = 1e-6
)

// DefaultLPBudget is the default time limit of one LP Schedule call.
const DefaultLPBudget = 100 * time.Millisecond

// lpScheduler selects the slot set with an integer program per load budget.
type lpScheduler struct {
	base
}

func (l *lpScheduler) Name() string { return LP.String() }

func (l *lpScheduler) Schedule(ctx context.Context) ([]model.Bucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.walks.Total() == 0 {
		return nil, nil
	}
	bw := l.snapshot()

	var blocks []model.BlockID
	if l.cache.Capacity() >= l.n {
		blocks = allBlocks(l.n)
	} else {
		heuristic := l.seed(bw, l.ranked(bw))
		if blocks = l.solve(ctx, bw, heuristic); blocks == nil {
			l.opts.Logger.Debug("lp found no selection, using heuristic selection")
			blocks = heuristic
		}
	}
	blocks = l.ensureProgress(bw, blocks)
	return l.commit(ctx, bw, blocks)
}

// lpBudget limits the search of one Schedule call.
type lpBudget struct {
	ctx      context.Context
	nodes    int
	deadline time.Time
	spent    bool
}

func (b *lpBudget) exhausted() bool {
	if b.spent {
		return true
	}
	if b.nodes <= 0 || b.ctx.Err() != nil || !time.Now().Before(b.deadline) {
		b.spent = true
	}
	return b.spent
}

// solve tries every budget of newly loaded blocks and returns the selection
// with the best score per budget, or nil if no budget is feasible. The
// heuristic selection is the starting incumbent of every program.
func (l *lpScheduler) solve(ctx context.Context, bw []float64, heuristic []model.BlockID) []model.BlockID {
	k := l.cache.Capacity()
	resident := l.residentSet()
	p := l.program(bw, resident, heuristic)

	maxNum := min(k, l.n-k)
	if resident.Cardinality() == 0 {
		// Without resident blocks every budget is the same program.
		maxNum = 1
	}

	budget := &lpBudget{ctx: ctx, nodes: lpMaxNodes, deadline: time.Now().Add(l.opts.LPBudget)}
	var (
		best      []model.BlockID
		bestRatio float64
	)
	for num := 1; num <= maxNum && !budget.exhausted(); num++ {
		p.minCached = 0
		if resident.Cardinality() > 0 {
			p.minCached = k - num
		}
		sel, ok := p.solve(budget, heuristic)
		if !ok {
			continue
		}
		r := l.score(bw, sel) / float64(num)
		l.opts.Logger.Debug("lp selection", "budget", num, "ratio", r)
		if best == nil || r > bestRatio {
			best, bestRatio = sel, r
		}
	}
	if budget.spent {
		l.opts.Logger.Debug("lp search budget exhausted", "nodes", lpMaxNodes-budget.nodes)
	}
	return best
}

// program builds the selection program over the heaviest block pairs. Its
// candidates are the endpoints of those pairs, the resident blocks and the
// heuristic selection, padded with the best ranked blocks up to capacity.
func (l *lpScheduler) program(bw []float64, resident mapset.Set[model.BlockID], heuristic []model.BlockID) *program {
	var edges []lpEdge
	for u := range l.n {
		for v := u; v < l.n; v++ {
			w := bw[u*l.n+v] * l.expLen(model.BlockID(v))
			if u != v {
				w += bw[v*l.n+u] * l.expLen(model.BlockID(u))
			}
			if w > 0 {
				edges = append(edges, lpEdge{u: u, v: v, w: w})
			}
		}
	}
	slices.SortStableFunc(edges, func(a, b lpEdge) int { return cmp.Compare(b.w, a.w) })
	edges = edges[:min(len(edges), lpMaxEdges)]

	p := &program{k: l.cache.Capacity()}
	index := make(map[model.BlockID]int)
	add := func(blk model.BlockID) int {
		i, ok := index[blk]
		if !ok {
			i = len(p.blocks)
			index[blk] = i
			p.blocks = append(p.blocks, blk)
			p.cached = append(p.cached, resident.Contains(blk))
		}
		return i
	}
	for i, e := range edges {
		edges[i].u = add(model.BlockID(e.u))
		edges[i].v = add(model.BlockID(e.v))
	}
	p.edges = edges
	for _, blk := range resident.ToSlice() {
		add(blk)
	}
	for _, blk := range heuristic {
		add(blk)
	}
	for _, blk := range l.ranked(bw) {
		if len(p.blocks) >= p.k {
			break
		}
		add(blk)
	}
	return p
}

type lpEdge struct {
	u, v int
	w    float64
}

// program is the 0/1 selection
//
//	max Σ w_e y_e  s.t.  y_e <= x_u, y_e <= x_v, Σ x = k, Σ_{cached} x >= minCached
//
// over x, y in {0, 1}, one x per candidate block.
type program struct {
	blocks    []model.BlockID
	k         int
	cached    []bool
	minCached int
	edges     []lpEdge
}

// incumbent returns sel as a point of the program and its objective, or
// false when sel is not feasible.
func (p *program) incumbent(sel []model.BlockID) ([]float64, float64, bool) {
	if len(sel) != p.k {
		return nil, 0, false
	}
	x := make([]float64, len(p.blocks))
	cached := 0
	for _, blk := range sel {
		i := slices.Index(p.blocks, blk)
		if i < 0 || x[i] == 1 {
			return nil, 0, false
		}
		x[i] = 1
		if p.cached[i] {
			cached++
		}
	}
	if cached < p.minCached {
		return nil, 0, false
	}
	var obj float64
	for _, e := range p.edges {
		if x[e.u] == 1 && x[e.v] == 1 {
			obj += e.w
		}
	}
	return x, obj, true
}

// solve runs a depth-first branch and bound over the LP relaxation until
// budget is exhausted. A feasible start selection prunes from the first node
// and is returned when nothing better is found.
func (p *program) solve(budget *lpBudget, start []model.BlockID) ([]model.BlockID, bool) {
	best, bestObj, ok := p.incumbent(start)
	if !ok {
		best, bestObj = nil, math.Inf(-1)
	}

	var visit func(fixed []int8)
	visit = func(fixed []int8) {
		if budget.exhausted() {
			return
		}
		budget.nodes--

		obj, x, ok := p.relax(fixed)
		if !ok || obj <= bestObj+lpIntTol {
			return
		}
		j := mostFractional(x)
		if j < 0 {
			best, bestObj = x, obj
			return
		}
		for _, v := range []int8{1, 0} {
			f := slices.Clone(fixed)
			f[j] = v
			visit(f)
		}
	}

	fixed := make([]int8, len(p.blocks))
	for i := range fixed {
		fixed[i] = -1
	}
	visit(fixed)

	if best == nil {
		return nil, false
	}
	sel := make([]model.BlockID, 0, p.k)
	for i, x := range best {
		if x > 0.5 {
			sel = append(sel, p.blocks[i])
		}
	}
	slices.Sort(sel)
	return sel, len(sel) == p.k
}

func mostFractional(x []float64) int {
	j, dist := -1, lpIntTol
	for i, v := range x {
		if d := math.Abs(v - math.Round(v)); d > dist {
			j, dist = i, d
		}
	}
	return j
}

// relax solves the LP relaxation with the blocks of fixed set to 0 or 1
// (-1 is free). Fixed blocks are eliminated from the program. It returns
// the objective and the value of every block.
func (p *program) relax(fixed []int8) (float64, []float64, bool) {
	vars := make([]int, len(p.blocks))
	var (
		free       []int
		ones       int
		cachedOnes int
		freeCached int
		constant   float64
	)
	for i, f := range fixed {
		vars[i] = -1
		switch f {
		case 1:
			ones++
			if p.cached[i] {
				cachedOnes++
			}
		case -1:
			vars[i] = len(free)
			free = append(free, i)
			if p.cached[i] {
				freeCached++
			}
		}
	}

	rhsK := p.k - ones
	rhsC := p.minCached - cachedOnes
	if rhsK < 0 || rhsK > len(free) || rhsC > min(freeCached, rhsK) {
		return 0, nil, false
	}

	// Edges with a fixed zero end vanish; edges with both ends fixed to one
	// are constant.
	type yrow struct {
		w    float64
		ends []int
	}
	var ys []yrow
	rows := len(free) + 1
	for _, e := range p.edges {
		if fixed[e.u] == 0 || fixed[e.v] == 0 {
			continue
		}
		var ends []int
		if vars[e.u] >= 0 {
			ends = append(ends, vars[e.u])
		}
		if e.v != e.u && vars[e.v] >= 0 {
			ends = append(ends, vars[e.v])
		}
		if len(ends) == 0 {
			constant += e.w
			continue
		}
		ys = append(ys, yrow{w: e.w, ends: ends})
		rows += len(ends)
	}

	x := make([]float64, len(p.blocks))
	for i, f := range fixed {
		if f == 1 {
			x[i] = 1
		}
	}
	if len(free) == 0 {
		return constant, x, true
	}

	cachedRow := rhsC > 0
	if cachedRow {
		rows++
	}

	// Columns: x, y, one slack per inequality row.
	nf, ny := len(free), len(ys)
	cols := nf + ny + (rows - 1)
	a := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	c := make([]float64, cols)

	row, slack := 0, nf+ny
	for i := range nf {
		a.Set(row, i, 1)
		a.Set(row, slack, 1)
		b[row] = 1
		row++
		slack++
	}
	for j, y := range ys {
		c[nf+j] = -y.w
		for _, xi := range y.ends {
			a.Set(row, nf+j, 1)
			a.Set(row, xi, -1)
			a.Set(row, slack, 1)
			row++
			slack++
		}
	}
	for i := range nf {
		a.Set(row, i, 1)
	}
	b[row] = float64(rhsK)
	row++
	if cachedRow {
		for i, blk := range free {
			if p.cached[blk] {
				a.Set(row, i, 1)
			}
		}
		a.Set(row, slack, -1)
		b[row] = float64(rhsC)
	}

	opt, sol, err := lp.Simplex(c, a, b, lpTol, nil)
	if err != nil {
		return 0, nil, false
	}
	for i, blk := range free {
		x[blk] = sol[i]
	}
	return constant - opt, x, true
}
