package sample

// naiveSampler picks a neighbor uniformly and ignores weights.
type naiveSampler struct {
	counter
}

func (s *naiveSampler) Kind() Kind { return Naive }

func (s *naiveSampler) Sample(c *Context) (int, error) {
	s.draws.Add(1)
	return c.Rand.IntN(len(c.Neighbors)), nil
}

func (s *naiveSampler) SampleIndex(weights []float64, rng *Rand) (int, error) {
	if len(weights) == 0 {
		return 0, ErrInvalidWeights
	}
	s.draws.Add(1)
	return rng.IntN(len(weights)), nil
}
