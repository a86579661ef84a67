package sample

// rejectSampler draws a uniform candidate and a uniform height below the
// weight bound, and accepts the candidate when the height falls under its
// weight.
type rejectSampler struct {
	counter
}

func (s *rejectSampler) Kind() Kind { return Reject }

// Sample evaluates only the drawn candidate's weight on unweighted graphs
// with declared bounds. Otherwise it materializes the weights and rejects
// against their maximum.
func (s *rejectSampler) Sample(c *Context) (int, error) {
	if c.Weighted() || c.Funcs.UpperBound == nil {
		c.scratch = c.NeighborWeights(c.scratch)
		return s.SampleIndex(c.scratch, c.Rand)
	}

	n := len(c.Neighbors)
	pmax, pmin := c.MaxWeight(), c.MinWeight()
	for try := 1; try <= MaxRejectTries; try++ {
		r := c.Rand.Float64() * pmax
		i := c.Rand.IntN(n)
		s.draws.Add(1)
		if r <= pmin || r < c.VertexWeight(i) {
			return i, nil
		}
	}
	return 0, &RejectLimitError{
		Vertex:     c.Cur,
		PMax:       pmax,
		PMin:       pmin,
		Degree:     n,
		PrevDegree: len(c.PrevNeighbors),
		Tries:      MaxRejectTries,
	}
}

// SampleIndex rejects against the maximum weight. It always terminates for
// valid weights since the heaviest candidate is accepted with certainty.
func (s *rejectSampler) SampleIndex(weights []float64, rng *Rand) (int, error) {
	_, pmax, err := checkWeights(weights)
	if err != nil {
		return 0, err
	}
	n := len(weights)
	for {
		r := rng.Float64() * pmax
		i := rng.IntN(n)
		s.draws.Add(1)
		if r < weights[i] {
			return i, nil
		}
	}
}
