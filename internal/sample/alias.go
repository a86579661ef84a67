package sample

// aliasSampler builds a Vose alias table for every draw. Second-order
// weights change with every hop, so tables are not reused.
type aliasSampler struct {
	counter
}

func (s *aliasSampler) Kind() Kind { return Alias }

func (s *aliasSampler) Sample(c *Context) (int, error) {
	c.scratch = c.NeighborWeights(c.scratch)
	return s.SampleIndex(c.scratch, c.Rand)
}

func (s *aliasSampler) SampleIndex(weights []float64, rng *Rand) (int, error) {
	total, _, err := checkWeights(weights)
	if err != nil {
		return 0, err
	}
	s.draws.Add(1)

	n := len(weights)
	prob := make([]float64, n)
	alias := make([]int, n)
	small := make([]int, 0, n)
	large := make([]int, 0, n)

	scale := float64(n) / total
	for i, w := range weights {
		prob[i] = w * scale
		if prob[i] < 1 {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}

	for len(small) > 0 && len(large) > 0 {
		sm := small[len(small)-1]
		small = small[:len(small)-1]
		l := large[len(large)-1]
		large = large[:len(large)-1]

		alias[sm] = l
		prob[l] += prob[sm] - 1
		if prob[l] < 1 {
			small = append(small, l)
		} else {
			large = append(large, l)
		}
	}
	// Leftovers are 1 up to rounding.
	for _, i := range large {
		prob[i], alias[i] = 1, i
	}
	for _, i := range small {
		prob[i], alias[i] = 1, i
	}

	i := rng.IntN(n)
	if rng.Float64() < prob[i] {
		return i, nil
	}
	return alias[i], nil
}
