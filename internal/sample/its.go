package sample

import (
	"sort"
)

// itsSampler inverts the cumulative distribution of the neighbor weights.
type itsSampler struct {
	counter
}

func (s *itsSampler) Kind() Kind { return ITS }

func (s *itsSampler) Sample(c *Context) (int, error) {
	c.scratch = c.NeighborWeights(c.scratch)
	return s.SampleIndex(c.scratch, c.Rand)
}

// SampleIndex returns the first index whose prefix sum exceeds total*U.
func (s *itsSampler) SampleIndex(weights []float64, rng *Rand) (int, error) {
	if _, _, err := checkWeights(weights); err != nil {
		return 0, err
	}
	s.draws.Add(1)

	prefix := make([]float64, len(weights))
	var sum float64
	for i, w := range weights {
		sum += w
		prefix[i] = sum
	}
	r := sum * rng.Float64()
	i := sort.Search(len(prefix), func(i int) bool { return prefix[i] > r })
	if i == len(prefix) {
		// r rounds up to the total; take the last positive weight.
		for i = len(weights) - 1; weights[i] == 0; i-- {
		}
	}
	return i, nil
}
