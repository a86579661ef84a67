package testutil

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ChiSquare returns Pearson's statistic of observed counts against counts
// proportional to weights, and its degrees of freedom. Categories with zero
// weight must have zero counts and are not counted as degrees of freedom;
// a nonzero count in such a category yields +Inf.
func ChiSquare(observed []int, weights []float64) (stat float64, df int) {
	var total, sum float64
	for i, o := range observed {
		total += float64(o)
		sum += weights[i]
	}

	cats := 0
	for i, o := range observed {
		if weights[i] == 0 {
			if o != 0 {
				return math.Inf(1), 0
			}
			continue
		}
		cats++
		e := total * weights[i] / sum
		d := float64(o) - e
		stat += d * d / e
	}
	return stat, max(cats-1, 1)
}

// ChiSquarePValue returns the probability of a statistic at least as large
// as the observed one if the counts follow weights.
func ChiSquarePValue(observed []int, weights []float64) float64 {
	stat, df := ChiSquare(observed, weights)
	return distuv.ChiSquared{K: float64(df)}.Survival(stat)
}
