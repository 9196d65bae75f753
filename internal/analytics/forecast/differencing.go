package forecast

// Difference applies d first differences followed by D differences at lag s.
// The result has length len(series) - d - D*s, or is empty when that is not positive.
// The input is never modified.
func Difference(series []float64, d, seasonalD, s int) []float64 {
	out := append([]float64(nil), series...)
	for i := 0; i < d; i++ {
		out = lagDifference(out, 1)
	}
	for i := 0; i < seasonalD; i++ {
		out = lagDifference(out, s)
	}
	if out == nil {
		return []float64{}
	}
	return out
}

func lagDifference(values []float64, lag int) []float64 {
	if lag < 1 || len(values) <= lag {
		return []float64{}
	}
	out := make([]float64, len(values)-lag)
	for i := lag; i < len(values); i++ {
		out[i-lag] = values[i] - values[i-lag]
	}
	return out
}

// DifferenceSeeds returns the leading value of each of the first d difference
// levels of series: series[0], then the first element of the first difference, and so on.
// Integrate uses them to undo Difference(series, d, 0, 0).
func DifferenceSeeds(series []float64, d int) []float64 {
	seeds := make([]float64, 0, d)
	level := series
	for i := 0; i < d && len(level) > 0; i++ {
		seeds = append(seeds, level[0])
		level = lagDifference(level, 1)
	}
	return seeds
}

// Integrate reverses len(seeds) first-difference passes.
func Integrate(diffed, seeds []float64) []float64 {
	level := append([]float64(nil), diffed...)
	for k := len(seeds) - 1; k >= 0; k-- {
		next := make([]float64, len(level)+1)
		next[0] = seeds[k]
		for i, v := range level {
			next[i+1] = next[i] + v
		}
		level = next
	}
	return level
}
