// Package stats provides the descriptive statistics shared by the cleaning
// pipeline and the SARIMA engine.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev returns the sample standard deviation (n-1 denominator).
// Fewer than two values yield 0.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// Percentile returns the p-th percentile (0 < p <= 100) of values.
//
// The estimate uses position p*(n+1)/100 with linear interpolation between
// neighbours, clamped to the first and last order statistics.
func Percentile(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return values[0]
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := p * float64(n+1) / 100
	if pos < 1 {
		return sorted[0]
	}
	if pos >= float64(n) {
		return sorted[n-1]
	}

	floor := math.Floor(pos)
	idx := int(floor)
	frac := pos - floor
	lower := sorted[idx-1]
	upper := sorted[idx]
	return lower + frac*(upper-lower)
}

// Quartiles returns Q1, Q3 and the interquartile range of values.
func Quartiles(values []float64) (q1, q3, iqr float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	q1 = Percentile(values, 25)
	q3 = Percentile(values, 75)
	return q1, q3, q3 - q1
}

// MinMax returns the smallest and largest value. Both are 0 for an empty slice.
func MinMax(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Slope returns the ordinary least squares slope of values against their
// index (0, 1, 2, ...). It returns 0 when fewer than two values are given.
func Slope(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	fn := float64(n)
	denom := fn*sumX2 - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / denom
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
