package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/soltixdb/sitecast/internal/analytics/stats"
)

// singularityThreshold matches the pivot tolerance of a classic dense LU solver.
const singularityThreshold = 1e-11

// maFill is the fixed value of every MA coefficient after the first.
const maFill = 0.1

// Coefficients holds every parameter estimated from a differenced series.
type Coefficients struct {
	AR         []float64
	MA         []float64
	SeasonalAR []float64
	SeasonalMA []float64
	Intercept  float64
}

// Estimate fits all coefficient groups of order against the differenced series.
func Estimate(differenced []float64, order SarimaOrder) (Coefficients, error) {
	var c Coefficients
	var err error

	if order.P > 0 {
		if c.AR, err = EstimateAR(differenced, order.P); err != nil {
			return c, fmt.Errorf("ar(%d): %w", order.P, err)
		}
	}
	if order.Q > 0 {
		c.MA = EstimateMA(differenced, order.Q)
	}
	if order.SP > 0 {
		if c.SeasonalAR, err = EstimateAR(differenced, order.SP*order.S); err != nil {
			return c, fmt.Errorf("seasonal ar(%d): %w", order.SP*order.S, err)
		}
	}
	if order.SQ > 0 {
		c.SeasonalMA = EstimateMA(differenced, order.SQ*order.S)
	}
	c.Intercept = stats.Mean(differenced)
	return c, nil
}

// EstimateAR solves the Yule-Walker equations for an AR(order) process.
// Autocovariances are uncentered. The result is empty when order is 0 or the
// series is not longer than order.
func EstimateAR(series []float64, order int) ([]float64, error) {
	n := len(series)
	if order <= 0 || n <= order {
		return []float64{}, nil
	}

	acov := autocovariances(series, order)

	toeplitz := mat.NewDense(order, order, nil)
	rhs := mat.NewVecDense(order, nil)
	for i := 0; i < order; i++ {
		for j := 0; j < order; j++ {
			lag := i - j
			if lag < 0 {
				lag = -lag
			}
			toeplitz.Set(i, j, acov[lag])
		}
		rhs.SetVec(i, acov[i+1])
	}

	var lu mat.LU
	lu.Factorize(toeplitz)

	var u mat.TriDense
	lu.UTo(&u)
	for i := 0; i < order; i++ {
		if pivot := u.At(i, i); math.Abs(pivot) < singularityThreshold || math.IsNaN(pivot) {
			return nil, ErrSingularMatrix
		}
	}

	var phi mat.VecDense
	if err := solveError(lu.SolveVecTo(&phi, false, rhs)); err != nil {
		return nil, err
	}

	coeffs := make([]float64, order)
	for i := range coeffs {
		coeffs[i] = phi.AtVec(i)
	}
	return coeffs, nil
}

// solveError maps an LU solve error. A mat.Condition only warns that the
// system is ill-conditioned; the solution is still written, and singularity
// is decided by the pivot check alone.
func solveError(err error) error {
	if err == nil {
		return nil
	}
	var cond mat.Condition
	if errors.As(err, &cond) {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrSingularMatrix, err)
}

// autocovariances returns sum(x[i]*x[i-k]) / (n-k) for k in 0..maxLag.
func autocovariances(series []float64, maxLag int) []float64 {
	n := len(series)
	acov := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += series[i] * series[i-k]
		}
		acov[k] = sum / float64(n-k)
	}
	return acov
}

// EstimateMA approximates MA(order) coefficients. The first coefficient is the
// OLS slope of x[i] on x[i-1] over i in [order, n); the remaining ones are fixed
// at 0.1. A degenerate regression produces a NaN slope.
func EstimateMA(series []float64, order int) []float64 {
	n := len(series)
	if order <= 0 || n <= order {
		return []float64{}
	}

	x := make([]float64, 0, n-order)
	y := make([]float64, 0, n-order)
	for i := order; i < n; i++ {
		x = append(x, series[i-1])
		y = append(y, series[i])
	}

	coeffs := make([]float64, order)
	coeffs[0] = regressionSlope(x, y)
	for i := 1; i < order; i++ {
		coeffs[i] = maFill
	}
	return coeffs
}

// regressionSlope is NaN for fewer than two points or zero variance in x.
func regressionSlope(x, y []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	mx, my := stats.Mean(x), stats.Mean(y)
	sxx, sxy := 0.0, 0.0
	for i := range x {
		dx := x[i] - mx
		sxx += dx * dx
		sxy += dx * (y[i] - my)
	}
	if sxx < 10*math.SmallestNonzeroFloat64 {
		return math.NaN()
	}
	return sxy / sxx
}
