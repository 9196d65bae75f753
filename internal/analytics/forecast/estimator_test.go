package forecast

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const eps = 1e-9

func TestEstimateAR_YuleWalker(t *testing.T) {
	// acov = [7.5, 20/3]
	ar1, err := EstimateAR([]float64{1, 2, 3, 4}, 1)
	if err != nil {
		t.Fatalf("EstimateAR failed: %v", err)
	}
	if len(ar1) != 1 || math.Abs(ar1[0]-(20.0/3)/7.5) > eps {
		t.Errorf("Unexpected AR(1) coefficients %v", ar1)
	}

	// acov = [11, 10, 26/3]
	ar2, err := EstimateAR([]float64{1, 2, 3, 4, 5}, 2)
	if err != nil {
		t.Fatalf("EstimateAR failed: %v", err)
	}
	if math.Abs(ar2[0]-10.0/9) > eps || math.Abs(ar2[1]+2.0/9) > eps {
		t.Errorf("Unexpected AR(2) coefficients %v", ar2)
	}
}

func TestEstimateAR_Empty(t *testing.T) {
	for _, tc := range []struct {
		series []float64
		order  int
	}{
		{[]float64{1, 2, 3}, 0},
		{[]float64{1, 2, 3}, 3},
		{nil, 1},
	} {
		got, err := EstimateAR(tc.series, tc.order)
		if err != nil {
			t.Errorf("order %d: unexpected error %v", tc.order, err)
		}
		if len(got) != 0 {
			t.Errorf("order %d: expected no coefficients, got %v", tc.order, got)
		}
	}
}

func TestEstimateAR_Singular(t *testing.T) {
	constant := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	_, err := EstimateAR(constant, 2)
	if !errors.Is(err, ErrSingularMatrix) {
		t.Errorf("Expected ErrSingularMatrix, got %v", err)
	}

	zeros := make([]float64, 20)
	_, err = EstimateAR(zeros, 1)
	if !errors.Is(err, ErrSingularMatrix) {
		t.Errorf("Expected ErrSingularMatrix for zero series, got %v", err)
	}
}

func TestEstimateMA(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5, 6}

	ma1 := EstimateMA(series, 1)
	if len(ma1) != 1 || math.Abs(ma1[0]-1) > eps {
		t.Errorf("Unexpected MA(1) coefficients %v", ma1)
	}

	ma3 := EstimateMA(series, 3)
	if len(ma3) != 3 {
		t.Fatalf("Expected 3 coefficients, got %v", ma3)
	}
	if math.Abs(ma3[0]-1) > eps || ma3[1] != 0.1 || ma3[2] != 0.1 {
		t.Errorf("Unexpected MA(3) coefficients %v", ma3)
	}

	if got := EstimateMA(series, 6); len(got) != 0 {
		t.Errorf("Expected empty coefficients when n <= order, got %v", got)
	}
	if got := EstimateMA(series, 0); len(got) != 0 {
		t.Errorf("Expected empty coefficients for order 0, got %v", got)
	}
}

func TestEstimateMA_Degenerate(t *testing.T) {
	got := EstimateMA([]float64{2, 2, 2, 2, 2}, 1)
	if len(got) != 1 || !math.IsNaN(got[0]) {
		t.Errorf("Expected NaN slope for constant input, got %v", got)
	}

	// a single regression pair
	got = EstimateMA([]float64{1, 2, 3}, 2)
	if len(got) != 2 || !math.IsNaN(got[0]) || got[1] != 0.1 {
		t.Errorf("Expected [NaN 0.1], got %v", got)
	}
}

func TestEstimate_SeasonalOrders(t *testing.T) {
	series := make([]float64, 40)
	for i := range series {
		series[i] = math.Sin(float64(i)) + 0.1*float64(i%3)
	}

	c, err := Estimate(series, SarimaOrder{P: 1, Q: 2, SP: 1, SQ: 1, S: 7})
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if len(c.AR) != 1 || len(c.MA) != 2 {
		t.Errorf("Unexpected non-seasonal lengths AR=%d MA=%d", len(c.AR), len(c.MA))
	}
	if len(c.SeasonalAR) != 7 || len(c.SeasonalMA) != 7 {
		t.Errorf("Unexpected seasonal lengths AR=%d MA=%d", len(c.SeasonalAR), len(c.SeasonalMA))
	}

	sum := 0.0
	for _, v := range series {
		sum += v
	}
	if math.Abs(c.Intercept-sum/40) > eps {
		t.Errorf("Expected intercept %v, got %v", sum/40, c.Intercept)
	}
}

func TestComputeResiduals(t *testing.T) {
	diffed := []float64{1, 2, 3, 4}
	order := SarimaOrder{P: 1, Q: 1}
	c := Coefficients{AR: []float64{0.5}, MA: []float64{0.2}, Intercept: 1}

	got := ComputeResiduals(diffed, order, c)
	want := []float64{0.5, 0.9, 1.32}
	if len(got) != len(want) {
		t.Fatalf("Expected %d residuals, got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > eps {
			t.Errorf("Residual %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestComputeResiduals_LengthFollowsMaxLag(t *testing.T) {
	diffed := make([]float64, 12)
	tests := []struct {
		order SarimaOrder
		want  int
	}{
		{SarimaOrder{}, 11},
		{SarimaOrder{P: 3, Q: 1}, 9},
		{SarimaOrder{P: 1, Q: 2}, 10},
		{SarimaOrder{P: 12}, 0},
	}
	for _, tt := range tests {
		got := ComputeResiduals(diffed, tt.order, Coefficients{})
		if len(got) != tt.want {
			t.Errorf("%s: expected %d residuals, got %d", tt.order, tt.want, len(got))
		}
	}
}

func TestSolveError(t *testing.T) {
	if err := solveError(nil); err != nil {
		t.Errorf("Expected nil for a clean solve, got %v", err)
	}
	if err := solveError(mat.Condition(1e17)); err != nil {
		t.Errorf("Ill-conditioned warning must not fail the fit, got %v", err)
	}
	if err := solveError(fmt.Errorf("wrapped: %w", mat.Condition(1e18))); err != nil {
		t.Errorf("Wrapped condition warning must not fail the fit, got %v", err)
	}
	if err := solveError(errors.New("dimension mismatch")); !errors.Is(err, ErrSingularMatrix) {
		t.Errorf("Expected ErrSingularMatrix for other solver errors, got %v", err)
	}
}
