package stats

import (
	"math"
	"testing"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"empty", nil, 0},
		{"single", []float64{4}, 4},
		{"several", []float64{1, 2, 3, 4}, 2.5},
		{"negative", []float64{-2, 2, -4, 4}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mean(tt.values); math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("Mean(%v) = %v, expected %v", tt.values, got, tt.expected)
			}
		})
	}
}

func TestStdDev(t *testing.T) {
	if got := StdDev(nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %v", got)
	}
	if got := StdDev([]float64{7}); got != 0 {
		t.Errorf("expected 0 for single value, got %v", got)
	}
	if got := StdDev([]float64{3, 3, 3, 3}); got != 0 {
		t.Errorf("expected 0 for constant input, got %v", got)
	}

	// Sample std of 2,4,4,4,5,5,7,9 is sqrt(32/7)
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	expected := math.Sqrt(32.0 / 7.0)
	if math.Abs(got-expected) > 1e-12 {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	tests := []struct {
		p        float64
		expected float64
	}{
		{25, 2.75},
		{50, 5.5},
		{75, 8.25},
		{90, 9.9},
		// positions outside [1, n) clamp to the ends
		{5, 1},
		{100, 10},
	}

	for _, tt := range tests {
		got := Percentile(values, tt.p)
		if math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("Percentile(%v) = %v, expected %v", tt.p, got, tt.expected)
		}
	}
}

func TestPercentile_DoesNotReorderInput(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}
	_ = Percentile(values, 50)

	expected := []float64{5, 1, 4, 2, 3}
	for i := range values {
		if values[i] != expected[i] {
			t.Fatalf("input modified at %d: %v", i, values)
		}
	}
}

func TestPercentile_Edge(t *testing.T) {
	if got := Percentile(nil, 50); got != 0 {
		t.Errorf("expected 0 for empty input, got %v", got)
	}
	if got := Percentile([]float64{42}, 25); got != 42 {
		t.Errorf("expected 42 for single value, got %v", got)
	}
}

func TestQuartiles(t *testing.T) {
	q1, q3, iqr := Quartiles([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	if q1 != 2.75 || q3 != 8.25 {
		t.Errorf("unexpected quartiles q1=%v q3=%v", q1, q3)
	}
	if iqr != 5.5 {
		t.Errorf("expected IQR 5.5, got %v", iqr)
	}

	q1, q3, iqr = Quartiles(nil)
	if q1 != 0 || q3 != 0 || iqr != 0 {
		t.Errorf("expected zeros for empty input")
	}
}

func TestMinMax(t *testing.T) {
	lo, hi := MinMax([]float64{3, -1, 8, 2})
	if lo != -1 || hi != 8 {
		t.Errorf("expected (-1, 8), got (%v, %v)", lo, hi)
	}

	lo, hi = MinMax(nil)
	if lo != 0 || hi != 0 {
		t.Errorf("expected (0, 0) for empty input, got (%v, %v)", lo, hi)
	}
}

func TestSlope(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"increasing", []float64{1, 3, 5, 7}, 2},
		{"decreasing", []float64{10, 9, 8}, -1},
		{"flat", []float64{4, 4, 4, 4}, 0},
		{"single", []float64{4}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slope(tt.values); math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("Slope(%v) = %v, expected %v", tt.values, got, tt.expected)
			}
		})
	}
}

func TestIsFinite(t *testing.T) {
	if !IsFinite(1.5) {
		t.Error("1.5 should be finite")
	}
	if IsFinite(math.NaN()) || IsFinite(math.Inf(1)) || IsFinite(math.Inf(-1)) {
		t.Error("NaN and Inf should not be finite")
	}
}
