package forecast

import (
	"math"
	"testing"
)

func TestEvaluate(t *testing.T) {
	diffed := []float64{1, 2, 3, 4}
	residuals := []float64{0.5, -0.5}
	order := SarimaOrder{P: 1}

	m := Evaluate(diffed, residuals, order, 5)

	logLik := -math.Log(2*math.Pi*0.25) - 1
	want := EvaluationMetrics{
		MSE:           0.25,
		MAE:           0.5,
		R2:            1 - 0.5/30,
		AIC:           4 - 2*logLik,
		BIC:           math.Log(5)*2 - 2*logLik,
		LogLikelihood: logLik,
	}

	check := func(name string, got, want float64) {
		if math.Abs(got-want) > eps {
			t.Errorf("%s: expected %v, got %v", name, want, got)
		}
	}
	check("MSE", m.MSE, want.MSE)
	check("MAE", m.MAE, want.MAE)
	check("R2", m.R2, want.R2)
	check("AIC", m.AIC, want.AIC)
	check("BIC", m.BIC, want.BIC)
	check("LogLikelihood", m.LogLikelihood, want.LogLikelihood)

	if m.IsSentinel() {
		t.Error("Successful evaluation must not be a sentinel")
	}
}

func TestEvaluate_EmptyResiduals(t *testing.T) {
	m := Evaluate([]float64{1, 2}, nil, SarimaOrder{P: 1}, 3)
	if m != SentinelMetrics() {
		t.Errorf("Expected sentinel metrics, got %+v", m)
	}
	if !m.IsSentinel() {
		t.Error("Expected IsSentinel to be true")
	}
	if m.MSE != math.MaxFloat64 || m.MAE != math.MaxFloat64 || m.BIC != math.MaxFloat64 {
		t.Errorf("Unexpected sentinel values %+v", m)
	}
	if m.R2 != 0 || m.LogLikelihood != 0 {
		t.Errorf("Expected zero R2 and log-likelihood, got %+v", m)
	}
}

func TestEvaluate_ExactFit(t *testing.T) {
	m := Evaluate([]float64{1, -1, 1, -1}, []float64{0, 0, 0}, SarimaOrder{P: 1}, 4)
	if math.IsInf(m.AIC, 0) || math.IsNaN(m.AIC) {
		t.Fatalf("Expected finite AIC, got %v", m.AIC)
	}
	if m.AIC != -math.MaxFloat64 {
		t.Errorf("Expected exact fit to score -MaxFloat64, got %v", m.AIC)
	}
	if m.IsSentinel() {
		t.Error("Exact fit must not be a sentinel")
	}
}

func TestEvaluate_ZeroVariance(t *testing.T) {
	m := Evaluate([]float64{2, 2, 2}, []float64{2, 2}, SarimaOrder{}, 3)
	if m.R2 != 0 {
		t.Errorf("Expected R2 0 when total sum of squares is zero, got %v", m.R2)
	}
}
