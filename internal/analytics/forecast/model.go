package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/soltixdb/sitecast/internal/analytics/cleaning"
	"github.com/soltixdb/sitecast/internal/analytics/stats"
)

// FittedModel is the complete state of one trained SARIMA model. It is not
// modified after Train returns; Update produces a new value.
type FittedModel struct {
	Order         SarimaOrder                  `json:"order"`
	AR            []float64                    `json:"ar"`
	MA            []float64                    `json:"ma"`
	SeasonalAR    []float64                    `json:"seasonal_ar"`
	SeasonalMA    []float64                    `json:"seasonal_ma"`
	Intercept     float64                      `json:"intercept"`
	Residuals     []float64                    `json:"residuals"`
	Series        []float64                    `json:"series"`
	Normalization cleaning.NormalizationParams `json:"normalization"`
	Metrics       EvaluationMetrics            `json:"metrics"`
	TrainedAt     time.Time                    `json:"trained_at"`
}

// Train fits order to a normalized series. It never fails: estimation errors,
// panics and non-finite AIC values all yield SentinelMetrics. The returned model
// carries identity normalization; see WithNormalization.
func Train(series []float64, order SarimaOrder) (model *FittedModel, metrics EvaluationMetrics) {
	filled, _ := cleaning.FillMissing(series)
	model = &FittedModel{
		Order:         order,
		Series:        filled,
		Normalization: cleaning.IdentityParams(),
		TrainedAt:     time.Now().UTC(),
	}

	defer func() {
		if r := recover(); r != nil {
			model.Metrics = SentinelMetrics()
			metrics = model.Metrics
		}
	}()

	metrics, _ = fit(model)
	model.Metrics = metrics
	return model, metrics
}

// fit fills the coefficient and residual fields of m from m.Series.
func fit(m *FittedModel) (EvaluationMetrics, error) {
	if err := m.Order.Validate(); err != nil {
		return SentinelMetrics(), err
	}

	differenced := Difference(m.Series, m.Order.D, m.Order.SD, m.Order.S)

	coeffs, err := Estimate(differenced, m.Order)
	m.AR, m.MA = coeffs.AR, coeffs.MA
	m.SeasonalAR, m.SeasonalMA = coeffs.SeasonalAR, coeffs.SeasonalMA
	m.Intercept = coeffs.Intercept
	if err != nil {
		return SentinelMetrics(), fmt.Errorf("estimate %s: %w", m.Order, err)
	}

	m.Residuals = ComputeResiduals(differenced, m.Order, coeffs)

	metrics := Evaluate(differenced, m.Residuals, m.Order, len(m.Series))
	if math.IsNaN(metrics.AIC) || math.IsInf(metrics.AIC, 1) {
		return SentinelMetrics(), fmt.Errorf("evaluate %s: non-finite aic", m.Order)
	}
	return metrics, nil
}

// WithNormalization returns a copy of m that denormalizes forecasts with params.
func (m *FittedModel) WithNormalization(params cleaning.NormalizationParams) *FittedModel {
	cp := *m
	cp.Normalization = params
	return &cp
}

// Update retrains the same order on the stored series extended by newPoints.
// newPoints must already be on the model's normalized scale. The receiver is
// left untouched.
func (m *FittedModel) Update(newPoints []float64) (*FittedModel, EvaluationMetrics) {
	return Retrain(m, newPoints)
}

// Retrain is the functional form of Update.
func Retrain(m *FittedModel, newPoints []float64) (*FittedModel, EvaluationMetrics) {
	extended := make([]float64, 0, len(m.Series)+len(newPoints))
	extended = append(extended, m.Series...)
	extended = append(extended, newPoints...)

	next, metrics := Train(extended, m.Order)
	return next.WithNormalization(m.Normalization), metrics
}

// Failed reports whether training ended with sentinel metrics.
func (m *FittedModel) Failed() bool {
	return m.Metrics.IsSentinel()
}

// Usable reports whether every coefficient and residual is finite, so the
// model forecasts finite values. A failed model may still be usable.
func (m *FittedModel) Usable() bool {
	if !stats.IsFinite(m.Intercept) {
		return false
	}
	for _, group := range [][]float64{m.AR, m.MA, m.SeasonalAR, m.SeasonalMA, m.Residuals} {
		for _, v := range group {
			if !stats.IsFinite(v) {
				return false
			}
		}
	}
	return true
}
