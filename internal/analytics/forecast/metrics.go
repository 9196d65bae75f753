package forecast

import (
	"math"

	"github.com/soltixdb/sitecast/internal/analytics/stats"
)

// EvaluationMetrics describes how well a fitted model explains its training data.
type EvaluationMetrics struct {
	MSE           float64 `json:"mse"`
	MAE           float64 `json:"mae"`
	R2            float64 `json:"r2"`
	AIC           float64 `json:"aic"`
	BIC           float64 `json:"bic"`
	LogLikelihood float64 `json:"log_likelihood"`
}

// SentinelMetrics is the record of a failed fit. It loses every AIC comparison
// against a successful one.
func SentinelMetrics() EvaluationMetrics {
	return EvaluationMetrics{
		MSE: math.MaxFloat64,
		MAE: math.MaxFloat64,
		AIC: math.MaxFloat64,
		BIC: math.MaxFloat64,
	}
}

// IsSentinel reports whether m marks a failed fit.
func (m EvaluationMetrics) IsSentinel() bool {
	return m.AIC == math.MaxFloat64
}

// Evaluate scores residuals against the differenced series they came from.
// seriesLen is the length of the undifferenced training series and is used as
// the sample size of BIC.
func Evaluate(differenced, residuals []float64, order SarimaOrder, seriesLen int) EvaluationMetrics {
	if len(residuals) == 0 {
		return SentinelMetrics()
	}

	n := float64(len(residuals))
	rss, absSum := 0.0, 0.0
	for _, r := range residuals {
		rss += r * r
		absSum += math.Abs(r)
	}
	mse := rss / n

	residualMean := stats.Mean(residuals)
	tss := 0.0
	for _, v := range differenced {
		d := v - residualMean
		tss += d * d
	}
	r2 := 0.0
	if tss > 0 {
		r2 = 1 - rss/tss
	}

	logLik := -0.5*n*math.Log(2*math.Pi*mse) - 0.5*n
	k := float64(order.ParameterCount())

	m := EvaluationMetrics{
		MSE:           mse,
		MAE:           absSum / n,
		R2:            r2,
		AIC:           2*k - 2*logLik,
		BIC:           math.Log(float64(seriesLen))*k - 2*logLik,
		LogLikelihood: logLik,
	}
	if math.IsInf(logLik, 1) {
		// Exact fit: keep it the best possible score while staying encodable.
		m.LogLikelihood = math.MaxFloat64
		m.AIC = -math.MaxFloat64
		m.BIC = -math.MaxFloat64
	}
	return m
}
