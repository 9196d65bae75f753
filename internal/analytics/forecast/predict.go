package forecast

import (
	"math"

	"github.com/soltixdb/sitecast/internal/analytics/stats"
)

const (
	clipLowFactor  = 0.8
	clipHighFactor = 1.2

	trendWindow  = 20
	minTrendLen  = 10
	seasonWindow = 28
	minSeasonLen = 14
)

// Forecast predicts horizon steps past the model's own training series.
func (m *FittedModel) Forecast(horizon int) []float64 {
	return Predict(m, m.Series, horizon)
}

// Predict returns horizon denormalized forecasts continuing series.
// A non-positive horizon yields an empty slice.
func Predict(model *FittedModel, series []float64, horizon int) []float64 {
	normalized := PredictNormalized(model, series, horizon)
	return model.Normalization.Denormalize(normalized)
}

// PredictNormalized is Predict without the final denormalization. Every value
// lies within [0.8*min(series), 1.2*max(series)].
func PredictNormalized(model *FittedModel, series []float64, horizon int) []float64 {
	if horizon <= 0 {
		return []float64{}
	}

	n := len(series)
	maxLag := model.Order.MaxLag()

	window := append([]float64(nil), tail(series, maxLag)...)
	residualWindow := append([]float64(nil), tail(model.Residuals, maxLag)...)

	lo, hi := stats.MinMax(series)
	lo *= clipLowFactor
	hi *= clipHighFactor

	trend := 0.0
	if n >= minTrendLen {
		trend = stats.Slope(tail(series, trendWindow))
	}
	offset := weeklyOffset(series)

	out := make([]float64, horizon)
	for t := 0; t < horizon; t++ {
		pred := 0.0
		for j := 0; j < len(model.AR) && j < len(window); j++ {
			pred += model.AR[j] * window[len(window)-j-1]
		}
		for j := 0; j < len(model.MA) && j < len(residualWindow); j++ {
			pred += model.MA[j] * residualWindow[len(residualWindow)-j-1]
		}

		pred += trend * float64(t+1)
		phase := (n + t) % WeeklyPeriod
		pred += offset * math.Sin(2*math.Pi*float64(phase)/WeeklyPeriod)

		pred = math.Max(lo, math.Min(hi, pred))
		out[t] = pred

		window = append(window, pred)
		if len(window) > maxLag {
			window = window[1:]
		}

		newResidual := pred
		if len(window) > 1 {
			newResidual = pred - window[len(window)-2]
		}
		residualWindow = append(residualWindow, newResidual)
		if len(residualWindow) > maxLag {
			residualWindow = residualWindow[1:]
		}
	}
	return out
}

// weeklyOffset compares the mean of the last four weeks' points sharing the
// next step's weekday phase with the mean of those four weeks.
func weeklyOffset(series []float64) float64 {
	n := len(series)
	if n < minSeasonLen {
		return 0
	}
	start := n - seasonWindow
	if start < 0 {
		start = 0
	}
	phase := n % WeeklyPeriod
	var same []float64
	for i := start; i < n; i++ {
		if i%WeeklyPeriod == phase {
			same = append(same, series[i])
		}
	}
	if len(same) == 0 {
		return 0
	}
	return stats.Mean(same) - stats.Mean(series[start:])
}

// tail returns the last k elements of values, or all of them when shorter.
func tail(values []float64, k int) []float64 {
	if len(values) <= k {
		return values
	}
	return values[len(values)-k:]
}
