package cleaning

import (
	"github.com/soltixdb/sitecast/internal/analytics/stats"
)

const (
	// SeasonLength is the weekly period used by the seasonal adjustment stage.
	SeasonLength = 7

	// minOutlierPoints is the shortest series the IQR stage will touch
	minOutlierPoints = 10

	// iqrMultiplier widens the quartile fences
	iqrMultiplier = 1.5

	// seasonalTrainingFraction is the leading share of the series used to
	// estimate seasonal factors
	seasonalTrainingFraction = 0.8

	// maxSmoothingWindow caps the causal moving-average window
	maxSmoothingWindow = 5
)

// Report describes what the pipeline changed in one series.
type Report struct {
	InputPoints      int                 `json:"input_points"`
	OutliersReplaced int                 `json:"outliers_replaced"`
	MissingFilled    int                 `json:"missing_filled"`
	SmoothingWindow  int                 `json:"smoothing_window"`
	SeasonalAdjusted bool                `json:"seasonal_adjusted"`
	Params           NormalizationParams `json:"params"`
}

// Clean runs the full pipeline and returns the normalized series together with
// the parameters needed to map forecasts back to the original scale.
func Clean(series []float64) ([]float64, NormalizationParams) {
	normalized, report := CleanWithReport(series)
	return normalized, report.Params
}

// CleanWithReport is Clean plus per-stage counters for logging.
func CleanWithReport(series []float64) ([]float64, Report) {
	report := Report{InputPoints: len(series)}

	data := make([]float64, len(series))
	copy(data, series)

	data, report.OutliersReplaced = RemoveOutliersIQR(data)
	data, report.SeasonalAdjusted = AdjustSeasonality(data, SeasonLength)
	data, report.SmoothingWindow = SmoothCausal(data)
	data, report.MissingFilled = FillMissing(data)

	report.Params = FitParams(data)
	return report.Params.Normalize(data), report
}

// RemoveOutliersIQR replaces values outside [Q1-1.5*IQR, Q3+1.5*IQR] with the
// previous cleaned value, or with the series mean when the first value is an
// outlier. Series shorter than 10 points are returned unchanged.
// Non-finite values fail the bounds check and are replaced the same way.
func RemoveOutliersIQR(data []float64) ([]float64, int) {
	if len(data) < minOutlierPoints {
		return data, 0
	}

	finite := finiteValues(data)
	q1, q3, iqr := stats.Quartiles(finite)
	lower := q1 - iqrMultiplier*iqr
	upper := q3 + iqrMultiplier*iqr
	mean := stats.Mean(finite)

	cleaned := make([]float64, 0, len(data))
	replaced := 0
	for _, v := range data {
		if v >= lower && v <= upper {
			cleaned = append(cleaned, v)
			continue
		}
		replaced++
		if len(cleaned) > 0 {
			cleaned = append(cleaned, cleaned[len(cleaned)-1])
		} else {
			cleaned = append(cleaned, mean)
		}
	}
	return cleaned, replaced
}

// AdjustSeasonality removes a per-phase offset from every element. Phase means
// and the overall mean come from the leading 80% of the series only; the
// remaining tail is adjusted with those same factors. Series shorter than two
// seasons are returned unchanged.
func AdjustSeasonality(data []float64, seasonLength int) ([]float64, bool) {
	if seasonLength <= 0 || len(data) < seasonLength*2 {
		return data, false
	}

	trainingSize := int(float64(len(data)) * seasonalTrainingFraction)

	sums := make([]float64, seasonLength)
	counts := make([]int, seasonLength)
	for i := 0; i < trainingSize; i++ {
		phase := i % seasonLength
		sums[phase] += data[i]
		counts[phase]++
	}
	overall := stats.Mean(data[:trainingSize])

	adjusted := make([]float64, len(data))
	for i, v := range data {
		phase := i % seasonLength
		phaseMean := 0.0
		if counts[phase] > 0 {
			phaseMean = sums[phase] / float64(counts[phase])
		}
		adjusted[i] = v - (phaseMean - overall)
	}
	return adjusted, true
}

// SmoothCausal applies a backward-looking moving average: position i averages
// indices [max(0, i-window), i]. The window is min(5, n/10+1).
// Series shorter than 3 points are returned unchanged with a window of 0.
func SmoothCausal(data []float64) ([]float64, int) {
	if len(data) < 3 {
		return data, 0
	}

	window := min(maxSmoothingWindow, len(data)/10+1)
	smoothed := make([]float64, len(data))
	for i := range data {
		start := max(0, i-window)
		sum := 0.0
		for j := start; j <= i; j++ {
			sum += data[j]
		}
		smoothed[i] = sum / float64(i-start+1)
	}
	return smoothed, window
}

// FillMissing replaces NaN and infinite values with the previous cleaned value,
// or 0 for the first element.
func FillMissing(data []float64) ([]float64, int) {
	filled := make([]float64, len(data))
	count := 0
	for i, v := range data {
		if stats.IsFinite(v) {
			filled[i] = v
			continue
		}
		count++
		if i > 0 {
			filled[i] = filled[i-1]
		}
	}
	return filled, count
}

func finiteValues(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if stats.IsFinite(v) {
			out = append(out, v)
		}
	}
	return out
}
