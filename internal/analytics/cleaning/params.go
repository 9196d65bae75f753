package cleaning

import (
	"github.com/soltixdb/sitecast/internal/analytics/stats"
)

// NormalizationParams holds the z-score parameters of one cleaned series.
type NormalizationParams struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// IdentityParams leaves values unchanged when used to denormalize.
func IdentityParams() NormalizationParams {
	return NormalizationParams{Mean: 0, Std: 1}
}

// FitParams computes normalization parameters for values.
// A zero standard deviation is replaced by 1 so the transform stays invertible.
func FitParams(values []float64) NormalizationParams {
	std := stats.StdDev(values)
	if std == 0 {
		std = 1
	}
	return NormalizationParams{
		Mean: stats.Mean(values),
		Std:  std,
	}
}

// Normalize maps every value to (v - mean) / std.
func (p NormalizationParams) Normalize(values []float64) []float64 {
	std := p.Std
	if std == 0 {
		std = 1
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - p.Mean) / std
	}
	return out
}

// Denormalize maps every value back to v*std + mean.
func (p NormalizationParams) Denormalize(values []float64) []float64 {
	std := p.Std
	if std == 0 {
		std = 1
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v*std + p.Mean
	}
	return out
}
