package forecast

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/soltixdb/sitecast/internal/analytics"
)

// DataPoint is an alias to the shared analytics.TimeSeriesPoint type.
type DataPoint = analytics.TimeSeriesPoint

// ForecastPoint represents a single forecast prediction
type ForecastPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// ModelInfo contains metadata about the forecast model
type ModelInfo struct {
	Algorithm  string                 `json:"algorithm"`
	Order      string                 `json:"order,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	MSE        float64                `json:"mse"`
	MAE        float64                `json:"mae"`
	RMSE       float64                `json:"rmse"`
	R2         float64                `json:"r2"`
	AIC        float64                `json:"aic"`
	BIC        float64                `json:"bic"`
	DataPoints int                    `json:"data_points"` // Number of data points used
	Degenerate bool                   `json:"degenerate,omitempty"` // No candidate produced usable metrics
}

// ForecastResult contains the forecast predictions and model information
type ForecastResult struct {
	Predictions []ForecastPoint `json:"predictions"`
	Residuals   []float64       `json:"residuals,omitempty"`
	ModelInfo   ModelInfo       `json:"model_info"`
}

// ForecastConfig holds configuration for forecasting
type ForecastConfig struct {
	Horizon       int           // Number of periods to forecast
	MinDataPoints int           // Minimum data points required
	Interval      time.Duration // Time interval between data points
	Parallelism   int           // Concurrent candidate fits during order selection
}

// DefaultForecastConfig returns default forecast configuration
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		Horizon:       30,
		MinDataPoints: MinTrainingPoints,
		Interval:      24 * time.Hour,
		Parallelism:   4,
	}
}

// Forecaster interface for all forecasting algorithms
type Forecaster interface {
	// Name returns the algorithm name
	Name() string
	// Forecast generates predictions for future time periods
	Forecast(ctx context.Context, data []DataPoint, config ForecastConfig) (*ForecastResult, error)
}

// Registry holds available forecasters
var forecasterRegistry = make(map[string]Forecaster)

// RegisterForecaster adds a forecaster to the registry
func RegisterForecaster(name string, forecaster Forecaster) {
	forecasterRegistry[name] = forecaster
}

// GetForecaster returns a forecaster by name
func GetForecaster(name string) (Forecaster, error) {
	if forecaster, ok := forecasterRegistry[name]; ok {
		return forecaster, nil
	}
	return nil, fmt.Errorf("unknown forecaster: %s", name)
}

// ListForecasters returns the registered forecaster names in sorted order
func ListForecasters() []string {
	names := make([]string, 0, len(forecasterRegistry))
	for name := range forecasterRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
