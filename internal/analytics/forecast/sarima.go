package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/soltixdb/sitecast/internal/analytics"
	"github.com/soltixdb/sitecast/internal/analytics/cleaning"
)

// SARIMAForecaster cleans the input, selects the best candidate order by AIC
// and forecasts with it.
type SARIMAForecaster struct {
	// Candidates overrides the default grid when non-empty.
	Candidates []SarimaOrder
}

// NewSARIMAForecaster creates a forecaster over the default candidate grid
func NewSARIMAForecaster() *SARIMAForecaster {
	return &SARIMAForecaster{}
}

func init() {
	RegisterForecaster("sarima", NewSARIMAForecaster())
}

// Name returns the algorithm name
func (f *SARIMAForecaster) Name() string {
	return "sarima"
}

// Forecast generates predictions for config.Horizon periods after the last point.
func (f *SARIMAForecaster) Forecast(ctx context.Context, data []DataPoint, config ForecastConfig) (*ForecastResult, error) {
	minPoints := config.MinDataPoints
	if minPoints < MinTrainingPoints {
		minPoints = MinTrainingPoints
	}
	if len(data) < minPoints {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientData, minPoints, len(data))
	}

	ordered := analytics.TimeSeriesData(data).SortedByTime()
	cleaned, params := cleaning.Clean(ordered.Values())

	model, metrics, err := SelectBest(ctx, cleaned, SelectOptions{
		Parallelism:   config.Parallelism,
		Candidates:    f.Candidates,
		Normalization: params,
	})
	if err != nil {
		return nil, err
	}
	if metrics.IsSentinel() && !model.Usable() {
		return nil, fmt.Errorf("%w: every candidate order failed", ErrNoUsableModel)
	}

	values := model.Forecast(config.Horizon)

	interval := config.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	last, _ := ordered.Last()
	predictions := make([]ForecastPoint, len(values))
	for i, v := range values {
		predictions[i] = ForecastPoint{
			Time:  last.Time.Add(time.Duration(i+1) * interval),
			Value: v,
		}
	}

	return &ForecastResult{
		Predictions: predictions,
		Residuals:   model.Residuals,
		ModelInfo:   NewModelInfo(model, metrics, len(data)),
	}, nil
}

// NewModelInfo summarizes a fitted model for reporting.
func NewModelInfo(model *FittedModel, metrics EvaluationMetrics, dataPoints int) ModelInfo {
	return ModelInfo{
		Algorithm: "sarima",
		Order:     model.Order.String(),
		Parameters: map[string]interface{}{
			"p": model.Order.P,
			"d": model.Order.D,
			"q": model.Order.Q,
			"P": model.Order.SP,
			"D": model.Order.SD,
			"Q": model.Order.SQ,
			"s": model.Order.S,
		},
		MSE:        metrics.MSE,
		MAE:        metrics.MAE,
		RMSE:       math.Sqrt(metrics.MSE),
		R2:         metrics.R2,
		AIC:        metrics.AIC,
		BIC:        metrics.BIC,
		DataPoints: dataPoints,
		Degenerate: metrics.IsSentinel(),
	}
}
