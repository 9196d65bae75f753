package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/soltixdb/sitecast/internal/analytics/forecast"
)

// DefaultMethod is the forecaster used when a request names none.
const DefaultMethod = "sarima"

// ForecastSeries runs a registered forecaster over an ad-hoc series without
// storing a model.
func (s *ForecastService) ForecastSeries(ctx context.Context, method string, points []forecast.DataPoint, horizon int) (*forecast.ForecastResult, error) {
	if method == "" {
		method = DefaultMethod
	}
	forecaster, err := forecast.GetForecaster(method)
	if err != nil {
		return nil, NewServiceErrorWithDetails(CodeInvalidMethod, err.Error(), map[string]interface{}{
			"available_methods": forecast.ListForecasters(),
		})
	}

	h, err := s.horizon(horizon)
	if err != nil {
		return nil, err
	}

	cfg := forecast.DefaultForecastConfig()
	cfg.Horizon = h
	cfg.MinDataPoints = s.cfg.MinPoints
	cfg.Parallelism = s.cfg.Parallelism

	result, err := forecaster.Forecast(ctx, points, cfg)
	if errors.Is(err, forecast.ErrInsufficientData) {
		return nil, NewServiceErrorWithDetails(CodeInsufficientData, err.Error(), map[string]interface{}{
			"points":   len(points),
			"required": cfg.MinDataPoints,
		})
	}
	if errors.Is(err, forecast.ErrNoUsableModel) {
		return nil, NewServiceError(CodeModelFailed, "no candidate order could be fitted to the series")
	}
	if err != nil {
		return nil, fmt.Errorf("%s forecast: %w", method, err)
	}
	s.metrics.ForecastServed()
	s.logger.WithContext(ctx).Info("Series forecast completed",
		"method", method,
		"points", len(points),
		"horizon", h,
		"order", result.ModelInfo.Order)
	return result, nil
}
