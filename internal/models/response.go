package models

import (
	"time"

	"github.com/soltixdb/sitecast/internal/analytics/cleaning"
	"github.com/soltixdb/sitecast/internal/analytics/forecast"
	"github.com/soltixdb/sitecast/internal/source"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Models    int    `json:"models"`
}

// GroupResponse describes the model held for one group.
type GroupResponse struct {
	SiteID        int64              `json:"site_id"`
	ThresholdType string             `json:"threshold_type"`
	Model         forecast.ModelInfo `json:"model"`
	Cleaning      *cleaning.Report   `json:"cleaning,omitempty"`
	LastObserved  string             `json:"last_observed"`
	UpdatedAt     string             `json:"updated_at"`
}

// GroupListResponse represents list groups response
type GroupListResponse struct {
	Groups []GroupResponse `json:"groups"`
	Count  int             `json:"count"`
}

// ForecastPrediction is one dated forecast value.
type ForecastPrediction struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// GroupForecastResponse represents a forecast for one group.
type GroupForecastResponse struct {
	SiteID        int64                `json:"site_id"`
	ThresholdType string               `json:"threshold_type"`
	Horizon       int                  `json:"horizon"`
	Predictions   []ForecastPrediction `json:"predictions"`
	ModelInfo     forecast.ModelInfo   `json:"model_info"`
}

// NewGroupForecastResponse formats predictions as calendar dates.
func NewGroupForecastResponse(key source.GroupKey, points []forecast.ForecastPoint, info forecast.ModelInfo) GroupForecastResponse {
	preds := make([]ForecastPrediction, len(points))
	for i, p := range points {
		preds[i] = ForecastPrediction{Date: p.Time.Format(time.DateOnly), Value: p.Value}
	}
	return GroupForecastResponse{
		SiteID:        key.SiteID,
		ThresholdType: key.ThresholdType,
		Horizon:       len(points),
		Predictions:   preds,
		ModelInfo:     info,
	}
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
