package models

import (
	"time"

	"github.com/soltixdb/sitecast/internal/source"
)

// TrainRequest carries upstream summary records in their loosely typed page form.
type TrainRequest struct {
	Records []source.PageRecord `json:"records"`
}

// ForecastRequest trains the groups found in Records and forecasts each of them.
type ForecastRequest struct {
	Records []source.PageRecord `json:"records"`
	Horizon int                 `json:"horizon,omitempty"` // 0 uses the configured default
}

// SeriesPoint is one point of an ad-hoc series.
type SeriesPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// SeriesForecastRequest forecasts a single series without storing a model.
type SeriesForecastRequest struct {
	Method  string        `json:"method,omitempty"` // default: sarima
	Horizon int           `json:"horizon,omitempty"`
	Points  []SeriesPoint `json:"points"`
}

// ObservationsRequest appends raw daily values to a group. A null value marks
// a missing day.
type ObservationsRequest struct {
	Values []*float64 `json:"values"`
}
