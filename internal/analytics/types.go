// Package analytics holds the time-series types shared by the cleaning and
// forecasting packages.
package analytics

import (
	"sort"
	"time"
)

// TimeSeriesPoint is one daily observation.
type TimeSeriesPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// TimeSeriesData is an ordered collection of points. Position is time; no
// calendar alignment is assumed and duplicates are kept.
type TimeSeriesData []TimeSeriesPoint

// Values extracts just the values from the time series
func (ts TimeSeriesData) Values() []float64 {
	values := make([]float64, len(ts))
	for i, p := range ts {
		values[i] = p.Value
	}
	return values
}

// Times extracts just the times from the time series
func (ts TimeSeriesData) Times() []time.Time {
	times := make([]time.Time, len(ts))
	for i, p := range ts {
		times[i] = p.Time
	}
	return times
}

// Len returns the number of data points
func (ts TimeSeriesData) Len() int {
	return len(ts)
}

// SortedByTime returns a copy ordered by time. Points with equal times keep
// their relative order.
func (ts TimeSeriesData) SortedByTime() TimeSeriesData {
	out := make(TimeSeriesData, len(ts))
	copy(out, ts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

// Last returns the final point and false when the series is empty.
func (ts TimeSeriesData) Last() (TimeSeriesPoint, bool) {
	if len(ts) == 0 {
		return TimeSeriesPoint{}, false
	}
	return ts[len(ts)-1], true
}
