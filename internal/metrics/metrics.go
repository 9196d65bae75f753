// Package metrics exposes prometheus collectors for training and forecasting.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Group outcome labels.
const (
	StatusTrained = "trained"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Metrics groups the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	groupTrainings   *prometheus.CounterVec
	trainingDuration prometheus.Histogram
	groupR2          *prometheus.GaugeVec
	forecasts        prometheus.Counter
	observations     *prometheus.CounterVec
	modelsLoaded     prometheus.Gauge
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		groupTrainings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitecast_group_trainings_total",
				Help: "Group training attempts by outcome",
			},
			[]string{"status"},
		),
		trainingDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sitecast_group_training_duration_seconds",
				Help:    "Time spent selecting a model for one group",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),
		groupR2: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sitecast_group_r2",
				Help: "R squared of the selected model per group",
			},
			[]string{"group"},
		),
		forecasts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sitecast_forecasts_total",
				Help: "Forecasts produced",
			},
		),
		observations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitecast_observation_batches_total",
				Help: "Observation batches applied as online updates, by outcome",
			},
			[]string{"status"},
		),
		modelsLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sitecast_models",
				Help: "Groups with a selected model in memory",
			},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GroupTrained records a group outcome. took and r2 are ignored unless status is StatusTrained.
func (m *Metrics) GroupTrained(group, status string, took time.Duration, r2 float64) {
	if m == nil {
		return
	}
	m.groupTrainings.WithLabelValues(status).Inc()
	if status == StatusTrained {
		m.trainingDuration.Observe(took.Seconds())
		m.groupR2.WithLabelValues(group).Set(r2)
	}
}

// ForecastServed counts one produced forecast.
func (m *Metrics) ForecastServed() {
	if m == nil {
		return
	}
	m.forecasts.Inc()
}

// ObservationsApplied counts one observation batch.
func (m *Metrics) ObservationsApplied(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.observations.WithLabelValues(status).Inc()
}

// SetModels sets the number of groups holding a model.
func (m *Metrics) SetModels(n int) {
	if m == nil {
		return
	}
	m.modelsLoaded.Set(float64(n))
}
