// Package metrics defines the Prometheus collectors for training and serving
// and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Unit outcomes recorded by ObserveUnit.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Metrics holds all Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	SearchUnitsTotal     *prometheus.CounterVec
	SearchUnitDuration   prometheus.Histogram
	SearchBestScore      prometheus.Gauge
	PredictionsTotal     *prometheus.CounterVec
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg. A nil reg uses a
// fresh private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		SearchUnitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hamspam_search_units_total",
				Help: "Grid search (configuration, fold) units by outcome.",
			},
			[]string{"status"},
		),
		SearchUnitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hamspam_search_unit_duration_seconds",
				Help:    "Time to fit and score one grid search unit.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		SearchBestScore: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hamspam_search_best_score",
				Help: "Mean cross-validation score of the selected configuration.",
			},
		),
		PredictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hamspam_predictions_total",
				Help: "Predictions served by class.",
			},
			[]string{"class"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.SearchUnitsTotal,
		m.SearchUnitDuration,
		m.SearchBestScore,
		m.PredictionsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
	)
	return m
}

// ObserveUnit records one grid search unit.
func (m *Metrics) ObserveUnit(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.SearchUnitsTotal.WithLabelValues(status).Inc()
	if status != StatusSkipped {
		m.SearchUnitDuration.Observe(d.Seconds())
	}
}

// SetBestScore records the selected configuration's mean score.
func (m *Metrics) SetBestScore(score float64) {
	if m == nil {
		return
	}
	m.SearchBestScore.Set(score)
}

// ObservePrediction counts one served prediction.
func (m *Metrics) ObservePrediction(class string) {
	if m == nil {
		return
	}
	m.PredictionsTotal.WithLabelValues(class).Inc()
}

// Handler returns an HTTP handler exposing the collectors of m.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
