// Package metrics provides Prometheus instrumentation for the prediction
// service: API endpoint latency and throughput, prediction outcomes by
// label, scorer round trips, and alert delivery.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Prediction Metrics
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of predictions served, by outcome label",
		},
		[]string{"label"}, // "Delayed", "On-Time"
	)

	PredictionBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prediction_batch_size",
			Help:    "Number of flights per batch prediction request",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)

	UnseenCategoriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unseen_categories_total",
			Help: "Total number of categorical values outside the trained vocabulary",
		},
		[]string{"field"}, // "Airline", "Origin", "Dest", "time_of_day"
	)

	// Scorer Metrics
	ScorerRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scorer_request_duration_seconds",
			Help:    "Duration of scoring service round trips in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ScorerErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scorer_errors_total",
			Help: "Total number of failed scoring service calls",
		},
	)

	// Alert Metrics
	AlertsSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "delay_alerts_sent_total",
			Help: "Total number of high-confidence delay alerts delivered",
		},
	)

	AlertErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "delay_alert_errors_total",
			Help: "Total number of alert delivery failures",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordPrediction records a served prediction by its outcome label
func RecordPrediction(label string) {
	PredictionsTotal.WithLabelValues(label).Inc()
}

// RecordScorerCall records a scoring service round trip
func RecordScorerCall(duration time.Duration, err error) {
	ScorerRequestDuration.Observe(duration.Seconds())
	if err != nil {
		ScorerErrorsTotal.Inc()
	}
}
