// Package server exposes the prediction pipeline over HTTP. It provides
// single and batch prediction endpoints, the prediction history, a health
// probe, and Prometheus metrics.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flightontime/flightontime/internal/logger"
	"github.com/flightontime/flightontime/internal/metrics"
	"github.com/flightontime/flightontime/internal/models"
	"github.com/flightontime/flightontime/internal/predictor"
	"github.com/flightontime/flightontime/internal/storage"
	"github.com/flightontime/flightontime/internal/telegram"
)

// Notifier delivers operational alerts for high-confidence delay
// predictions. Implemented by the telegram client; nil disables alerting.
type Notifier interface {
	SendDelayAlert(flightKey string, result *models.PredictionResult) error
}

// Server handles HTTP requests against the prediction pipeline.
type Server struct {
	predictor    *predictor.Predictor
	store        *storage.Storage
	notifier     Notifier
	maxBatchSize int
	validate     *validator.Validate
}

// New creates a Server. store and notifier may be nil, which disables the
// prediction history and alerting respectively.
func New(p *predictor.Predictor, store *storage.Storage, notifier Notifier, maxBatchSize int) *Server {
	if maxBatchSize <= 0 {
		maxBatchSize = 100
	}
	return &Server{
		predictor:    p,
		store:        store,
		notifier:     notifier,
		maxBatchSize: maxBatchSize,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.instrument)
		r.Post("/predict", s.handlePredict)
		r.Post("/predict/batch", s.handlePredictBatch)
		r.Get("/history", s.handleHistory)
	})

	return r
}

// instrument records request counts and latency per route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := chi.RouteContext(r.Context()).RoutePattern()
		metrics.RecordAPIRequest(r.Method, endpoint, strconv.Itoa(ww.Status()), time.Since(start))
		logger.Debug("%s %s -> %d in %v", r.Method, endpoint, ww.Status(), time.Since(start))
	})
}

// recordAndNotify persists the served prediction and, when it crosses the
// alert bar, pushes a delay alert. Both are best-effort: failures are
// logged and never surface to the caller, whose prediction already
// succeeded.
func (s *Server) recordAndNotify(flightKey string, q *models.FlightQuery, result *models.PredictionResult) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rec := models.NewPredictionRecord(flightKey, q, result)
		if err := s.store.RecordPrediction(ctx, &rec); err != nil {
			logger.Warn("Failed to record prediction for %s: %v", flightKey, err)
		}
	}

	metrics.RecordPrediction(result.Prediction)

	if s.notifier != nil && telegram.ShouldAlert(result) {
		go func() {
			if err := s.notifier.SendDelayAlert(flightKey, result); err != nil {
				metrics.AlertErrorsTotal.Inc()
				logger.Error("Failed to send delay alert for %s: %v", flightKey, err)
				return
			}
			metrics.AlertsSentTotal.Inc()
		}()
	}
}
