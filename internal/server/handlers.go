package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/flightontime/flightontime/internal/logger"
	"github.com/flightontime/flightontime/internal/metrics"
	"github.com/flightontime/flightontime/internal/models"
)

// batchRequest is the envelope for batch predictions.
type batchRequest struct {
	Flights []models.FlightQuery `json:"flights" validate:"required,min=1"`
}

// predictResponse is a single prediction plus the flight it belongs to.
type predictResponse struct {
	Flight string `json:"flight"`
	models.PredictionResult
}

// batchResponse carries per-flight predictions in request order.
type batchResponse struct {
	Count       int               `json:"count"`
	Predictions []predictResponse `json:"predictions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var q models.FlightQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := s.validate.Struct(&q); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	result, err := s.predictor.Predict(r.Context(), &q)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}

	key := q.Key()
	s.recordAndNotify(key, &q, result)

	writeJSON(w, http.StatusOK, predictResponse{Flight: key, PredictionResult: *result})
}

func (s *Server) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	if len(req.Flights) > s.maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch of %d flights exceeds limit of %d", len(req.Flights), s.maxBatchSize))
		return
	}

	metrics.PredictionBatchSize.Observe(float64(len(req.Flights)))

	results, err := s.predictor.PredictBatch(r.Context(), req.Flights)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}

	resp := batchResponse{
		Count:       len(results),
		Predictions: make([]predictResponse, len(results)),
	}
	for i := range results {
		q := &req.Flights[i]
		key := q.Key()
		s.recordAndNotify(key, q, &results[i])
		resp.Predictions[i] = predictResponse{Flight: key, PredictionResult: results[i]}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "prediction history is disabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.store.RecentPredictions(r.Context(), limit)
	if err != nil {
		logger.Error("Failed to read prediction history: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to read prediction history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":       len(records),
		"predictions": records,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			logger.Warn("Health check: database unreachable: %v", err)
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, map[string]interface{}{
		"status":    status,
		"threshold": s.predictor.Threshold(),
	})
}

// writePipelineError maps pipeline failures to HTTP statuses: bad input is
// the caller's fault, broken artifacts or an unreachable scorer are ours.
func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var eerr *models.EncodingError
	var serr *models.SchemaError
	if errors.As(err, &eerr) || errors.As(err, &serr) {
		logger.Error("Feature construction failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "feature construction failed")
		return
	}

	logger.Error("Scoring failed: %v", err)
	writeError(w, http.StatusServiceUnavailable, "scoring service unavailable")
}

// validationMessage flattens validator errors into a single message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	f := verrs[0]
	return fmt.Sprintf("field %s failed %s validation", f.Field(), f.Tag())
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
