package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Prediction labels emitted by the prescriptive builder.
const (
	LabelDelayed = "Delayed"
	LabelOnTime  = "On-Time"
)

// Confidence tiers, ordered from most to least certain.
const (
	ConfidenceVeryHigh = "Very High"
	ConfidenceHigh     = "High"
	ConfidenceModerate = "Moderate"
	ConfidenceLow      = "Low"
)

// FeatureWeight is one entry of the model's global feature-importance
// mapping. The mapping is loaded once at startup and is identical across
// requests; slice order is the training-time insertion order and is the
// tie-breaker when ranking factors.
type FeatureWeight struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// PredictionResult is the prescriptive output for a single flight.
// Constructed per request and discarded after serialization.
type PredictionResult struct {
	Prediction       string   `json:"prediction"`        // LabelDelayed or LabelOnTime
	Label            int      `json:"label"`             // 1 = delayed, 0 = on time
	ProbabilityDelay float64  `json:"probability_delay"` // rounded to 3 decimals
	Confidence       string   `json:"confidence"`        // one of the Confidence* tiers
	TopFactors       []string `json:"top_factors"`
	Recommendations  []string `json:"recommendations"`
}

// Validate checks that a result is internally consistent.
func (r *PredictionResult) Validate() error {
	if r.Prediction != LabelDelayed && r.Prediction != LabelOnTime {
		return errors.New("prediction must be Delayed or On-Time")
	}
	if r.Label != 0 && r.Label != 1 {
		return errors.New("label must be 0 or 1")
	}
	if r.ProbabilityDelay < 0.0 || r.ProbabilityDelay > 1.0 {
		return errors.New("probability must be between 0.0 and 1.0")
	}
	switch r.Confidence {
	case ConfidenceVeryHigh, ConfidenceHigh, ConfidenceModerate, ConfidenceLow:
	default:
		return errors.New("confidence must be a known tier")
	}
	return nil
}

// PredictionRecord is the persisted trace of a served prediction.
type PredictionRecord struct {
	ID               string    `json:"id"`
	FlightKey        string    `json:"flight_key"`
	Airline          string    `json:"airline"`
	Origin           string    `json:"origin"`
	Dest             string    `json:"dest"`
	Prediction       string    `json:"prediction"`
	ProbabilityDelay float64   `json:"probability_delay"`
	Confidence       string    `json:"confidence"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewPredictionRecord builds the persisted trace of a served prediction.
func NewPredictionRecord(flightKey string, q *FlightQuery, result *PredictionResult) PredictionRecord {
	return PredictionRecord{
		ID:               uuid.NewString(),
		FlightKey:        flightKey,
		Airline:          q.Airline,
		Origin:           q.Origin,
		Dest:             q.Dest,
		Prediction:       result.Prediction,
		ProbabilityDelay: result.ProbabilityDelay,
		Confidence:       result.Confidence,
		CreatedAt:        time.Now().UTC(),
	}
}

// Validate checks that all record fields are valid.
func (p *PredictionRecord) Validate() error {
	if p.ID == "" {
		return errors.New("record ID must not be empty")
	}
	if p.FlightKey == "" {
		return errors.New("flight key must not be empty")
	}
	if p.ProbabilityDelay < 0.0 || p.ProbabilityDelay > 1.0 {
		return errors.New("probability must be between 0.0 and 1.0")
	}
	if p.CreatedAt.After(time.Now()) {
		return errors.New("created at must not be in the future")
	}
	return nil
}
