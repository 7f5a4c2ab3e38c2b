// Package predictor wires the feature-construction stages into the full
// prediction pipeline: validate the query, derive temporal features,
// resolve historical rates, encode categoricals, assemble the ordered
// feature vector, score it, and build the prescriptive output.
//
// A Predictor holds only immutable reference state (lookup table, encoder
// vocabularies, feature importance, threshold) constructed once at
// startup, so a single instance serves arbitrarily many concurrent
// requests without synchronization.
package predictor

import (
	"context"
	"fmt"

	"github.com/flightontime/flightontime/internal/encoding"
	"github.com/flightontime/flightontime/internal/features"
	"github.com/flightontime/flightontime/internal/lookup"
	"github.com/flightontime/flightontime/internal/metrics"
	"github.com/flightontime/flightontime/internal/models"
	"github.com/flightontime/flightontime/internal/prescriptive"
	"github.com/flightontime/flightontime/internal/scorer"
)

// Predictor runs the prediction pipeline against fixed reference state.
type Predictor struct {
	table      *lookup.Table
	encoders   *encoding.Set
	importance []models.FeatureWeight
	threshold  float64
	topN       int
	scorer     scorer.Scorer
}

// New creates a Predictor. The lookup table, encoder set, and importance
// mapping must already be loaded; they are treated as read-only.
func New(table *lookup.Table, encoders *encoding.Set, importance []models.FeatureWeight, threshold float64, topN int, s scorer.Scorer) *Predictor {
	if topN <= 0 {
		topN = prescriptive.DefaultTopN
	}
	return &Predictor{
		table:      table,
		encoders:   encoders,
		importance: importance,
		threshold:  threshold,
		topN:       topN,
		scorer:     s,
	}
}

// Threshold returns the decision threshold in use.
func (p *Predictor) Threshold() float64 {
	return p.threshold
}

// BuildFeatures runs the deterministic half of the pipeline: validation,
// temporal derivation, historical-rate resolution, categorical encoding,
// and assembly into the strict column order.
func (p *Predictor) BuildFeatures(q *models.FlightQuery) (models.FeatureVector, error) {
	if err := q.Validate(); err != nil {
		return models.FeatureVector{}, err
	}

	derived, err := features.DeriveTemporal(q.FlightDate, q.Month, q.CRSDepTime, q.DayOfWeek)
	if err != nil {
		return models.FeatureVector{}, err
	}

	rates, err := p.table.Resolve(q)
	if err != nil {
		return models.FeatureVector{}, err
	}

	enc, err := p.encodeCategoricals(q, derived.TimeOfDay)
	if err != nil {
		return models.FeatureVector{}, err
	}

	return features.Assemble(q, derived, rates, enc)
}

// Predict scores a single flight and returns its prescriptive result.
func (p *Predictor) Predict(ctx context.Context, q *models.FlightQuery) (*models.PredictionResult, error) {
	vector, err := p.BuildFeatures(q)
	if err != nil {
		return nil, err
	}

	probas, err := p.scorer.PredictProba(ctx, [][]float64{vector.Row()})
	if err != nil {
		return nil, err
	}
	if len(probas) != 1 {
		return nil, fmt.Errorf("scorer returned %d probabilities for 1 row", len(probas))
	}

	result := prescriptive.Build(prescriptive.Classify(probas[0], p.threshold), probas[0], p.importance, p.topN)
	return &result, nil
}

// PredictBatch scores a batch of flights with a single scorer call. Items
// are independent; the output order matches the input order, and each
// item's result is identical to what a single Predict call would return.
func (p *Predictor) PredictBatch(ctx context.Context, queries []models.FlightQuery) ([]models.PredictionResult, error) {
	if len(queries) == 0 {
		return []models.PredictionResult{}, nil
	}

	rows := make([][]float64, len(queries))
	for i := range queries {
		vector, err := p.BuildFeatures(&queries[i])
		if err != nil {
			return nil, fmt.Errorf("flight %d: %w", i, err)
		}
		rows[i] = vector.Row()
	}

	probas, err := p.scorer.PredictProba(ctx, rows)
	if err != nil {
		return nil, err
	}

	labels := make([]int, len(probas))
	for i, proba := range probas {
		labels[i] = prescriptive.Classify(proba, p.threshold)
	}
	return prescriptive.BuildBatch(labels, probas, p.importance, p.topN)
}

func (p *Predictor) encodeCategoricals(q *models.FlightQuery, timeOfDay string) (models.EncodedCategoricals, error) {
	var enc models.EncodedCategoricals
	var err error

	if enc.Airline, err = p.encodeField(encoding.FieldAirline, q.Airline); err != nil {
		return enc, err
	}
	if enc.Origin, err = p.encodeField(encoding.FieldOrigin, q.Origin); err != nil {
		return enc, err
	}
	if enc.Dest, err = p.encodeField(encoding.FieldDest, q.Dest); err != nil {
		return enc, err
	}
	if enc.TimeOfDay, err = p.encodeField(encoding.FieldTimeOfDay, timeOfDay); err != nil {
		return enc, err
	}
	return enc, nil
}

func (p *Predictor) encodeField(field, raw string) (int, error) {
	code, err := p.encoders.Encode(field, raw)
	if err != nil {
		return 0, err
	}
	if code == encoding.UnseenCode {
		metrics.UnseenCategoriesTotal.WithLabelValues(field).Inc()
	}
	return code, nil
}
