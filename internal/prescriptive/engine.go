// Package prescriptive turns a raw classifier probability into an
// actionable result: a binary label against the decision threshold, a
// confidence tier for that label, the top contributing factors from the
// model's global feature importance, and a fixed set of recommended
// actions per label.
//
// All functions are pure; the feature-importance mapping is supplied by
// the caller and identical across requests.
package prescriptive

import (
	"fmt"
	"math"
	"sort"

	"github.com/flightontime/flightontime/internal/models"
)

// DefaultTopN is the number of top factors reported when the caller does
// not configure one.
const DefaultTopN = 3

// DelayedAdvice lists the recommended actions when a flight is predicted
// delayed. The content is static per label; it is not derived from the
// feature values.
var DelayedAdvice = []string{
	"Reclassify flight as at risk of delay",
	"Notify passengers with connections over 2 hours",
	"Begin boarding 10-15 minutes early",
	"Reserve an alternate gate",
	"Run pre-flight checks with extra time margin",
}

// OnTimeAdvice lists the recommended actions when a flight is predicted
// on time.
var OnTimeAdvice = []string{
	"Keep the published schedule",
	"Normal operational priority",
	"Departure expected on time",
}

// Classify applies the decision threshold: 1 (delayed) when the
// probability reaches the threshold, else 0.
func Classify(probability, threshold float64) int {
	if probability >= threshold {
		return 1
	}
	return 0
}

// ConfidenceTier buckets a confidence value into its ordinal tier. The
// tiers are evaluated in descending order, first match wins, so the
// mapping is monotonic in the confidence value.
func ConfidenceTier(confidence float64) string {
	switch {
	case confidence >= 0.75:
		return models.ConfidenceVeryHigh
	case confidence >= 0.60:
		return models.ConfidenceHigh
	case confidence >= 0.50:
		return models.ConfidenceModerate
	default:
		return models.ConfidenceLow
	}
}

// TopFactors formats the topN most important features as
// "<name>: <importance>% importance" strings. The sort is stable and
// descending by importance, so equal weights keep their original
// insertion order.
func TopFactors(importance []models.FeatureWeight, topN int) []string {
	if topN <= 0 {
		topN = DefaultTopN
	}

	ranked := make([]models.FeatureWeight, len(importance))
	copy(ranked, importance)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Importance > ranked[j].Importance
	})

	if topN > len(ranked) {
		topN = len(ranked)
	}

	factors := make([]string, 0, topN)
	for _, w := range ranked[:topN] {
		factors = append(factors, fmt.Sprintf("%s: %.1f%% importance", w.Feature, w.Importance*100))
	}
	return factors
}

// Round3 rounds a probability to 3 decimal places. The rounding is lossy
// and deliberately reproduced everywhere a probability is reported.
func Round3(p float64) float64 {
	return math.Round(p*1000) / 1000
}

// Build assembles the prescriptive result for one prediction. The label
// must already have been derived via Classify; confidence always measures
// certainty about the emitted label, not the raw delay probability.
func Build(label int, probability float64, importance []models.FeatureWeight, topN int) models.PredictionResult {
	prediction := models.LabelOnTime
	confidence := 1 - probability
	advice := OnTimeAdvice
	if label == 1 {
		prediction = models.LabelDelayed
		confidence = probability
		advice = DelayedAdvice
	}

	recommendations := make([]string, len(advice))
	copy(recommendations, advice)

	return models.PredictionResult{
		Prediction:       prediction,
		Label:            label,
		ProbabilityDelay: Round3(probability),
		Confidence:       ConfidenceTier(confidence),
		TopFactors:       TopFactors(importance, topN),
		Recommendations:  recommendations,
	}
}

// BuildBatch assembles results for a batch. It errors when the label and
// probability slices differ in length; mismatched batches are a caller
// bug and must never be silently truncated.
func BuildBatch(labels []int, probabilities []float64, importance []models.FeatureWeight, topN int) ([]models.PredictionResult, error) {
	if len(labels) != len(probabilities) {
		return nil, fmt.Errorf("label count %d does not match probability count %d", len(labels), len(probabilities))
	}

	results := make([]models.PredictionResult, len(labels))
	for i := range labels {
		results[i] = Build(labels[i], probabilities[i], importance, topN)
	}
	return results, nil
}
