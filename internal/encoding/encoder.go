// Package encoding converts categorical string fields into the integer
// codes the classifier expects. Each categorical feature has a fixed
// vocabulary learned during training; the code of a value is its position
// in that vocabulary (artifact order, not alphabetical).
//
// Values never seen during training encode to the sentinel UnseenCode
// rather than erroring: an anomalous value is handled, not rejected, and
// the sentinel stays distinguishable downstream instead of impersonating
// a real category. Only a missing vocabulary for a required field is an
// error, because that is a deployment defect.
package encoding

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/flightontime/flightontime/internal/models"
)

// UnseenCode is the sentinel for category values absent from the
// training-time vocabulary.
const UnseenCode = -1

// Categorical field names, matching the feature-vector columns.
const (
	FieldAirline   = "Airline"
	FieldOrigin    = "Origin"
	FieldDest      = "Dest"
	FieldTimeOfDay = "time_of_day"
)

// RequiredFields lists the categorical features every prediction needs.
var RequiredFields = []string{FieldAirline, FieldOrigin, FieldDest, FieldTimeOfDay}

// Set holds one vocabulary per categorical feature. Immutable after
// construction; safe for concurrent readers.
type Set struct {
	vocabs map[string][]string
	index  map[string]map[string]int
}

// NewSet builds a Set from vocabularies keyed by field name. Vocabulary
// order determines the codes.
func NewSet(vocabs map[string][]string) *Set {
	index := make(map[string]map[string]int, len(vocabs))
	for field, vocab := range vocabs {
		codes := make(map[string]int, len(vocab))
		for i, value := range vocab {
			codes[value] = i
		}
		index[field] = codes
	}
	return &Set{vocabs: vocabs, index: index}
}

// Load reads a label-encoder artifact (field name -> ordered vocabulary)
// from path and verifies every required field is present.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label encoders: %w", err)
	}

	var vocabs map[string][]string
	if err := json.Unmarshal(data, &vocabs); err != nil {
		return nil, fmt.Errorf("failed to parse label encoders: %w", err)
	}

	set := NewSet(vocabs)
	for _, field := range RequiredFields {
		if _, ok := set.vocabs[field]; !ok {
			return nil, &models.EncodingError{Field: field, Reason: "vocabulary missing from artifact"}
		}
	}
	return set, nil
}

// Encode returns the integer code for raw in the named field's
// vocabulary, or UnseenCode when the value was never seen in training.
// It errors only when the vocabulary for the field does not exist.
func (s *Set) Encode(field, raw string) (int, error) {
	codes, ok := s.index[field]
	if !ok {
		return 0, &models.EncodingError{Field: field, Reason: "no vocabulary loaded for field"}
	}
	code, ok := codes[raw]
	if !ok {
		return UnseenCode, nil
	}
	return code, nil
}

// Fields returns the number of loaded vocabularies.
func (s *Set) Fields() int {
	return len(s.vocabs)
}

// VocabularySize returns the number of classes for a field, or 0 when the
// field has no vocabulary.
func (s *Set) VocabularySize(field string) int {
	return len(s.vocabs[field])
}
