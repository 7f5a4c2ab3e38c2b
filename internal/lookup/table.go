// Package lookup provides the historical-rate table used to fill in the
// delay-rate and traffic features a caller does not supply.
//
// Resolution is a layered fallback chain, first match wins:
//
//  1. caller-supplied override on the query (validated, used as-is)
//  2. exact table entry keyed by the airport or carrier code
//  3. the artifact's defaults bucket
//  4. hardcoded last-resort constants
//
// Layers are consulted only when the previous one is absent; values are
// never merged or averaged. The table is immutable after construction and
// safe for concurrent readers without locking.
package lookup

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/flightontime/flightontime/internal/models"
)

// Last-resort constants, used only when the artifact itself (or its
// defaults bucket) is missing.
const (
	FallbackOriginDelayRate  = 0.195
	FallbackCarrierDelayRate = 0.205
	FallbackOriginTraffic    = 450
)

// Defaults is the artifact's per-field default bucket. Pointer fields
// distinguish "absent" from zero.
type Defaults struct {
	OriginDelayRate  *float64 `json:"origin_delay_rate,omitempty"`
	CarrierDelayRate *float64 `json:"carrier_delay_rate,omitempty"`
	OriginTraffic    *float64 `json:"origin_traffic,omitempty"`
}

// Table maps airport and carrier codes to historical delay rates and
// traffic counts. Read-only after construction.
type Table struct {
	originRates  map[string]float64
	carrierRates map[string]float64
	traffic      map[string]float64
	defaults     Defaults
}

// artifactFile is the on-disk JSON shape of lookup_tables.json.
type artifactFile struct {
	OriginDelayRate  map[string]float64 `json:"origin_delay_rate"`
	CarrierDelayRate map[string]float64 `json:"carrier_delay_rate"`
	OriginTraffic    map[string]float64 `json:"origin_traffic"`
	Defaults         Defaults           `json:"defaults"`
}

// New builds a table from in-memory maps. Nil maps are treated as empty.
func New(originRates, carrierRates, traffic map[string]float64, defaults Defaults) *Table {
	if originRates == nil {
		originRates = map[string]float64{}
	}
	if carrierRates == nil {
		carrierRates = map[string]float64{}
	}
	if traffic == nil {
		traffic = map[string]float64{}
	}
	return &Table{
		originRates:  originRates,
		carrierRates: carrierRates,
		traffic:      traffic,
		defaults:     defaults,
	}
}

// NewEmpty returns a table with no entries and no defaults, so every
// resolution falls through to the hardcoded constants. Used when the
// artifact is missing at startup.
func NewEmpty() *Table {
	return New(nil, nil, nil, Defaults{})
}

// Load reads a lookup table artifact from path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup tables: %w", err)
	}

	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse lookup tables: %w", err)
	}

	return New(file.OriginDelayRate, file.CarrierDelayRate, file.OriginTraffic, file.Defaults), nil
}

// Save writes the table to path as a lookup artifact. The write is atomic:
// a temp file is written first and renamed over the target.
func (t *Table) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	file := artifactFile{
		OriginDelayRate:  t.originRates,
		CarrierDelayRate: t.carrierRates,
		OriginTraffic:    t.traffic,
		Defaults:         t.defaults,
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal lookup tables: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write lookup tables: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename lookup tables: %w", err)
	}
	return nil
}

// OriginCount returns the number of airports with an exact rate entry.
func (t *Table) OriginCount() int { return len(t.originRates) }

// CarrierCount returns the number of carriers with an exact rate entry.
func (t *Table) CarrierCount() int { return len(t.carrierRates) }

// Resolve applies the layered fallback chain for all three historical
// fields of a query. Overrides present on the query are validated and win
// outright; resolution never mixes layers for a single field.
func (t *Table) Resolve(q *models.FlightQuery) (models.HistoricalRates, error) {
	var rates models.HistoricalRates

	switch {
	case q.OriginDelayRate != nil:
		r := *q.OriginDelayRate
		if r < 0 || r > 1 {
			return rates, &models.ValidationError{Field: "origin_delay_rate", Value: r, Reason: "must be between 0.0 and 1.0"}
		}
		rates.OriginDelayRate = r
	default:
		rates.OriginDelayRate = resolveRate(t.originRates, q.Origin, t.defaults.OriginDelayRate, FallbackOriginDelayRate)
	}

	switch {
	case q.CarrierDelayRate != nil:
		r := *q.CarrierDelayRate
		if r < 0 || r > 1 {
			return rates, &models.ValidationError{Field: "carrier_delay_rate", Value: r, Reason: "must be between 0.0 and 1.0"}
		}
		rates.CarrierDelayRate = r
	default:
		rates.CarrierDelayRate = resolveRate(t.carrierRates, q.Airline, t.defaults.CarrierDelayRate, FallbackCarrierDelayRate)
	}

	switch {
	case q.OriginTraffic != nil:
		n := *q.OriginTraffic
		if n < 0 {
			return rates, &models.ValidationError{Field: "origin_traffic", Value: n, Reason: "must not be negative"}
		}
		rates.OriginTraffic = n
	default:
		rates.OriginTraffic = int(math.Round(resolveRate(t.traffic, q.Origin, t.defaults.OriginTraffic, FallbackOriginTraffic)))
	}

	return rates, nil
}

func resolveRate(table map[string]float64, key string, def *float64, fallback float64) float64 {
	if v, ok := table[key]; ok {
		return v
	}
	if def != nil {
		return *def
	}
	return fallback
}
