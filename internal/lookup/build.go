package lookup

import (
	"sort"
	"time"
)

// HistoryRecord is one historical flight observation used to build a
// lookup table. Delayed is 1 when the flight arrived 15+ minutes late.
type HistoryRecord struct {
	FlightDate time.Time
	Origin     string
	Airline    string
	Delayed    int
}

// ExpandingDelayRate computes, for each record in temporal order, the mean
// delay rate of strictly earlier records sharing the same key. This is the
// shift-by-one expanding mean: a record never sees its own outcome, which
// is what keeps the derived feature free of lookahead bias. Records with
// no prior history for their key get the global mean of all earlier
// records, or fallback when there is no history at all.
//
// The input is not mutated; records are processed in ascending FlightDate
// order regardless of input order, and the returned slice is aligned with
// that sorted order alongside the second return value.
func ExpandingDelayRate(records []HistoryRecord, key func(HistoryRecord) string, fallback float64) ([]float64, []HistoryRecord) {
	ordered := sortByDate(records)

	type tally struct {
		delayed int
		total   int
	}
	perKey := make(map[string]*tally)
	globalDelayed, globalTotal := 0, 0

	out := make([]float64, len(ordered))
	for i, rec := range ordered {
		k := key(rec)
		t, ok := perKey[k]
		if !ok {
			t = &tally{}
			perKey[k] = t
		}

		switch {
		case t.total > 0:
			out[i] = float64(t.delayed) / float64(t.total)
		case globalTotal > 0:
			out[i] = float64(globalDelayed) / float64(globalTotal)
		default:
			out[i] = fallback
		}

		t.delayed += rec.Delayed
		t.total++
		globalDelayed += rec.Delayed
		globalTotal++
	}
	return out, ordered
}

// BuildFromHistory aggregates historical flight records into a serving
// lookup table. Records are processed in FlightDate order; the table entry
// for each key is the full-history mean, which is exactly the expanding
// shift-by-one value the next (future) flight would observe. The defaults
// bucket carries the global delay rate and the mean per-origin traffic so
// unseen keys degrade gracefully at serving time.
func BuildFromHistory(records []HistoryRecord) *Table {
	ordered := sortByDate(records)

	type tally struct {
		delayed int
		total   int
	}
	origins := make(map[string]*tally)
	carriers := make(map[string]*tally)
	globalDelayed := 0

	for _, rec := range ordered {
		o, ok := origins[rec.Origin]
		if !ok {
			o = &tally{}
			origins[rec.Origin] = o
		}
		c, ok := carriers[rec.Airline]
		if !ok {
			c = &tally{}
			carriers[rec.Airline] = c
		}
		o.delayed += rec.Delayed
		o.total++
		c.delayed += rec.Delayed
		c.total++
		globalDelayed += rec.Delayed
	}

	originRates := make(map[string]float64, len(origins))
	traffic := make(map[string]float64, len(origins))
	for code, t := range origins {
		originRates[code] = float64(t.delayed) / float64(t.total)
		traffic[code] = float64(t.total)
	}
	carrierRates := make(map[string]float64, len(carriers))
	for code, t := range carriers {
		carrierRates[code] = float64(t.delayed) / float64(t.total)
	}

	var defaults Defaults
	if len(ordered) > 0 {
		globalMean := float64(globalDelayed) / float64(len(ordered))
		meanTraffic := float64(len(ordered)) / float64(len(origins))
		defaults.OriginDelayRate = &globalMean
		defaults.CarrierDelayRate = &globalMean
		defaults.OriginTraffic = &meanTraffic
	}

	return New(originRates, carrierRates, traffic, defaults)
}

func sortByDate(records []HistoryRecord) []HistoryRecord {
	ordered := make([]HistoryRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].FlightDate.Before(ordered[j].FlightDate)
	})
	return ordered
}
