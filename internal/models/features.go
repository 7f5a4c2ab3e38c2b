package models

// Time-of-day band labels. The bands are half-open hour ranges checked in
// order: Morning [6,12), Afternoon [12,18), Evening [18,22), else Night.
// The encoder vocabulary artifact must use these exact labels.
const (
	TimeMorning   = "Morning"
	TimeAfternoon = "Afternoon"
	TimeEvening   = "Evening"
	TimeNight     = "Night"
)

// DerivedTemporalFeatures holds the temporal features computed from the
// scheduled departure time and date. Computed per request, never persisted.
type DerivedTemporalFeatures struct {
	Month     int    // 1-12
	DepHour   int    // 0-23, truncated from CRSDepTime and clamped
	IsWeekend int    // 1 if day of week is Saturday (6) or Sunday (7)
	Quarter   int    // 1-4
	TimeOfDay string // one of the Time* labels above
}

// HistoricalRates holds the resolved historical delay rates and traffic
// volume for a flight, after the layered lookup policy has been applied.
type HistoricalRates struct {
	OriginDelayRate  float64 `json:"origin_delay_rate"`
	CarrierDelayRate float64 `json:"carrier_delay_rate"`
	OriginTraffic    int     `json:"origin_traffic"`
}

// EncodedCategoricals holds the integer codes for the four categorical
// features. A value of -1 marks a category unseen during training.
type EncodedCategoricals struct {
	Airline   int
	Origin    int
	Dest      int
	TimeOfDay int
}

// FeatureColumns is the exact column order the classifier was trained on.
// The scorer silently produces garbage if this order is violated, so the
// slice is the single source of truth for both assembly and the wire
// payload sent to the scorer.
var FeatureColumns = []string{
	"Month",
	"DayOfWeek",
	"dephour",
	"is_weekend",
	"quarter",
	"Distance",
	"origin_delay_rate",
	"carrier_delay_rate",
	"origin_traffic",
	"Airline",
	"Origin",
	"Dest",
	"time_of_day",
}

// FeatureVector is the ordered numeric record sent to the classifier.
// Categorical fields carry their encoded integer codes.
type FeatureVector struct {
	Month            int
	DayOfWeek        int
	DepHour          int
	IsWeekend        int
	Quarter          int
	Distance         float64
	OriginDelayRate  float64
	CarrierDelayRate float64
	OriginTraffic    int
	Airline          int
	Origin           int
	Dest             int
	TimeOfDay        int
}

// Row returns the vector as a float64 slice in FeatureColumns order.
func (v *FeatureVector) Row() []float64 {
	return []float64{
		float64(v.Month),
		float64(v.DayOfWeek),
		float64(v.DepHour),
		float64(v.IsWeekend),
		float64(v.Quarter),
		v.Distance,
		v.OriginDelayRate,
		v.CarrierDelayRate,
		float64(v.OriginTraffic),
		float64(v.Airline),
		float64(v.Origin),
		float64(v.Dest),
		float64(v.TimeOfDay),
	}
}
