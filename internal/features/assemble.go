package features

import (
	"github.com/flightontime/flightontime/internal/models"
)

// Assemble combines the query, derived temporal features, resolved
// historical rates, and encoded categoricals into the feature vector in
// the strict column order the classifier was trained on.
//
// Assembly performs no computation beyond ordering and type coercion. It
// returns a SchemaError when a required column cannot be produced; that
// signals a configuration defect, not bad caller input.
func Assemble(q *models.FlightQuery, d models.DerivedTemporalFeatures, r models.HistoricalRates, enc models.EncodedCategoricals) (models.FeatureVector, error) {
	if d.Month < 1 || d.Month > 12 {
		return models.FeatureVector{}, &models.SchemaError{Column: "Month", Reason: "derived month is out of range"}
	}
	if d.TimeOfDay == "" {
		return models.FeatureVector{}, &models.SchemaError{Column: "time_of_day", Reason: "time of day was not derived"}
	}
	if q.Distance <= 0 {
		return models.FeatureVector{}, &models.SchemaError{Column: "Distance", Reason: "distance must be positive"}
	}

	return models.FeatureVector{
		Month:            d.Month,
		DayOfWeek:        q.DayOfWeek,
		DepHour:          d.DepHour,
		IsWeekend:        d.IsWeekend,
		Quarter:          d.Quarter,
		Distance:         q.Distance,
		OriginDelayRate:  r.OriginDelayRate,
		CarrierDelayRate: r.CarrierDelayRate,
		OriginTraffic:    r.OriginTraffic,
		Airline:          enc.Airline,
		Origin:           enc.Origin,
		Dest:             enc.Dest,
		TimeOfDay:        enc.TimeOfDay,
	}, nil
}
