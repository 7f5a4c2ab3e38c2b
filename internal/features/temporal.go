// Package features implements the deterministic feature-construction stage
// of the prediction pipeline: deriving temporal features from the scheduled
// departure, and assembling the final ordered feature vector the classifier
// expects.
//
// Every function here is pure and safe to call concurrently.
package features

import (
	"time"

	"github.com/flightontime/flightontime/internal/models"
)

// DeriveTemporal computes the temporal features for a flight.
//
// flightDate takes precedence over month when non-empty and must parse as
// YYYY-MM-DD. The departure hour is the HHMM time truncated to its hour
// and clamped to [0,23]: malformed inputs such as 2500 clamp rather than
// wrap or panic, so callers that skip query validation still get a bounded
// hour.
func DeriveTemporal(flightDate string, month, crsDepTime, dayOfWeek int) (models.DerivedTemporalFeatures, error) {
	if flightDate != "" {
		d, err := time.Parse(models.DateLayout, flightDate)
		if err != nil {
			return models.DerivedTemporalFeatures{}, &models.ValidationError{
				Field: "flight_date", Value: flightDate, Reason: "must be a valid YYYY-MM-DD date",
			}
		}
		month = int(d.Month())
	}
	if month < 1 || month > 12 {
		return models.DerivedTemporalFeatures{}, &models.ValidationError{
			Field: "month", Value: month, Reason: "must be between 1 and 12",
		}
	}

	hour := clampHour(crsDepTime / 100)

	isWeekend := 0
	if dayOfWeek == 6 || dayOfWeek == 7 {
		isWeekend = 1
	}

	return models.DerivedTemporalFeatures{
		Month:     month,
		DepHour:   hour,
		IsWeekend: isWeekend,
		Quarter:   (month-1)/3 + 1,
		TimeOfDay: TimeOfDay(hour),
	}, nil
}

// TimeOfDay maps an hour to its period band. Bands are half-open and
// checked in order, so the boundary hours 6, 12, and 18 belong to the band
// that starts there.
func TimeOfDay(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return models.TimeMorning
	case hour >= 12 && hour < 18:
		return models.TimeAfternoon
	case hour >= 18 && hour < 22:
		return models.TimeEvening
	default:
		return models.TimeNight
	}
}

func clampHour(h int) int {
	if h < 0 {
		return 0
	}
	if h > 23 {
		return 23
	}
	return h
}
