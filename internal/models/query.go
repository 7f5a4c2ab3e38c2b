// Package models defines the core domain entities for the FlightOnTime
// prediction service: the incoming flight query, the derived and historical
// feature records, the ordered feature vector consumed by the classifier,
// and the prescriptive prediction result returned to callers.
//
// All entities are plain data records. Validation lives on the entity so
// every entry point (HTTP handler, batch CLI, tests) enforces the same
// invariants.
package models

import (
	"strconv"
	"time"
)

// DateLayout is the accepted flight date format (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// FlightQuery is a request to score a single scheduled flight.
//
// Either FlightDate or Month must be supplied; when both are present the
// date wins. The three historical-rate fields are optional overrides: when
// set they bypass the lookup table entirely.
type FlightQuery struct {
	Airline    string  `json:"airline" validate:"required"`
	Origin     string  `json:"origin" validate:"required"`
	Dest       string  `json:"dest" validate:"required"`
	Distance   float64 `json:"distance" validate:"gt=0"`
	DayOfWeek  int     `json:"day_of_week" validate:"min=1,max=7"`
	FlightDate string  `json:"flight_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Month      int     `json:"month,omitempty" validate:"omitempty,min=1,max=12"`
	CRSDepTime int     `json:"crs_dep_time" validate:"min=0,max=2359"`

	// Optional overrides; nil means "resolve from the lookup table".
	OriginDelayRate  *float64 `json:"origin_delay_rate,omitempty"`
	CarrierDelayRate *float64 `json:"carrier_delay_rate,omitempty"`
	OriginTraffic    *int     `json:"origin_traffic,omitempty"`
}

// Validate checks that all query fields are valid.
func (q *FlightQuery) Validate() error {
	if q.Airline == "" {
		return &ValidationError{Field: "airline", Value: q.Airline, Reason: "must not be empty"}
	}
	if q.Origin == "" {
		return &ValidationError{Field: "origin", Value: q.Origin, Reason: "must not be empty"}
	}
	if q.Dest == "" {
		return &ValidationError{Field: "dest", Value: q.Dest, Reason: "must not be empty"}
	}
	if q.Distance <= 0 {
		return &ValidationError{Field: "distance", Value: q.Distance, Reason: "must be positive"}
	}
	if q.DayOfWeek < 1 || q.DayOfWeek > 7 {
		return &ValidationError{Field: "day_of_week", Value: q.DayOfWeek, Reason: "must be between 1 and 7"}
	}
	if hour, minute := q.CRSDepTime/100, q.CRSDepTime%100; q.CRSDepTime < 0 || hour > 23 || minute > 59 {
		return &ValidationError{Field: "crs_dep_time", Value: q.CRSDepTime, Reason: "must be a valid HHMM time between 0000 and 2359"}
	}
	if q.FlightDate != "" {
		if _, err := time.Parse(DateLayout, q.FlightDate); err != nil {
			return &ValidationError{Field: "flight_date", Value: q.FlightDate, Reason: "must be a valid YYYY-MM-DD date"}
		}
	} else if q.Month < 1 || q.Month > 12 {
		return &ValidationError{Field: "month", Value: q.Month, Reason: "must be between 1 and 12 when flight_date is absent"}
	}
	if q.OriginDelayRate != nil && (*q.OriginDelayRate < 0 || *q.OriginDelayRate > 1) {
		return &ValidationError{Field: "origin_delay_rate", Value: *q.OriginDelayRate, Reason: "must be between 0.0 and 1.0"}
	}
	if q.CarrierDelayRate != nil && (*q.CarrierDelayRate < 0 || *q.CarrierDelayRate > 1) {
		return &ValidationError{Field: "carrier_delay_rate", Value: *q.CarrierDelayRate, Reason: "must be between 0.0 and 1.0"}
	}
	if q.OriginTraffic != nil && *q.OriginTraffic < 0 {
		return &ValidationError{Field: "origin_traffic", Value: *q.OriginTraffic, Reason: "must not be negative"}
	}
	return nil
}

// Key returns a short human-readable identifier for the flight, used in
// logs, alerts, and the prediction history.
func (q *FlightQuery) Key() string {
	date := q.FlightDate
	if date == "" {
		date = "month-" + strconv.Itoa(q.Month)
	}
	return q.Airline + " " + q.Origin + "-" + q.Dest + " " + date
}
