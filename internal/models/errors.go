package models

import "fmt"

// ValidationError reports malformed caller input: a bad date, an
// out-of-range day of week, a non-positive distance, and so on. It is a
// client error and is never retried. Field and Value are always populated
// so the caller can correct the input.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (got %v): %s", e.Field, e.Value, e.Reason)
}

// EncodingError reports a missing or malformed categorical encoder table.
// Unseen category values are NOT an encoding error; they map to the
// sentinel code. This error indicates a deployment defect and should be
// surfaced as service-unavailable, not as a client error.
type EncodingError struct {
	Field  string
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoder for %s: %s", e.Field, e.Reason)
}

// SchemaError reports that a required feature column could not be
// produced. Like EncodingError it indicates a deployment or configuration
// defect rather than bad caller input.
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("feature column %s: %s", e.Column, e.Reason)
}
