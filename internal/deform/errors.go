package deform

import "errors"

var (
	// ErrInvalidState is returned when the engine is used before Initialize,
	// after Dispose, or re-entrantly while a calculation is in flight.
	ErrInvalidState = errors.New("invalid state")

	// ErrConfigurationOutOfRange is returned when a tuning parameter falls
	// outside its documented range. Checked at construction, never mid-sweep.
	ErrConfigurationOutOfRange = errors.New("configuration out of range")
)
