package convert

import "errors"

var (
	// ErrUnknownField is returned when a recomputation names no valid field.
	ErrUnknownField = errors.New("unknown field")
	// ErrRatesUnset is returned when no valid RateSet is available.
	ErrRatesUnset = errors.New("exchange rates unset")
	// ErrInvalidInput is returned when the active value is not a non-negative number.
	ErrInvalidInput = errors.New("invalid numeric input")
)
