package analyzer

import "errors"

var (
	// ErrInsufficientData is returned when a series is empty or too short
	// for the requested analysis.
	ErrInsufficientData = errors.New("insufficient candle data")

	// ErrDataType is returned when a series carries non-finite price or
	// volume values (malformed exchange payload).
	ErrDataType = errors.New("non-numeric candle data")
)
