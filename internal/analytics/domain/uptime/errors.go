package uptime

import "errors"

var (
	// ErrInsufficientData is returned when a series is too short to align or measure.
	ErrInsufficientData = errors.New("uptime: insufficient data")
	// ErrNoHourTransition is returned when no reading leaves the first hour.
	ErrNoHourTransition = errors.New("uptime: no hour transition")
	// ErrNonPositiveInterval is returned when the first two aligned readings share a timestamp or go backwards.
	ErrNonPositiveInterval = errors.New("uptime: non-positive sampling interval")
)

// IsNoData reports whether err means the series carries no usable data.
// Callers render such sensors as "no data" instead of failing.
func IsNoData(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrNoHourTransition) ||
		errors.Is(err, ErrNonPositiveInterval)
}
