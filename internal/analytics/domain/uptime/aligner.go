package uptime

import (
	"time"

	telemetry "aqsensor-cloud/internal/telemetry/domain"
)

// Aligned is a series trimmed to start on an hour transition, with its sampling interval.
type Aligned struct {
	Readings []telemetry.Reading
	Interval time.Duration
}

// ElapsedHours returns the number of whole hours between the first and last aligned readings.
func (a Aligned) ElapsedHours() int {
	if len(a.Readings) < 2 {
		return 0
	}
	span := a.Readings[len(a.Readings)-1].Timestamp.Sub(a.Readings[0].Timestamp)
	if span <= 0 {
		return 0
	}
	return int(span / time.Hour)
}

// AlignSeries drops the leading artifact row, then trims the series so it
// starts at the first reading whose hour differs from the first remaining one.
func AlignSeries(series telemetry.Series) (Aligned, error) {
	if len(series.Readings) < 2 {
		return Aligned{}, ErrInsufficientData
	}
	rows := series.Readings[1:]
	if len(rows) < 2 {
		return Aligned{}, ErrInsufficientData
	}
	cut := hourTransition(rows)
	if cut < 0 {
		return Aligned{}, ErrNoHourTransition
	}
	return withInterval(rows[cut:])
}

// AlignDay trims one calendar day of readings the way AlignSeries trims a whole series,
// except that the artifact row is not dropped and a day without an hour
// transition is kept whole.
func AlignDay(day telemetry.Series) (Aligned, error) {
	rows := day.Readings
	if len(rows) == 0 {
		return Aligned{}, ErrInsufficientData
	}
	if cut := hourTransition(rows); cut > 0 {
		rows = rows[cut:]
	}
	return withInterval(rows)
}

func withInterval(rows []telemetry.Reading) (Aligned, error) {
	if len(rows) < 2 {
		return Aligned{Readings: rows}, ErrInsufficientData
	}
	interval := rows[1].Timestamp.Sub(rows[0].Timestamp)
	if interval <= 0 {
		return Aligned{Readings: rows}, ErrNonPositiveInterval
	}
	return Aligned{Readings: rows, Interval: interval}, nil
}

// hourTransition returns the index of the first reading whose hour differs
// from the hour of rows[0], or -1.
func hourTransition(rows []telemetry.Reading) int {
	first := rows[0].Timestamp.Hour()
	for i := 1; i < len(rows); i++ {
		if rows[i].Timestamp.Hour() != first {
			return i
		}
	}
	return -1
}
