package uptime

import (
	"time"

	telemetry "aqsensor-cloud/internal/telemetry/domain"
)

// PM25Ceiling returns the per-reading PM2.5 cutoff for a sampling interval.
// It reuses the RawCountThreshold classes as a value ceiling.
func PM25Ceiling(interval time.Duration) float64 {
	return RawCountThreshold(interval)
}

// Filtered is the cleaned subset of a series.
type Filtered struct {
	Series   telemetry.Series
	Interval time.Duration
	Ceiling  float64
	// Dropped counts aligned readings rejected by validation or the ceiling.
	Dropped int
}

// FilterSeries aligns a raw series and keeps the readings that pass
// ValidateReading and the PM2.5 ceiling of the series' interval.
// Alignment errors are returned unchanged.
func FilterSeries(series telemetry.Series) (Filtered, error) {
	aligned, err := AlignSeries(series)
	if err != nil {
		return Filtered{Series: telemetry.Series{SensorID: series.SensorID}}, err
	}
	ceiling := PM25Ceiling(aligned.Interval)
	kept := make([]telemetry.Reading, 0, len(aligned.Readings))
	for _, r := range aligned.Readings {
		if Retain(r, ceiling) {
			kept = append(kept, r)
		}
	}
	return Filtered{
		Series:   telemetry.Series{SensorID: series.SensorID, Readings: kept},
		Interval: aligned.Interval,
		Ceiling:  ceiling,
		Dropped:  len(aligned.Readings) - len(kept),
	}, nil
}

// Retain reports whether a reading survives cleaning under a PM2.5 ceiling.
// A reading without PM2.5 only has to be valid.
func Retain(r telemetry.Reading, ceiling float64) bool {
	if !ValidateReading(r) {
		return false
	}
	if !r.PM25.Present() {
		return true
	}
	v, err := r.PM25.Float()
	if err != nil {
		return false
	}
	return v <= ceiling
}
