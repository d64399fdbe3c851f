package application

import (
	"errors"

	"aqsensor-cloud/internal/analytics/domain/uptime"
	"aqsensor-cloud/internal/period"
	"aqsensor-cloud/internal/telemetry/infrastructure/filesystem"
)

// ErrNoCountryData is returned when no sensor of a country yielded an uptime
// or a daily uptime.
var ErrNoCountryData = errors.New("analytics: no sensor data for country")

// SensorUptime is the computed uptime of one sensor file.
type SensorUptime struct {
	SensorID string
	Type     filesystem.SensorType
	Percent  int
	Daily    []uptime.DayUptime
}

// SensorFailure records a sensor whose file could not be processed.
type SensorFailure struct {
	SensorID string
	Type     filesystem.SensorType
	Err      error
}

// CountryReport is the uptime result of one country and period.
type CountryReport struct {
	Country string
	Period  period.Period
	// Uptimes is ordered by sensor id length, then lexically.
	Uptimes  []SensorUptime
	Daily    map[filesystem.SensorType]uptime.DailyTable
	NoData   []string
	Failures []SensorFailure
}

// Empty tells if the report holds neither an uptime nor a daily uptime table.
func (r CountryReport) Empty() bool {
	if len(r.Uptimes) > 0 {
		return false
	}
	for _, table := range r.Daily {
		if !table.Empty() {
			return false
		}
	}
	return true
}

// UptimeOf returns the uptime of a sensor.
func (r CountryReport) UptimeOf(sensorID string) (int, bool) {
	for _, u := range r.Uptimes {
		if u.SensorID == sensorID {
			return u.Percent, true
		}
	}
	return 0, false
}
