package uptime

import (
	"time"

	telemetry "aqsensor-cloud/internal/telemetry/domain"
)

func at(day, hour, minute, second int) time.Time {
	return time.Date(2024, time.July, day, hour, minute, second, 0, time.UTC)
}

func validReading(ts time.Time) telemetry.Reading {
	return telemetry.Reading{
		Timestamp:        ts,
		PM25:             telemetry.Number(12),
		CO2:              telemetry.Number(650),
		VOC:              telemetry.Number(0.35),
		RelativeHumidity: telemetry.Number(41),
		Temperature:      telemetry.Number(22.5),
	}
}

func every(start time.Time, step time.Duration, n int) []time.Time {
	times := make([]time.Time, n)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * step)
	}
	return times
}

func seriesOf(id string, times ...time.Time) telemetry.Series {
	readings := make([]telemetry.Reading, len(times))
	for i, ts := range times {
		readings[i] = validReading(ts)
	}
	return telemetry.Series{SensorID: id, Readings: readings}
}

func join(parts ...[]time.Time) []time.Time {
	var out []time.Time
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
