package summary

import (
	"sort"
	"time"

	telemetry "aqsensor-cloud/internal/telemetry/domain"
)

// Measure is a summarised reading field.
type Measure string

const (
	PM25             Measure = "PM 2.5"
	RelativeHumidity Measure = "Relative Humidity"
	Temperature      Measure = "Temperature"
	CO2              Measure = "CO2"
)

// IndoorMeasures are charted for indoor sensors.
var IndoorMeasures = []Measure{PM25, RelativeHumidity, Temperature, CO2}

// OutdoorMeasures are charted for outdoor sensors, which carry no CO2 probe.
var OutdoorMeasures = []Measure{PM25, RelativeHumidity, Temperature}

// Field returns the reading field holding m.
func (m Measure) Field(r telemetry.Reading) telemetry.Field {
	switch m {
	case PM25:
		return r.PM25
	case RelativeHumidity:
		return r.RelativeHumidity
	case Temperature:
		return r.Temperature
	case CO2:
		return r.CO2
	default:
		return telemetry.Absent()
	}
}

// Skewed tells if m is charted on a log scale when its hourly maximum is
// more than twice its mean.
func (m Measure) Skewed() bool { return m == PM25 || m == CO2 }

// HourlyMean is the mean of one measure over one clock hour.
type HourlyMean struct {
	Hour  time.Time
	Value float64
	Count int
}

// HourlyMeans resamples a series to clock hours. The leading artifact row is
// dropped and non-numeric values are ignored; hours without any numeric value
// are left out, so consecutive points more than an hour apart mark a gap.
func HourlyMeans(series telemetry.Series, m Measure) []HourlyMean {
	if len(series.Readings) < 2 {
		return nil
	}
	sums := make(map[time.Time]*HourlyMean)
	for _, r := range series.Readings[1:] {
		v, err := m.Field(r).Float()
		if err != nil {
			continue
		}
		hour := r.Timestamp.UTC().Truncate(time.Hour)
		bucket, ok := sums[hour]
		if !ok {
			bucket = &HourlyMean{Hour: hour}
			sums[hour] = bucket
		}
		bucket.Value += v
		bucket.Count++
	}
	out := make([]HourlyMean, 0, len(sums))
	for _, bucket := range sums {
		bucket.Value /= float64(bucket.Count)
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour.Before(out[j].Hour) })
	return out
}

// Stats returns the minimum, maximum and mean of hourly values.
func Stats(points []HourlyMean) (lo, hi, mean float64) {
	if len(points) == 0 {
		return 0, 0, 0
	}
	lo, hi = points[0].Value, points[0].Value
	var sum float64
	for _, p := range points {
		if p.Value < lo {
			lo = p.Value
		}
		if p.Value > hi {
			hi = p.Value
		}
		sum += p.Value
	}
	return lo, hi, sum / float64(len(points))
}

// LogScale tells if hourly values of m should be charted on a log scale.
func LogScale(m Measure, points []HourlyMean) bool {
	if !m.Skewed() || len(points) == 0 {
		return false
	}
	_, hi, mean := Stats(points)
	return mean > 0 && hi > 2*mean
}

// Coordinates returns the position reported by the first reading after the
// artifact row that carries both coordinates.
func Coordinates(series telemetry.Series) (lat, long string, ok bool) {
	if len(series.Readings) < 2 {
		return "", "", false
	}
	for _, r := range series.Readings[1:] {
		if r.Latitude.Present() && r.Longitude.Present() && r.Latitude.Raw() != "" && r.Longitude.Raw() != "" {
			return r.Latitude.Raw(), r.Longitude.Raw(), true
		}
	}
	return "", "", false
}
