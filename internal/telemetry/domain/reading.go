package telemetry

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the textual timestamp layout of exported sensor data.
const TimestampLayout = "2006-01-02T15:04:05Z"

var (
	// ErrFieldAbsent is returned when a field is not present in a reading.
	ErrFieldAbsent = errors.New("telemetry: field absent")
	// ErrFieldNotNumeric is returned when a present field cannot be coerced to a number.
	ErrFieldNotNumeric = errors.New("telemetry: field not numeric")
)

// Field is an optional reading value kept in its source text form.
// Coercion to a typed value happens where the value is used, so a
// malformed value only fails the reading that carries it.
type Field struct {
	raw     string
	present bool
}

// Absent returns a field that is not present.
func Absent() Field { return Field{} }

// Text returns a present field holding raw source text.
func Text(raw string) Field { return Field{raw: raw, present: true} }

// Number returns a present field holding v.
func Number(v float64) Field {
	return Field{raw: strconv.FormatFloat(v, 'f', -1, 64), present: true}
}

// Present tells if the field exists in the reading.
func (f Field) Present() bool { return f.present }

// Raw returns the source text.
func (f Field) Raw() string { return f.raw }

// Float coerces the field to a finite float.
func (f Field) Float() (float64, error) {
	if !f.present {
		return 0, ErrFieldAbsent
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(f.raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrFieldNotNumeric
	}
	return v, nil
}

// Int coerces the field to an integer, truncating toward zero.
func (f Field) Int() (int64, error) {
	v, err := f.Float()
	if err != nil {
		return 0, err
	}
	if v > math.MaxInt64 || v < math.MinInt64 {
		return 0, ErrFieldNotNumeric
	}
	return int64(v), nil
}

// Reading is one timestamped observation of a sensor.
type Reading struct {
	Timestamp time.Time

	PM25             Field
	CO2              Field
	VOC              Field
	RelativeHumidity Field
	Temperature      Field
	Latitude         Field
	Longitude        Field
	DeviceStatus     Field

	// Extra keeps source columns the engine does not interpret, keyed by column name.
	Extra map[string]string
}

// Series is the ordered reading sequence of one sensor.
// Readings are ordered by Timestamp ascending; nothing downstream re-sorts them.
type Series struct {
	SensorID string
	Readings []Reading
}

// Len returns the number of readings.
func (s Series) Len() int { return len(s.Readings) }

// Empty tells if the series carries no readings.
func (s Series) Empty() bool { return len(s.Readings) == 0 }

// ParseTimestamp parses an exported timestamp as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, strings.TrimSpace(value), time.UTC)
}
