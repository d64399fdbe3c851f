package uptime

import (
	telemetry "aqsensor-cloud/internal/telemetry/domain"
)

// Plausible reading bounds, inclusive.
const (
	PM25Min = 0
	PM25Max = 1000
	CO2Min  = 400
	CO2Max  = 10000
	VOCMin  = 0.0
	VOCMax  = 1885.0
	RHMin   = 0
	RHMax   = 100
)

// Device status codes accepted as healthy.
const (
	DeviceStatusOK      = 0
	DeviceStatusWarming = 4
)

// ValidateReading reports whether a reading is physically plausible.
// Absent fields are skipped; a present field that cannot be coerced fails the reading.
func ValidateReading(r telemetry.Reading) bool {
	if !intInRange(r.PM25, PM25Min, PM25Max) {
		return false
	}
	if !intInRange(r.CO2, CO2Min, CO2Max) {
		return false
	}
	if r.VOC.Present() {
		v, err := r.VOC.Float()
		if err != nil || v < VOCMin || v > VOCMax {
			return false
		}
	}
	if !intInRange(r.RelativeHumidity, RHMin, RHMax) {
		return false
	}
	if r.DeviceStatus.Present() {
		v, err := r.DeviceStatus.Float()
		if err != nil || (v != DeviceStatusOK && v != DeviceStatusWarming) {
			return false
		}
	}
	return true
}

func intInRange(f telemetry.Field, lo, hi int64) bool {
	if !f.Present() {
		return true
	}
	v, err := f.Int()
	if err != nil {
		return false
	}
	return v >= lo && v <= hi
}
