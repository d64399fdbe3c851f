package uptime

import (
	"time"

	telemetry "aqsensor-cloud/internal/telemetry/domain"
)

// HourBucket is a maximal run of consecutive readings sharing the same hour.
// Start is inclusive and End exclusive, both indexing the bucketed readings.
type HourBucket struct {
	Hour     int
	Start    int
	End      int
	Valid    int
	Required float64
	Up       bool
}

// Len returns the number of readings in the bucket.
func (b HourBucket) Len() int { return b.End - b.Start }

// BucketResult is the ordered bucket partition of a trimmed series.
type BucketResult struct {
	Buckets []HourBucket
	UpHours int
}

// BucketHours partitions readings into hour buckets and judges each one.
// A bucket closes on every hour change and at the end of the readings, so the
// final reading always lands in the final bucket. A nil policy means
// RawCountPolicy and a nil predicate means ValidateReading.
func BucketHours(readings []telemetry.Reading, interval time.Duration, policy ThresholdPolicy, valid func(telemetry.Reading) bool) BucketResult {
	if policy == nil {
		policy = RawCountPolicy{}
	}
	if valid == nil {
		valid = ValidateReading
	}
	var result BucketResult
	if len(readings) == 0 {
		return result
	}
	required := policy.Required(interval)

	start := 0
	count := 0
	for i, r := range readings {
		if i > start && r.Timestamp.Hour() != readings[start].Timestamp.Hour() {
			result.add(readings[start].Timestamp.Hour(), start, i, count, required)
			start = i
			count = 0
		}
		if valid(r) {
			count++
		}
	}
	result.add(readings[start].Timestamp.Hour(), start, len(readings), count, required)
	return result
}

func (r *BucketResult) add(hour, start, end, valid int, required float64) {
	up := float64(valid) >= required
	if up {
		r.UpHours++
	}
	r.Buckets = append(r.Buckets, HourBucket{
		Hour:     hour,
		Start:    start,
		End:      end,
		Valid:    valid,
		Required: required,
		Up:       up,
	})
}
