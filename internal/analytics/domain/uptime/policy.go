package uptime

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Policy names accepted by PolicyByName.
const (
	PolicyRawCount   = "raw_count"
	PolicyNormalized = "normalized"
)

// DefaultNormalizedRatio is the share of expected samples an hour needs under NormalizedPolicy.
const DefaultNormalizedRatio = 0.75

// ThresholdPolicy decides how many valid readings an hour needs to count as up.
type ThresholdPolicy interface {
	Name() string
	Required(interval time.Duration) float64
}

// RawCountPolicy applies a fixed count per interval class.
type RawCountPolicy struct{}

// Name implements ThresholdPolicy.
func (RawCountPolicy) Name() string { return PolicyRawCount }

// Required implements ThresholdPolicy.
func (RawCountPolicy) Required(interval time.Duration) float64 {
	return RawCountThreshold(interval)
}

// RawCountThreshold maps a sampling interval to its count class.
// Intervals above one hour map to +Inf.
func RawCountThreshold(interval time.Duration) float64 {
	seconds := interval.Seconds()
	switch {
	case seconds <= 60:
		return 100
	case seconds <= 900:
		return 1000
	case seconds <= 3600:
		return 5000
	default:
		return math.Inf(1)
	}
}

// NormalizedPolicy requires Ratio of the samples an hour should hold at the interval.
type NormalizedPolicy struct {
	Ratio float64
}

// Name implements ThresholdPolicy.
func (NormalizedPolicy) Name() string { return PolicyNormalized }

// Required implements ThresholdPolicy.
func (p NormalizedPolicy) Required(interval time.Duration) float64 {
	if interval <= 0 {
		return math.Inf(1)
	}
	ratio := p.Ratio
	if ratio <= 0 {
		ratio = DefaultNormalizedRatio
	}
	return ratio * time.Hour.Seconds() / interval.Seconds()
}

// PolicyByName resolves a configured policy name.
func PolicyByName(name string, ratio float64) (ThresholdPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyRawCount, "raw":
		return RawCountPolicy{}, nil
	case PolicyNormalized:
		return NormalizedPolicy{Ratio: ratio}, nil
	default:
		return nil, fmt.Errorf("uptime: unknown threshold policy %q", name)
	}
}
