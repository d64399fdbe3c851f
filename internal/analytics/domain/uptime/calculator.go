package uptime

import (
	"math"
	"sort"
	"time"

	telemetry "aqsensor-cloud/internal/telemetry/domain"
)

// DayUptime is the uptime percentage of one calendar day (UTC).
type DayUptime struct {
	Date    time.Time
	Percent int
}

// Calculator computes period and daily uptime with configurable threshold policies.
// It holds no per-call state and is safe for concurrent use.
type Calculator struct {
	uptimePolicy ThresholdPolicy
	dailyPolicy  ThresholdPolicy
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithUptimePolicy sets the policy used by Uptime.
func WithUptimePolicy(p ThresholdPolicy) Option {
	return func(c *Calculator) {
		if p != nil {
			c.uptimePolicy = p
		}
	}
}

// WithDailyPolicy sets the policy used by DailyUptime.
func WithDailyPolicy(p ThresholdPolicy) Option {
	return func(c *Calculator) {
		if p != nil {
			c.dailyPolicy = p
		}
	}
}

// NewCalculator builds a Calculator. Uptime defaults to RawCountPolicy and
// DailyUptime to NormalizedPolicy with DefaultNormalizedRatio.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		uptimePolicy: RawCountPolicy{},
		dailyPolicy:  NormalizedPolicy{Ratio: DefaultNormalizedRatio},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UptimePolicy returns the policy used by Uptime.
func (c *Calculator) UptimePolicy() ThresholdPolicy { return c.uptimePolicy }

// DailyPolicy returns the policy used by DailyUptime.
func (c *Calculator) DailyPolicy() ThresholdPolicy { return c.dailyPolicy }

// Uptime returns the share of elapsed hours judged up, as a rounded percentage.
// Series that cannot be aligned return an error matching IsNoData.
func (c *Calculator) Uptime(series telemetry.Series) (int, error) {
	aligned, err := AlignSeries(series)
	if err != nil {
		return 0, err
	}
	buckets := BucketHours(aligned.Readings, aligned.Interval, c.uptimePolicy, ValidateReading)
	return Percent(buckets.UpHours, aligned.ElapsedHours()), nil
}

// DailyUptime computes uptime independently for each calendar day of the series.
// The leading artifact row is dropped once for the whole series. Days that
// cannot be aligned score 0.
func (c *Calculator) DailyUptime(series telemetry.Series) []DayUptime {
	if len(series.Readings) < 2 {
		return nil
	}
	days := groupByDay(series.Readings[1:])
	result := make([]DayUptime, 0, len(days))
	for _, day := range days {
		percent := 0
		aligned, err := AlignDay(telemetry.Series{SensorID: series.SensorID, Readings: day.readings})
		if err == nil {
			buckets := BucketHours(aligned.Readings, aligned.Interval, c.dailyPolicy, ValidateReading)
			percent = dailyPercent(buckets.UpHours, aligned.ElapsedHours())
		}
		result = append(result, DayUptime{Date: day.date, Percent: percent})
	}
	return result
}

// Percent converts up hours over elapsed hours to a percentage, rounding half
// to even. Zero elapsed hours give 0. The final bucket is a partial hour, so
// the result may exceed 100.
func Percent(upHours, elapsedHours int) int {
	if elapsedHours <= 0 || upHours <= 0 {
		return 0
	}
	return int(math.RoundToEven(100 * float64(upHours) / float64(elapsedHours)))
}

// dailyPercent is Percent bounded to [0, 100] for daily table cells.
func dailyPercent(upHours, elapsedHours int) int {
	if v := Percent(upHours, elapsedHours); v < 100 {
		return v
	}
	return 100
}

type dayReadings struct {
	date     time.Time
	readings []telemetry.Reading
}

func groupByDay(readings []telemetry.Reading) []dayReadings {
	index := make(map[time.Time]int)
	var days []dayReadings
	for _, r := range readings {
		date := DateOf(r.Timestamp)
		i, ok := index[date]
		if !ok {
			i = len(days)
			index[date] = i
			days = append(days, dayReadings{date: date})
		}
		days[i].readings = append(days[i].readings, r)
	}
	sort.SliceStable(days, func(a, b int) bool { return days[a].date.Before(days[b].date) })
	return days
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
