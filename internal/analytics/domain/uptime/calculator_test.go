package uptime

import (
	"testing"
	"time"

	telemetry "aqsensor-cloud/internal/telemetry/domain"
)

// oneDenseHour is a 60s-interval series whose 10:00 hour carries 119 readings.
func oneDenseHour() telemetry.Series {
	return seriesOf("S1", join(
		[]time.Time{at(15, 9, 58, 0), at(15, 9, 59, 0), at(15, 10, 0, 0), at(15, 10, 1, 0)},
		every(at(15, 10, 1, 30), 30*time.Second, 117),
		[]time.Time{at(15, 11, 0, 0)},
	)...)
}

func TestUptimeFullHourRawCount(t *testing.T) {
	got, err := NewCalculator().Uptime(oneDenseHour())
	if err != nil {
		t.Fatalf("uptime: %v", err)
	}
	if got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestUptimePoliciesDiverge(t *testing.T) {
	series := seriesOf("S1", join(
		[]time.Time{at(15, 9, 58, 0), at(15, 9, 59, 0)},
		every(at(15, 10, 0, 0), time.Minute, 61),
	)...)

	raw, err := NewCalculator().Uptime(series)
	if err != nil {
		t.Fatalf("raw uptime: %v", err)
	}
	if raw != 0 {
		t.Fatalf("expected 60 readings to miss the raw count of 100, got %d", raw)
	}

	normalized, err := NewCalculator(WithUptimePolicy(NormalizedPolicy{Ratio: 0.75})).Uptime(series)
	if err != nil {
		t.Fatalf("normalized uptime: %v", err)
	}
	if normalized != 100 {
		t.Fatalf("expected 100 under normalized policy, got %d", normalized)
	}
}

func TestUptimeRoundsShareOfElapsedHours(t *testing.T) {
	series := seriesOf("S1", join(
		[]time.Time{at(15, 9, 55, 0), at(15, 9, 58, 0)},
		every(at(15, 10, 0, 0), 10*time.Minute, 19),
	)...)
	for i := range series.Readings {
		if series.Readings[i].Timestamp.Hour() == 11 {
			series.Readings[i].PM25 = telemetry.Number(1500)
		}
	}
	calc := NewCalculator(WithUptimePolicy(NormalizedPolicy{Ratio: 0.75}))
	got, err := calc.Uptime(series)
	if err != nil {
		t.Fatalf("uptime: %v", err)
	}
	if got != 67 {
		t.Fatalf("expected 2 of 3 hours = 67, got %d", got)
	}
}

func TestUptimeZeroElapsedHours(t *testing.T) {
	series := seriesOf("S1", at(15, 9, 58, 0), at(15, 9, 59, 0), at(15, 10, 0, 0), at(15, 10, 1, 0), at(15, 10, 2, 0))
	got, err := NewCalculator().Uptime(series)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestUptimeIdempotent(t *testing.T) {
	series := oneDenseHour()
	calc := NewCalculator()
	first, err1 := calc.Uptime(series)
	second, err2 := calc.Uptime(series)
	if err1 != nil || err2 != nil {
		t.Fatalf("uptime errors: %v %v", err1, err2)
	}
	if first != second {
		t.Fatalf("expected same result, got %d and %d", first, second)
	}
}

func TestUptimeNoData(t *testing.T) {
	_, err := NewCalculator().Uptime(telemetry.Series{SensorID: "S1"})
	if !IsNoData(err) {
		t.Fatalf("expected no-data error, got %v", err)
	}
}

func TestPercent(t *testing.T) {
	cases := []struct {
		up, total, want int
	}{
		{0, 0, 0},
		{1, 0, 0},
		{1, -1, 0},
		{1, 2, 50},
		{1, 8, 12},
		{3, 8, 38},
		{2, 3, 67},
		{5, 4, 125},
	}
	for _, tc := range cases {
		if got := Percent(tc.up, tc.total); got != tc.want {
			t.Fatalf("Percent(%d, %d): expected %d, got %d", tc.up, tc.total, tc.want, got)
		}
	}
}

func TestPartialFinalHourExceedsHundredOnlyGlobally(t *testing.T) {
	series := seriesOf("S1", join(
		[]time.Time{at(15, 9, 55, 0)},
		every(at(15, 10, 0, 0), 10*time.Minute, 18),
	)...)
	calc := NewCalculator(WithUptimePolicy(NormalizedPolicy{Ratio: 0.75}))

	got, err := calc.Uptime(series)
	if err != nil {
		t.Fatalf("uptime: %v", err)
	}
	if got != 200 {
		t.Fatalf("expected 2 up hours over 1 elapsed hour = 200, got %d", got)
	}

	days := calc.DailyUptime(series)
	if len(days) != 1 || days[0].Percent != 100 {
		t.Fatalf("expected daily cell bounded to 100, got %+v", days)
	}
}

func TestDailyUptimeSingleReadingDay(t *testing.T) {
	series := seriesOf("S1", at(15, 9, 0, 0), at(15, 9, 10, 0), at(15, 10, 0, 0))
	days := NewCalculator().DailyUptime(series)
	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(days))
	}
	if days[0].Percent != 0 || !days[0].Date.Equal(at(15, 0, 0, 0)) {
		t.Fatalf("expected 0%% on 2024-07-15, got %+v", days[0])
	}
}

func TestDailyUptimePerDay(t *testing.T) {
	series := seriesOf("S1", join(
		[]time.Time{at(14, 23, 59, 0), at(15, 9, 50, 0)},
		every(at(15, 10, 0, 0), 10*time.Minute, 13),
		every(at(16, 0, 0, 0), 10*time.Minute, 7),
	)...)
	days := NewCalculator().DailyUptime(series)
	if len(days) != 2 {
		t.Fatalf("expected 2 days (header day dropped), got %d: %+v", len(days), days)
	}
	if !days[0].Date.Equal(at(15, 0, 0, 0)) || days[0].Percent != 100 {
		t.Fatalf("expected 100%% on 07-15, got %+v", days[0])
	}
	if !days[1].Date.Equal(at(16, 0, 0, 0)) || days[1].Percent != 0 {
		t.Fatalf("expected 0%% on 07-16, got %+v", days[1])
	}
}

func TestDailyUptimeEmpty(t *testing.T) {
	if days := NewCalculator().DailyUptime(telemetry.Series{}); len(days) != 0 {
		t.Fatalf("expected no days, got %+v", days)
	}
}
