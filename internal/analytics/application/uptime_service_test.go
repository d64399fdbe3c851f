package application

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"aqsensor-cloud/internal/analytics/domain/uptime"
	"aqsensor-cloud/internal/telemetry/infrastructure/filesystem"
)

func normalizedCalculator() *uptime.Calculator {
	return uptime.NewCalculator(uptime.WithUptimePolicy(uptime.NormalizedPolicy{Ratio: 0.75}))
}

func TestUptimeServiceRunCountry(t *testing.T) {
	layout := newLayout(t)
	p := testPeriod(t)
	writeSensorFile(t, layout, filesystem.RawLevel, p, filesystem.Indoor, "KZ-01", minuteRows("12"))
	writeSensorFile(t, layout, filesystem.RawLevel, p, filesystem.Indoor, "KZ-10", minuteRows("2000"))
	writeSensorFile(t, layout, filesystem.RawLevel, p, filesystem.Outdoor, "KZ-2", minuteRows("8"))
	writeSensorFile(t, layout, filesystem.RawLevel, p, filesystem.Outdoor, "KZ-3", nil)
	writeSensorFile(t, layout, filesystem.RawLevel, p, filesystem.Outdoor, "KZ-4", []string{
		"Timestamp,,,,,,",
		"2024-07-17T10:00:00Z,1,600,1,40,0,X1",
		"not-a-time,1,600,1,40,0,X1",
	})

	service, err := NewUptimeService(layout, normalizedCalculator(), quietLogger(), WithUptimeWorkers(2))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	report, err := service.RunCountry(context.Background(), "kz", p)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var ids []string
	for _, u := range report.Uptimes {
		ids = append(ids, u.SensorID)
	}
	if want := []string{"KZ-2", "KZ-01", "KZ-10"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("expected order %v, got %v", want, ids)
	}
	if got, _ := report.UptimeOf("KZ-01"); got != 100 {
		t.Fatalf("expected KZ-01 at 100, got %d", got)
	}
	if got, _ := report.UptimeOf("KZ-10"); got != 0 {
		t.Fatalf("expected KZ-10 at 0, got %d", got)
	}
	if !reflect.DeepEqual(report.NoData, []string{"KZ-3"}) {
		t.Fatalf("unexpected no-data list %v", report.NoData)
	}
	if len(report.Failures) != 1 || report.Failures[0].SensorID != "KZ-4" {
		t.Fatalf("unexpected failures %+v", report.Failures)
	}

	indoor := report.Daily[filesystem.Indoor]
	if !reflect.DeepEqual(indoor.Sensors, []string{"KZ-01", "KZ-10"}) {
		t.Fatalf("unexpected indoor sensors %v", indoor.Sensors)
	}
	date := time.Date(2024, 7, 17, 0, 0, 0, 0, time.UTC)
	if got := indoor.Row(date); !reflect.DeepEqual(got, []int{100, 0}) {
		t.Fatalf("unexpected indoor row %v", got)
	}
	if outdoor := report.Daily[filesystem.Outdoor]; outdoor.Value(date, "KZ-2") != 100 {
		t.Fatalf("unexpected outdoor table %+v", outdoor)
	}
}

func TestUptimeServiceKeepsDailyWhenSeriesCannotAlign(t *testing.T) {
	layout := newLayout(t)
	p := testPeriod(t)
	// The duplicated midnight reading makes the whole-series interval zero.
	rows := []string{
		"Timestamp,,,,,,",
		"2024-07-17T23:30:00Z,12,600,12.5,40,0,X1",
		"2024-07-17T23:40:00Z,12,600,12.5,40,0,X1",
		"2024-07-18T00:00:00Z,12,600,12.5,40,0,X1",
	}
	start := time.Date(2024, 7, 18, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 144; i++ {
		ts := start.Add(time.Duration(i) * 10 * time.Minute).Format("2006-01-02T15:04:05Z")
		rows = append(rows, ts+",12,600,12.5,40,0,X1")
	}
	writeSensorFile(t, layout, filesystem.RawLevel, p, filesystem.Indoor, "KZ-07", rows)

	service, _ := NewUptimeService(layout, nil, quietLogger())
	report, err := service.RunCountry(context.Background(), "KZ", p)
	if err != nil {
		t.Fatalf("expected daily results to count as data, got %v", err)
	}
	if report.Empty() {
		t.Fatalf("report should not be empty")
	}
	if len(report.Uptimes) != 0 || !reflect.DeepEqual(report.NoData, []string{"KZ-07"}) {
		t.Fatalf("expected KZ-07 without global uptime, got uptimes=%+v noData=%v", report.Uptimes, report.NoData)
	}

	indoor := report.Daily[filesystem.Indoor]
	if !reflect.DeepEqual(indoor.Sensors, []string{"KZ-07"}) {
		t.Fatalf("unexpected indoor sensors %v", indoor.Sensors)
	}
	if got := indoor.Value(time.Date(2024, 7, 17, 0, 0, 0, 0, time.UTC), "KZ-07"); got != 0 {
		t.Fatalf("expected 17 July at 0, got %d", got)
	}
	if got := indoor.Value(start, "KZ-07"); got != 100 {
		t.Fatalf("expected 18 July at 100, got %d", got)
	}
}

func TestUptimeServiceNoCountryData(t *testing.T) {
	layout := newLayout(t)
	p := testPeriod(t)
	writeSensorFile(t, layout, filesystem.RawLevel, p, filesystem.Indoor, "KZ-01", nil)

	service, _ := NewUptimeService(layout, nil, quietLogger())
	report, err := service.RunCountry(context.Background(), "KZ", p)
	if !errors.Is(err, ErrNoCountryData) {
		t.Fatalf("expected ErrNoCountryData, got %v", err)
	}
	if !report.Empty() || len(report.NoData) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestUptimeServiceCancelled(t *testing.T) {
	layout := newLayout(t)
	p := testPeriod(t)
	writeSensorFile(t, layout, filesystem.RawLevel, p, filesystem.Indoor, "KZ-01", minuteRows("12"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	service, _ := NewUptimeService(layout, nil, quietLogger())
	if _, err := service.RunCountry(ctx, "KZ", p); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewUptimeServiceRequiresLayout(t *testing.T) {
	if _, err := NewUptimeService(nil, nil, nil); err == nil {
		t.Fatalf("expected error for nil layout")
	}
}
