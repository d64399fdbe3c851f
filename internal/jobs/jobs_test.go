package jobs

import (
	"context"
	"errors"
	"io"
	"log"
	"reflect"
	"sync"
	"testing"
	"time"

	analytics "aqsensor-cloud/internal/analytics/application"
	monitorapp "aqsensor-cloud/internal/monitoring/application"
	"aqsensor-cloud/internal/period"
)

type stubCleaner struct {
	levels map[string]string
	err    map[string]error
}

func (s *stubCleaner) CleanCountry(ctx context.Context, country string, p period.Period, level string) (analytics.CleanResult, error) {
	s.levels[country] = level
	return analytics.CleanResult{Country: country, Level: level}, s.err[country]
}

type stubUptime struct {
	reports map[string]analytics.CountryReport
}

func (s stubUptime) RunCountry(ctx context.Context, country string, p period.Period) (analytics.CountryReport, error) {
	report, ok := s.reports[country]
	if !ok {
		return analytics.CountryReport{Country: country, Period: p}, analytics.ErrNoCountryData
	}
	return report, nil
}

type stubPublisher struct {
	published []string
	noData    []string
}

func (s *stubPublisher) Publish(report analytics.CountryReport) ([]string, error) {
	s.published = append(s.published, report.Country)
	return []string{report.Country + ".pdf"}, nil
}

func (s *stubPublisher) PublishNoData(country string, p period.Period) (string, error) {
	s.noData = append(s.noData, country)
	return country + "-empty.pdf", nil
}

type stubSummarizer struct{}

func (stubSummarizer) SummarizeCountry(ctx context.Context, country string, p period.Period) (analytics.CountrySummary, error) {
	out := analytics.CountrySummary{Country: country, Period: p}
	if country != "KZ" {
		return out, analytics.ErrNoCountryData
	}
	out.Sensors = []analytics.SensorSummary{{SensorID: "KZ-01", Responding: true}}
	return out, nil
}

type stubSummaryPublisher struct {
	published []string
}

func (s *stubSummaryPublisher) PublishSummary(summary analytics.CountrySummary) (string, error) {
	s.published = append(s.published, summary.Country)
	return summary.Country + "-summary.pdf", nil
}

type stubStatus struct{}

func (stubStatus) CheckCountry(ctx context.Context, country string, p period.Period, date time.Time) (monitorapp.Check, error) {
	return monitorapp.Check{OffTwice: []string{country + "-01"}}, nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestRunnerIsolatesCountries(t *testing.T) {
	cleaner := &stubCleaner{levels: map[string]string{}, err: map[string]error{"KG": errors.New("disk full")}}
	uptime := stubUptime{reports: map[string]analytics.CountryReport{
		"KZ": {Country: "KZ", Uptimes: []analytics.SensorUptime{{SensorID: "KZ-01", Percent: 90}}},
		"KG": {Country: "KG", Uptimes: []analytics.SensorUptime{{SensorID: "KG-01", Percent: 10}}},
	}}
	publisher := &stubPublisher{}
	level := func(country string) string {
		if country == "KZ" {
			return "Level 2"
		}
		return "Level 1"
	}
	runner, err := NewRunner(cleaner, uptime, publisher, stubStatus{}, level, quietLogger())
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	p, _ := period.Parse("Jul-2024-2")
	runs, err := runner.Run(context.Background(), []string{"kz", "KG", "UZ"}, p, time.Date(2024, 7, 30, 0, 0, 0, 0, time.UTC), AllSteps)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].Failed() || runs[0].Report == nil || !reflect.DeepEqual(runs[0].OffTwice, []string{"KZ-01"}) {
		t.Fatalf("unexpected KZ run %+v", runs[0])
	}
	if !runs[1].Failed() || runs[1].Report == nil {
		t.Fatalf("expected KG clean failure without losing uptime, got %+v", runs[1])
	}
	if !runs[2].Failed() || !reflect.DeepEqual(runs[2].Reports, []string{"UZ-empty.pdf"}) {
		t.Fatalf("expected UZ no-data report, got %+v", runs[2])
	}
	if !reflect.DeepEqual(cleaner.levels, map[string]string{"KZ": "Level 2", "KG": "Level 1", "UZ": "Level 1"}) {
		t.Fatalf("unexpected clean levels %v", cleaner.levels)
	}
	if !reflect.DeepEqual(publisher.published, []string{"KZ", "KG"}) || !reflect.DeepEqual(publisher.noData, []string{"UZ"}) {
		t.Fatalf("unexpected published %v / %v", publisher.published, publisher.noData)
	}
}

func TestRunnerStepsSelection(t *testing.T) {
	cleaner := &stubCleaner{levels: map[string]string{}}
	runner, _ := NewRunner(cleaner, stubUptime{}, nil, nil, func(string) string { return "Level 1" }, quietLogger())
	p, _ := period.Parse("Jul-2024-2")
	runs, err := runner.Run(context.Background(), []string{"KZ"}, p, time.Now(), Steps{Clean: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if runs[0].Failed() || runs[0].Clean == nil || runs[0].Report != nil {
		t.Fatalf("expected clean-only run, got %+v", runs[0])
	}
}

func TestRunnerSummaryStage(t *testing.T) {
	summaries := &stubSummaryPublisher{}
	runner, err := NewRunner(nil, nil, nil, nil, nil, quietLogger(), WithSummary(stubSummarizer{}, summaries))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	p, _ := period.Parse("Jul-2024-2")
	runs, err := runner.Run(context.Background(), []string{"KZ", "UZ"}, p, time.Now(), AllSteps)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if runs[0].Failed() || runs[0].Summary == nil || !reflect.DeepEqual(runs[0].Reports, []string{"KZ-summary.pdf"}) {
		t.Fatalf("unexpected KZ run %+v", runs[0])
	}
	if !runs[1].Failed() || runs[1].Summary != nil || len(runs[1].Reports) != 0 {
		t.Fatalf("expected UZ summary failure without report, got %+v", runs[1])
	}
	if !errors.Is(runs[1].Errors[0], analytics.ErrNoCountryData) {
		t.Fatalf("expected wrapped ErrNoCountryData, got %v", runs[1].Errors[0])
	}
	if !reflect.DeepEqual(summaries.published, []string{"KZ"}) {
		t.Fatalf("unexpected published summaries %v", summaries.published)
	}

	skipped, _ := runner.Run(context.Background(), []string{"KZ"}, p, time.Now(), Steps{Uptime: true})
	if skipped[0].Summary != nil {
		t.Fatalf("summary should only run when selected")
	}
}

func TestNewRunnerValidation(t *testing.T) {
	if _, err := NewRunner(nil, nil, nil, nil, nil, nil); err == nil {
		t.Fatalf("expected error without stages")
	}
	if _, err := NewRunner(&stubCleaner{}, nil, nil, nil, nil, nil); err == nil {
		t.Fatalf("expected error without clean level resolver")
	}
}

type recordingRunner struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingRunner) Run(ctx context.Context, countries []string, p period.Period, date time.Time, steps Steps) ([]CountryRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, p.Label()+"@"+date.Format("2006-01-02"))
	return nil, nil
}

func runDays(month time.Month) []int {
	if month == time.February {
		return []int{15, 28}
	}
	return []int{17, 30}
}

func TestSchedulerShouldRun(t *testing.T) {
	s := NewScheduler(&recordingRunner{}, []string{"KZ"}, "02:00", runDays, nil, nil)
	cases := []struct {
		at   time.Time
		want bool
	}{
		{time.Date(2024, 7, 17, 2, 0, 0, 0, time.UTC), true},
		{time.Date(2024, 7, 30, 2, 0, 0, 0, time.UTC), true},
		{time.Date(2024, 7, 30, 2, 1, 0, 0, time.UTC), false},
		{time.Date(2024, 7, 18, 2, 0, 0, 0, time.UTC), false},
		{time.Date(2024, 2, 15, 2, 0, 0, 0, time.UTC), true},
		{time.Date(2024, 2, 17, 2, 0, 0, 0, time.UTC), false},
		{time.Date(2024, 2, 28, 2, 0, 0, 0, time.UTC), true},
	}
	for _, tc := range cases {
		if got := s.shouldRun(tc.at); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.at, tc.want, got)
		}
	}
	if NewScheduler(&recordingRunner{}, nil, "bad", runDays, nil, nil).shouldRun(time.Date(2024, 7, 17, 2, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected invalid daily_at to never run")
	}
}

func TestIsRunDayClampsToMonthEnd(t *testing.T) {
	days := func(time.Month) []int { return []int{31} }
	if !isRunDay(time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), days) {
		t.Fatalf("expected day 31 to fire on 30 April")
	}
	if isRunDay(time.Date(2024, 4, 29, 0, 0, 0, 0, time.UTC), days) {
		t.Fatalf("expected 29 April not to fire")
	}
}

func TestSchedulerRunOnceUsesPeriodOfDate(t *testing.T) {
	runner := &recordingRunner{}
	s := NewScheduler(runner, []string{"KZ"}, "02:00", runDays, nil, quietLogger())
	s.runOnce(context.Background(), time.Date(2024, 7, 30, 2, 0, 0, 0, time.UTC))
	if !reflect.DeepEqual(runner.calls, []string{"Jul-2024-2@2024-07-30"}) {
		t.Fatalf("unexpected calls %v", runner.calls)
	}
}
