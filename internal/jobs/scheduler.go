package jobs

import (
	"context"
	"log"
	"time"

	"aqsensor-cloud/internal/period"
)

// PipelineRunner runs the pipeline for a set of countries.
type PipelineRunner interface {
	Run(ctx context.Context, countries []string, p period.Period, date time.Time, steps Steps) ([]CountryRun, error)
}

// Scheduler triggers pipeline runs at a fixed time on the run days of a month.
type Scheduler struct {
	runner    PipelineRunner
	countries []string
	dailyAt   string
	runDays   func(time.Month) []int
	periodFor func(time.Time) period.Period
	logger    *log.Logger
}

// NewScheduler constructs a Scheduler. A nil periodFor derives the period
// from the run date.
func NewScheduler(runner PipelineRunner, countries []string, dailyAt string, runDays func(time.Month) []int, periodFor func(time.Time) period.Period, logger *log.Logger) *Scheduler {
	if periodFor == nil {
		periodFor = period.ForDate
	}
	return &Scheduler{
		runner:    runner,
		countries: countries,
		dailyAt:   dailyAt,
		runDays:   runDays,
		periodFor: periodFor,
		logger:    logger,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.runner == nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !s.shouldRun(now.UTC()) {
				continue
			}
			s.runOnce(ctx, now.UTC())
		}
	}
}

func (s *Scheduler) shouldRun(now time.Time) bool {
	hour, minute, err := parseDailyAt(s.dailyAt)
	if err != nil {
		return false
	}
	if now.Hour() != hour || now.Minute() != minute {
		return false
	}
	return isRunDay(now, s.runDays)
}

func (s *Scheduler) runOnce(ctx context.Context, now time.Time) {
	if len(s.countries) == 0 {
		return
	}
	runs, err := s.runner.Run(ctx, s.countries, s.periodFor(now), now, AllSteps)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("scheduled run error: date=%s err=%v", now.Format("2006-01-02"), err)
		}
		return
	}
	for _, run := range runs {
		if run.Failed() && s.logger != nil {
			s.logger.Printf("scheduled run country failed: country=%s errors=%d", run.Country, len(run.Errors))
		}
	}
}

// isRunDay tells if now falls on one of the run days of its month. Days past
// the end of a short month fire on its last day.
func isRunDay(now time.Time, runDays func(time.Month) []int) bool {
	if runDays == nil {
		return false
	}
	lastDay := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	for _, day := range runDays(now.Month()) {
		if day > lastDay {
			day = lastDay
		}
		if now.Day() == day {
			return true
		}
	}
	return false
}

func parseDailyAt(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
