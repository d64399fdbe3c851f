package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	analytics "aqsensor-cloud/internal/analytics/application"
	monitorapp "aqsensor-cloud/internal/monitoring/application"
	"aqsensor-cloud/internal/period"
)

// ErrAlreadyRunning is returned when a run is requested while another is active.
var ErrAlreadyRunning = errors.New("jobs: run already in progress")

// Cleaner filters raw sensor files into a clean level.
type Cleaner interface {
	CleanCountry(ctx context.Context, country string, p period.Period, level string) (analytics.CleanResult, error)
}

// UptimeRunner computes the uptime report of a country.
type UptimeRunner interface {
	RunCountry(ctx context.Context, country string, p period.Period) (analytics.CountryReport, error)
}

// ReportPublisher writes country reports.
type ReportPublisher interface {
	Publish(report analytics.CountryReport) ([]string, error)
	PublishNoData(country string, p period.Period) (string, error)
}

// Summarizer builds the hourly sensor summary of a country.
type Summarizer interface {
	SummarizeCountry(ctx context.Context, country string, p period.Period) (analytics.CountrySummary, error)
}

// SummaryPublisher writes country summary reports.
type SummaryPublisher interface {
	PublishSummary(s analytics.CountrySummary) (string, error)
}

// StatusChecker records a monitoring session of a country.
type StatusChecker interface {
	CheckCountry(ctx context.Context, country string, p period.Period, date time.Time) (monitorapp.Check, error)
}

// Steps selects the stages of a run.
type Steps struct {
	Clean   bool
	Uptime  bool
	Summary bool
	Status  bool
}

// AllSteps runs every stage.
var AllSteps = Steps{Clean: true, Uptime: true, Summary: true, Status: true}

// CountryRun is the outcome of one country.
type CountryRun struct {
	Country  string
	Period   period.Period
	Clean    *analytics.CleanResult
	Report   *analytics.CountryReport
	Summary  *analytics.CountrySummary
	Reports  []string
	OffTwice []string
	Errors   []error
}

// Failed tells if any stage of the country failed.
func (r CountryRun) Failed() bool { return len(r.Errors) > 0 }

// Runner executes the periodic pipeline for a list of countries. Any stage
// may be nil, in which case it is skipped.
type Runner struct {
	cleaner          Cleaner
	uptime           UptimeRunner
	publisher        ReportPublisher
	summarizer       Summarizer
	summaryPublisher SummaryPublisher
	status           StatusChecker
	cleanLevel       func(country string) string
	logger           *log.Logger
	running          sync.Mutex
}

// RunnerOption configures optional stages.
type RunnerOption func(*Runner)

// WithSummary enables the sensor summary stage. A nil publisher computes the
// summary without writing it.
func WithSummary(summarizer Summarizer, publisher SummaryPublisher) RunnerOption {
	return func(r *Runner) {
		r.summarizer = summarizer
		r.summaryPublisher = publisher
	}
}

// NewRunner constructs a Runner.
func NewRunner(cleaner Cleaner, uptime UptimeRunner, publisher ReportPublisher, status StatusChecker, cleanLevel func(string) string, logger *log.Logger, opts ...RunnerOption) (*Runner, error) {
	if logger == nil {
		logger = log.Default()
	}
	r := &Runner{
		cleaner:    cleaner,
		uptime:     uptime,
		publisher:  publisher,
		status:     status,
		cleanLevel: cleanLevel,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cleaner == nil && r.uptime == nil && r.summarizer == nil && r.status == nil {
		return nil, errors.New("jobs runner: no stage configured")
	}
	if r.cleaner != nil && r.cleanLevel == nil {
		return nil, errors.New("jobs runner: clean level resolver required")
	}
	return r, nil
}

// Run processes countries one after another. A failing country never stops
// the others.
func (r *Runner) Run(ctx context.Context, countries []string, p period.Period, date time.Time, steps Steps) ([]CountryRun, error) {
	if !r.running.TryLock() {
		return nil, ErrAlreadyRunning
	}
	defer r.running.Unlock()

	runs := make([]CountryRun, 0, len(countries))
	for _, country := range countries {
		if err := ctx.Err(); err != nil {
			return runs, err
		}
		runs = append(runs, r.runCountry(ctx, strings.ToUpper(country), p, date, steps))
	}
	return runs, nil
}

func (r *Runner) runCountry(ctx context.Context, country string, p period.Period, date time.Time, steps Steps) CountryRun {
	run := CountryRun{Country: country, Period: p}
	fail := func(stage string, err error) {
		err = fmt.Errorf("%s %s: %w", stage, country, err)
		r.logger.Printf("run stage error: country=%s stage=%s err=%v", country, stage, err)
		run.Errors = append(run.Errors, err)
	}

	if steps.Clean && r.cleaner != nil {
		result, err := r.cleaner.CleanCountry(ctx, country, p, r.cleanLevel(country))
		if err != nil {
			fail("clean", err)
		} else {
			run.Clean = &result
		}
	}

	if steps.Uptime && r.uptime != nil {
		report, err := r.uptime.RunCountry(ctx, country, p)
		switch {
		case errors.Is(err, analytics.ErrNoCountryData) || (err != nil && report.Empty()):
			fail("uptime", err)
			if r.publisher != nil {
				path, perr := r.publisher.PublishNoData(country, p)
				if perr != nil {
					fail("publish", perr)
				} else {
					run.Reports = append(run.Reports, path)
				}
			}
		case err != nil:
			fail("uptime", err)
		default:
			run.Report = &report
			if r.publisher != nil {
				paths, perr := r.publisher.Publish(report)
				run.Reports = append(run.Reports, paths...)
				if perr != nil {
					fail("publish", perr)
				}
			}
		}
	}

	if steps.Summary && r.summarizer != nil {
		s, err := r.summarizer.SummarizeCountry(ctx, country, p)
		switch {
		case err != nil:
			fail("summary", err)
		default:
			run.Summary = &s
			if r.summaryPublisher != nil {
				path, perr := r.summaryPublisher.PublishSummary(s)
				if perr != nil {
					fail("publish summary", perr)
				} else {
					run.Reports = append(run.Reports, path)
				}
			}
		}
	}

	if steps.Status && r.status != nil {
		check, err := r.status.CheckCountry(ctx, country, p, date)
		if err != nil {
			fail("status", err)
		} else {
			run.OffTwice = check.OffTwice
		}
	}

	r.logger.Printf("run country done: country=%s period=%s errors=%d reports=%d", country, p.Label(), len(run.Errors), len(run.Reports))
	return run
}
