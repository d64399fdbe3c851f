package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"aqsensor-cloud/internal/analytics/domain/uptime"
	"aqsensor-cloud/internal/observability/metrics"
	"aqsensor-cloud/internal/period"
	"aqsensor-cloud/internal/telemetry/infrastructure/csvfile"
	"aqsensor-cloud/internal/telemetry/infrastructure/filesystem"
)

const defaultWorkers = 4

// UptimeService computes per-sensor uptime of a country from the sensor files.
type UptimeService struct {
	layout     *filesystem.Layout
	calculator *uptime.Calculator
	level      string
	workers    int
	logger     *log.Logger
}

// UptimeOption configures the service.
type UptimeOption func(*UptimeService)

// WithUptimeLevel sets the level folder uptime is computed from.
func WithUptimeLevel(level string) UptimeOption {
	return func(s *UptimeService) {
		if level != "" {
			s.level = level
		}
	}
}

// WithUptimeWorkers bounds the number of sensor files processed at once.
func WithUptimeWorkers(n int) UptimeOption {
	return func(s *UptimeService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewUptimeService constructs an UptimeService.
func NewUptimeService(layout *filesystem.Layout, calculator *uptime.Calculator, logger *log.Logger, opts ...UptimeOption) (*UptimeService, error) {
	if layout == nil {
		return nil, errors.New("uptime service: nil layout")
	}
	if calculator == nil {
		calculator = uptime.NewCalculator()
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &UptimeService{
		layout:     layout,
		calculator: calculator,
		level:      filesystem.RawLevel,
		workers:    defaultWorkers,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type sensorOutcome struct {
	file    filesystem.SensorFile
	uptime  SensorUptime
	daily   []uptime.DayUptime
	noData  bool
	failure error
}

// RunCountry computes the uptime of every sensor file of a country. A sensor
// that fails is recorded in the report and never stops the others.
// ErrNoCountryData is returned alongside the report when no sensor yielded
// an uptime or a daily uptime.
func (s *UptimeService) RunCountry(ctx context.Context, country string, p period.Period) (CountryReport, error) {
	started := time.Now()
	country = strings.ToUpper(country)
	report := CountryReport{
		Country: country,
		Period:  p,
		Daily:   make(map[filesystem.SensorType]uptime.DailyTable),
	}

	var files []filesystem.SensorFile
	for _, sensorType := range filesystem.SensorTypes {
		typed, err := s.layout.SensorFiles(country, s.level, p, sensorType)
		if err != nil {
			metrics.ObserveJob(metrics.JobUptime, metrics.ResultError, time.Since(started))
			return report, fmt.Errorf("uptime service: %w", err)
		}
		files = append(files, typed...)
	}

	outcomes := make([]sensorOutcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = s.processSensor(file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.ObserveJob(metrics.JobUptime, metrics.ResultError, time.Since(started))
		return report, err
	}

	dailyByType := make(map[filesystem.SensorType]map[string][]uptime.DayUptime)
	for _, outcome := range outcomes {
		id := outcome.file.SensorID
		switch {
		case outcome.failure != nil:
			s.logger.Printf("uptime sensor error: country=%s sensor=%s err=%v", country, id, outcome.failure)
			metrics.IncSensorProcessed(metrics.JobUptime, metrics.ResultError)
			report.Failures = append(report.Failures, SensorFailure{SensorID: id, Type: outcome.file.Type, Err: outcome.failure})
		case outcome.noData:
			metrics.IncSensorProcessed(metrics.JobUptime, metrics.ResultNoData)
			report.NoData = append(report.NoData, id)
		default:
			metrics.IncSensorProcessed(metrics.JobUptime, metrics.ResultSuccess)
			metrics.SetSensorUptime(country, id, outcome.uptime.Percent)
			report.Uptimes = append(report.Uptimes, outcome.uptime)
		}
		if len(outcome.daily) > 0 {
			if dailyByType[outcome.file.Type] == nil {
				dailyByType[outcome.file.Type] = make(map[string][]uptime.DayUptime)
			}
			dailyByType[outcome.file.Type][id] = outcome.daily
		}
	}
	for sensorType, bySensor := range dailyByType {
		report.Daily[sensorType] = uptime.PivotDaily(bySensor)
	}
	sort.SliceStable(report.Uptimes, func(i, j int) bool {
		return uptime.SensorLess(report.Uptimes[i].SensorID, report.Uptimes[j].SensorID)
	})
	uptime.SortSensorIDs(report.NoData)

	if report.Empty() {
		metrics.ObserveJob(metrics.JobUptime, metrics.ResultNoData, time.Since(started))
		return report, ErrNoCountryData
	}
	s.logger.Printf("uptime country done: country=%s period=%s sensors=%d no_data=%d failed=%d",
		country, p.Label(), len(report.Uptimes), len(report.NoData), len(report.Failures))
	metrics.ObserveJob(metrics.JobUptime, metrics.ResultSuccess, time.Since(started))
	return report, nil
}

func (s *UptimeService) processSensor(file filesystem.SensorFile) sensorOutcome {
	outcome := sensorOutcome{file: file}
	decoded, err := csvfile.ReadFile(file.Path, file.SensorID)
	if err != nil {
		outcome.failure = err
		return outcome
	}
	series := decoded.Series
	if series.Empty() {
		outcome.noData = true
		return outcome
	}
	// Days are scored on their own, so a series the global figure cannot
	// align still contributes its daily uptime.
	outcome.daily = s.calculator.DailyUptime(series)
	percent, err := s.calculator.Uptime(series)
	if err != nil {
		if uptime.IsNoData(err) {
			outcome.noData = true
			return outcome
		}
		outcome.failure = err
		return outcome
	}
	outcome.uptime = SensorUptime{
		SensorID: file.SensorID,
		Type:     file.Type,
		Percent:  percent,
		Daily:    outcome.daily,
	}
	return outcome
}
