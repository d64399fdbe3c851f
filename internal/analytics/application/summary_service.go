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

	"aqsensor-cloud/internal/analytics/domain/summary"
	"aqsensor-cloud/internal/analytics/domain/uptime"
	masterdata "aqsensor-cloud/internal/masterdata/domain"
	"aqsensor-cloud/internal/observability/metrics"
	"aqsensor-cloud/internal/period"
	"aqsensor-cloud/internal/telemetry/infrastructure/csvfile"
	"aqsensor-cloud/internal/telemetry/infrastructure/filesystem"
)

const unknownCoordinate = "None"

// SensorSummary is the hourly profile of one sensor file.
type SensorSummary struct {
	SensorID   string
	Type       filesystem.SensorType
	Responding bool
	Location   string
	Latitude   string
	Longitude  string
	Hourly     map[summary.Measure][]summary.HourlyMean
}

// CountrySummary holds the sensor summaries of one country and period.
type CountrySummary struct {
	Country     string
	Period      period.Period
	GeneratedAt time.Time
	// Sensors is ordered by type, then by sensor id length and text.
	Sensors  []SensorSummary
	Failures []SensorFailure
}

// ByType returns the summaries of one sensor type.
func (s CountrySummary) ByType(sensorType filesystem.SensorType) []SensorSummary {
	var out []SensorSummary
	for _, sensor := range s.Sensors {
		if sensor.Type == sensorType {
			out = append(out, sensor)
		}
	}
	return out
}

// Responding tells if any sensor delivered data.
func (s CountrySummary) Responding() bool {
	for _, sensor := range s.Sensors {
		if sensor.Responding {
			return true
		}
	}
	return false
}

// MeasuresFor lists the charted measures of a sensor type.
func MeasuresFor(sensorType filesystem.SensorType) []summary.Measure {
	if sensorType == filesystem.Indoor {
		return summary.IndoorMeasures
	}
	return summary.OutdoorMeasures
}

// SummaryService builds hourly sensor summaries of a country.
type SummaryService struct {
	layout   *filesystem.Layout
	registry masterdata.SensorRegistry
	level    string
	workers  int
	now      func() time.Time
	logger   *log.Logger
}

// SummaryOption configures the service.
type SummaryOption func(*SummaryService)

// WithSummaryRegistry resolves sensor locations from the registry.
func WithSummaryRegistry(registry masterdata.SensorRegistry) SummaryOption {
	return func(s *SummaryService) {
		s.registry = registry
	}
}

// WithSummaryWorkers bounds the number of sensor files processed at once.
func WithSummaryWorkers(n int) SummaryOption {
	return func(s *SummaryService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithSummaryClock overrides the generation time source.
func WithSummaryClock(now func() time.Time) SummaryOption {
	return func(s *SummaryService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSummaryService constructs a SummaryService reading the raw level.
func NewSummaryService(layout *filesystem.Layout, logger *log.Logger, opts ...SummaryOption) (*SummaryService, error) {
	if layout == nil {
		return nil, errors.New("summary service: nil layout")
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &SummaryService{
		layout:  layout,
		level:   filesystem.RawLevel,
		workers: defaultWorkers,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SummarizeCountry resamples every sensor file of a country to hourly means.
// Empty files are kept as not responding. ErrNoCountryData is returned
// alongside the summary when no sensor responded.
func (s *SummaryService) SummarizeCountry(ctx context.Context, country string, p period.Period) (CountrySummary, error) {
	started := time.Now()
	country = strings.ToUpper(country)
	out := CountrySummary{Country: country, Period: p, GeneratedAt: s.now().UTC()}

	locations := s.locations(ctx, country)

	var files []filesystem.SensorFile
	for _, sensorType := range filesystem.SensorTypes {
		typed, err := s.layout.SensorFiles(country, s.level, p, sensorType)
		if err != nil {
			metrics.ObserveJob(metrics.JobSummary, metrics.ResultError, time.Since(started))
			return out, fmt.Errorf("summary service: %w", err)
		}
		files = append(files, typed...)
	}

	summaries := make([]SensorSummary, len(files))
	failures := make([]error, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			summaries[i], failures[i] = summarize(file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.ObserveJob(metrics.JobSummary, metrics.ResultError, time.Since(started))
		return out, err
	}

	for i, file := range files {
		if err := failures[i]; err != nil {
			s.logger.Printf("summary sensor error: country=%s sensor=%s err=%v", country, file.SensorID, err)
			metrics.IncSensorProcessed(metrics.JobSummary, metrics.ResultError)
			out.Failures = append(out.Failures, SensorFailure{SensorID: file.SensorID, Type: file.Type, Err: err})
			continue
		}
		sensor := summaries[i]
		sensor.Location = unknownCoordinate
		if location, ok := locations[sensor.SensorID]; ok {
			sensor.Location = location
		}
		if sensor.Responding {
			metrics.IncSensorProcessed(metrics.JobSummary, metrics.ResultSuccess)
		} else {
			metrics.IncSensorProcessed(metrics.JobSummary, metrics.ResultNoData)
		}
		out.Sensors = append(out.Sensors, sensor)
	}
	sort.SliceStable(out.Sensors, func(i, j int) bool {
		a, b := out.Sensors[i], out.Sensors[j]
		if a.Type != b.Type {
			return typeOrder(a.Type) < typeOrder(b.Type)
		}
		return uptime.SensorLess(a.SensorID, b.SensorID)
	})

	if !out.Responding() {
		metrics.ObserveJob(metrics.JobSummary, metrics.ResultNoData, time.Since(started))
		return out, ErrNoCountryData
	}
	s.logger.Printf("summary country done: country=%s period=%s sensors=%d failed=%d", country, p.Label(), len(out.Sensors), len(out.Failures))
	metrics.ObserveJob(metrics.JobSummary, metrics.ResultSuccess, time.Since(started))
	return out, nil
}

func (s *SummaryService) locations(ctx context.Context, country string) map[string]string {
	out := make(map[string]string)
	if s.registry == nil {
		return out
	}
	sensors, err := s.registry.ListByCountry(ctx, country)
	if err != nil {
		s.logger.Printf("summary registry error: country=%s err=%v", country, err)
		return out
	}
	for _, sensor := range sensors {
		out[sensor.Name] = sensor.DisplayLocation()
	}
	return out
}

func summarize(file filesystem.SensorFile) (SensorSummary, error) {
	out := SensorSummary{
		SensorID:  file.SensorID,
		Type:      file.Type,
		Latitude:  unknownCoordinate,
		Longitude: unknownCoordinate,
	}
	decoded, err := csvfile.ReadFile(file.Path, file.SensorID)
	if err != nil {
		return out, err
	}
	series := decoded.Series
	if series.Empty() {
		return out, nil
	}
	out.Responding = true
	if lat, long, ok := summary.Coordinates(series); ok {
		out.Latitude, out.Longitude = lat, long
	}
	out.Hourly = make(map[summary.Measure][]summary.HourlyMean)
	for _, m := range MeasuresFor(file.Type) {
		if points := summary.HourlyMeans(series, m); len(points) > 0 {
			out.Hourly[m] = points
		}
	}
	return out, nil
}

func typeOrder(sensorType filesystem.SensorType) int {
	for i, t := range filesystem.SensorTypes {
		if t == sensorType {
			return i
		}
	}
	return len(filesystem.SensorTypes)
}
