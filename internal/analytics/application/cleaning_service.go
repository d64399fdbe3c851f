package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"aqsensor-cloud/internal/analytics/domain/uptime"
	"aqsensor-cloud/internal/observability/metrics"
	"aqsensor-cloud/internal/period"
	"aqsensor-cloud/internal/telemetry/infrastructure/csvfile"
	"aqsensor-cloud/internal/telemetry/infrastructure/filesystem"
)

// CleanResult summarises one country cleaning run.
type CleanResult struct {
	Country  string
	Level    string
	Written  []string
	Skipped  []string
	Failures []SensorFailure
	Kept     int
	Dropped  int
}

// CleaningService filters raw sensor files into a clean level folder.
type CleaningService struct {
	layout  *filesystem.Layout
	workers int
	logger  *log.Logger
}

// NewCleaningService constructs a CleaningService.
func NewCleaningService(layout *filesystem.Layout, workers int, logger *log.Logger) (*CleaningService, error) {
	if layout == nil {
		return nil, errors.New("cleaning service: nil layout")
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CleaningService{layout: layout, workers: workers, logger: logger}, nil
}

// CleanCountry filters every raw file of a country into level. Empty files
// are skipped, and files that cannot be aligned are logged and skipped.
func (s *CleaningService) CleanCountry(ctx context.Context, country string, p period.Period, level string) (CleanResult, error) {
	started := time.Now()
	country = strings.ToUpper(country)
	result := CleanResult{Country: country, Level: level}
	if strings.TrimSpace(level) == "" || level == filesystem.RawLevel {
		return result, fmt.Errorf("cleaning service: invalid clean level %q", level)
	}
	s.logger.Printf("cleaning start: country=%s level=%s period=%s", country, level, p.Label())

	if err := s.layout.EnsureSensorDirs(country, level, p); err != nil {
		metrics.ObserveJob(metrics.JobCleaning, metrics.ResultError, time.Since(started))
		return result, fmt.Errorf("cleaning service: %w", err)
	}

	var files []filesystem.SensorFile
	for _, sensorType := range filesystem.SensorTypes {
		typed, err := s.layout.SensorFiles(country, filesystem.RawLevel, p, sensorType)
		if err != nil {
			metrics.ObserveJob(metrics.JobCleaning, metrics.ResultError, time.Since(started))
			return result, fmt.Errorf("cleaning service: %w", err)
		}
		files = append(files, typed...)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			target := filepath.Join(s.layout.SensorDir(country, level, p, file.Type), filepath.Base(file.Path))
			filtered, written, err := s.cleanFile(file, target)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				s.logger.Printf("cleaning sensor error: country=%s sensor=%s err=%v", country, file.SensorID, err)
				metrics.IncSensorProcessed(metrics.JobCleaning, metrics.ResultError)
				result.Failures = append(result.Failures, SensorFailure{SensorID: file.SensorID, Type: file.Type, Err: err})
			case !written:
				metrics.IncSensorProcessed(metrics.JobCleaning, metrics.ResultNoData)
				result.Skipped = append(result.Skipped, file.SensorID)
			default:
				kept := filtered.Series.Len()
				metrics.IncSensorProcessed(metrics.JobCleaning, metrics.ResultSuccess)
				metrics.AddCleaningRows(kept, filtered.Dropped)
				result.Written = append(result.Written, target)
				result.Kept += kept
				result.Dropped += filtered.Dropped
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.ObserveJob(metrics.JobCleaning, metrics.ResultError, time.Since(started))
		return result, err
	}

	uptime.SortSensorIDs(result.Skipped)
	s.logger.Printf("cleaning done: country=%s level=%s written=%d skipped=%d failed=%d kept=%d dropped=%d",
		country, level, len(result.Written), len(result.Skipped), len(result.Failures), result.Kept, result.Dropped)
	metrics.ObserveJob(metrics.JobCleaning, metrics.ResultSuccess, time.Since(started))
	return result, nil
}

func (s *CleaningService) cleanFile(file filesystem.SensorFile, target string) (uptime.Filtered, bool, error) {
	decoded, err := csvfile.ReadFile(file.Path, file.SensorID)
	if err != nil {
		return uptime.Filtered{}, false, err
	}
	if decoded.Series.Empty() {
		return uptime.Filtered{}, false, nil
	}
	filtered, err := uptime.FilterSeries(decoded.Series)
	if err != nil {
		return uptime.Filtered{}, false, fmt.Errorf("filter: %w", err)
	}
	if err := csvfile.WriteFile(target, decoded.Header, filtered.Series); err != nil {
		return uptime.Filtered{}, false, fmt.Errorf("write: %w", err)
	}
	return filtered, true, nil
}
