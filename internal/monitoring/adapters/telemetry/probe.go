package telemetry

import (
	"context"
	"errors"
	"os"

	masterdata "aqsensor-cloud/internal/masterdata/domain"
	"aqsensor-cloud/internal/period"
	"aqsensor-cloud/internal/telemetry/infrastructure/csvfile"
	"aqsensor-cloud/internal/telemetry/infrastructure/filesystem"
)

// FileProbe reports a sensor as responding when its export for the period
// holds at least one row.
type FileProbe struct {
	layout *filesystem.Layout
	level  string
}

// NewFileProbe constructs a probe over the given level folder.
func NewFileProbe(layout *filesystem.Layout, level string) (*FileProbe, error) {
	if layout == nil {
		return nil, errors.New("probe: nil layout")
	}
	if level == "" {
		level = filesystem.RawLevel
	}
	return &FileProbe{layout: layout, level: level}, nil
}

// Responding reads the sensor export. A missing file means not responding.
func (p *FileProbe) Responding(ctx context.Context, sensor masterdata.Sensor, per period.Period) (bool, error) {
	_ = ctx
	path := p.layout.SensorPath(sensor.Country, p.level, per, filesystem.SensorType(sensor.Type), sensor.Name)
	file, err := csvfile.ReadFile(path, sensor.Name)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !file.Series.Empty(), nil
}
