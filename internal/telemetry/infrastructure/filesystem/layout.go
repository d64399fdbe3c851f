package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"aqsensor-cloud/internal/period"
)

// RawLevel is the folder of unprocessed downloads.
const RawLevel = "Level 0"

// SensorType is the indoor/outdoor folder of a sensor file.
type SensorType string

const (
	Indoor  SensorType = "Indoor Sensors"
	Outdoor SensorType = "Outdoor Sensors"
)

// SensorTypes lists sensor folders in processing order.
var SensorTypes = []SensorType{Indoor, Outdoor}

var sensorFilePattern = regexp.MustCompile(`^([A-Za-z0-9-]+)-\w+-\d{4}`)

// SensorFile is one per-sensor export inside a period folder.
type SensorFile struct {
	SensorID string
	Type     SensorType
	Path     string
}

// Layout resolves data folders of the form
// <root>/<country>/<level>/<period>/<sensor type>/<sensor>-<Mon-YYYY>.csv.
type Layout struct {
	root string
}

// NewLayout constructs a Layout rooted at root.
func NewLayout(root string) (*Layout, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("filesystem: data root required")
	}
	return &Layout{root: root}, nil
}

// Root returns the data root.
func (l *Layout) Root() string { return l.root }

// PeriodDir returns the folder holding one country level for a period.
func (l *Layout) PeriodDir(country, level string, p period.Period) string {
	return filepath.Join(l.root, country, level, p.Label())
}

// SensorDir returns the folder of one sensor type.
func (l *Layout) SensorDir(country, level string, p period.Period, sensorType SensorType) string {
	return filepath.Join(l.PeriodDir(country, level, p), string(sensorType))
}

// SensorPath returns the export file of a registered sensor.
func (l *Layout) SensorPath(country, level string, p period.Period, sensorType SensorType, sensorName string) string {
	return filepath.Join(l.SensorDir(country, level, p, sensorType), sensorName+"-"+p.FileMonth()+".csv")
}

// SensorFiles lists the CSV files of one sensor type, sorted by file name.
// A missing folder yields no files.
func (l *Layout) SensorFiles(country, level string, p period.Period, sensorType SensorType) ([]SensorFile, error) {
	dir := l.SensorDir(country, level, p, sensorType)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filesystem: list %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	files := make([]SensorFile, 0, len(names))
	for _, name := range names {
		files = append(files, SensorFile{
			SensorID: SensorIDFromFile(name),
			Type:     sensorType,
			Path:     filepath.Join(dir, name),
		})
	}
	return files, nil
}

// EnsureSensorDirs creates the sensor type folders of a level.
func (l *Layout) EnsureSensorDirs(country, level string, p period.Period) error {
	for _, sensorType := range SensorTypes {
		if err := os.MkdirAll(l.SensorDir(country, level, p, sensorType), 0o755); err != nil {
			return fmt.Errorf("filesystem: create %s folder: %w", sensorType, err)
		}
	}
	return nil
}

// SensorIDFromFile extracts the sensor identifier from an export file name,
// e.g. "KZ-Almaty-01-Jul-2024.csv" -> "KZ-Almaty-01". Names that do not
// match fall back to the text before the first dash.
func SensorIDFromFile(name string) string {
	if m := sensorFilePattern.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if idx := strings.Index(base, "-"); idx >= 0 {
		return base[:idx]
	}
	return base
}
