package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	masterdata "aqsensor-cloud/internal/masterdata/domain"
)

var requiredColumns = []string{"sensor_name", "sensor_type", "country", "is_deployed", "location", "owner"}

// Registry reads <country>_deployed_sensors.csv files from a folder.
type Registry struct {
	dir string
}

// NewRegistry constructs a Registry reading from dir.
func NewRegistry(dir string) (*Registry, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("sensor registry: empty dir")
	}
	return &Registry{dir: dir}, nil
}

// ListByCountry loads the sensors of one country, sorted by name.
func (r *Registry) ListByCountry(ctx context.Context, country string) ([]masterdata.Sensor, error) {
	_ = ctx
	path := filepath.Join(r.dir, strings.ToLower(country)+"_deployed_sensors.csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sensor registry: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a deployed-sensors CSV.
func Parse(r io.Reader) ([]masterdata.Sensor, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("sensor registry: read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("sensor registry: missing column %q", col)
		}
	}

	var sensors []masterdata.Sensor
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sensor registry: line %d: %w", line, err)
		}
		deployed, err := strconv.Atoi(strings.TrimSpace(record[idx["is_deployed"]]))
		if err != nil {
			return nil, fmt.Errorf("sensor registry: line %d: is_deployed: %w", line, err)
		}
		sensor := masterdata.Sensor{
			Name:     strings.TrimSpace(record[idx["sensor_name"]]),
			Type:     strings.TrimSpace(record[idx["sensor_type"]]),
			Country:  strings.ToUpper(strings.TrimSpace(record[idx["country"]])),
			Deployed: deployed != 0,
			Location: strings.TrimSpace(record[idx["location"]]),
			Owner:    strings.TrimSpace(record[idx["owner"]]),
		}
		if err := sensor.Validate(); err != nil {
			return nil, fmt.Errorf("sensor registry: line %d: %w", line, err)
		}
		sensors = append(sensors, sensor)
	}
	sort.Slice(sensors, func(i, j int) bool { return sensors[i].Name < sensors[j].Name })
	return sensors, nil
}
