package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	telemetry "aqsensor-cloud/internal/telemetry/domain"
)

// Column names of exported sensor files.
const (
	ColumnTimestamp        = "Timestamp"
	ColumnPM25             = "PM 2.5"
	ColumnCO2              = "CO2"
	ColumnVOC              = "VOC"
	ColumnVOCMeasurement   = "VOC tVOC measurement"
	ColumnRelativeHumidity = "Relative Humidity"
	ColumnTemperature      = "Temperature"
	ColumnLatitude         = "Latitude"
	ColumnLongitude        = "Longitude"
	ColumnDeviceStatus     = "Device Status"
)

var (
	// ErrMissingTimestampColumn is returned when a file has rows but no timestamp column.
	ErrMissingTimestampColumn = errors.New("csvfile: missing Timestamp column")
)

// File is a decoded sensor file.
type File struct {
	Header []string
	Series telemetry.Series
}

// ReadFile decodes the sensor file at path.
func ReadFile(path, sensorID string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()
	return Read(f, sensorID)
}

// Read decodes a sensor file. The first data row is kept even when its
// timestamp does not parse, because exports carry an artifact row there that
// the uptime engine drops. Any later unparseable timestamp fails the file.
func Read(r io.Reader, sensorID string) (File, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return File{Series: telemetry.Series{SensorID: sensorID}}, nil
	}
	if err != nil {
		return File{}, fmt.Errorf("csvfile: read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	tsIdx := indexOf(header, ColumnTimestamp)

	out := File{Header: header, Series: telemetry.Series{SensorID: sensorID}}
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return File{}, fmt.Errorf("csvfile: row %d: %w", row, err)
		}
		if tsIdx < 0 {
			return File{}, ErrMissingTimestampColumn
		}
		reading, err := decodeRow(header, record, tsIdx)
		if err != nil && row > 1 {
			return File{}, fmt.Errorf("csvfile: row %d: %w", row, err)
		}
		out.Series.Readings = append(out.Series.Readings, reading)
	}
	return out, nil
}

func decodeRow(header, record []string, tsIdx int) (telemetry.Reading, error) {
	var reading telemetry.Reading
	var tsErr error
	for i, name := range header {
		if i >= len(record) {
			break
		}
		value := record[i]
		if i == tsIdx {
			reading.Timestamp, tsErr = telemetry.ParseTimestamp(value)
			continue
		}
		if field := fieldFor(&reading, name); field != nil {
			*field = telemetry.Text(value)
			continue
		}
		if reading.Extra == nil {
			reading.Extra = make(map[string]string)
		}
		reading.Extra[name] = value
	}
	if tsIdx >= len(record) {
		tsErr = errors.New("short record")
	}
	return reading, tsErr
}

func fieldFor(r *telemetry.Reading, column string) *telemetry.Field {
	switch column {
	case ColumnPM25:
		return &r.PM25
	case ColumnCO2:
		return &r.CO2
	case ColumnVOC, ColumnVOCMeasurement:
		return &r.VOC
	case ColumnRelativeHumidity:
		return &r.RelativeHumidity
	case ColumnTemperature:
		return &r.Temperature
	case ColumnLatitude:
		return &r.Latitude
	case ColumnLongitude:
		return &r.Longitude
	case ColumnDeviceStatus:
		return &r.DeviceStatus
	default:
		return nil
	}
}

// WriteFile encodes series to path with the given header, replacing any existing file.
func WriteFile(path string, header []string, series telemetry.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, header, series); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Write encodes series with the given header. Columns are filled from the
// reading fields they map to, or from Extra.
func Write(w io.Writer, header []string, series telemetry.Series) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	record := make([]string, len(header))
	for _, reading := range series.Readings {
		for i, name := range header {
			switch {
			case name == ColumnTimestamp:
				record[i] = reading.Timestamp.UTC().Format(telemetry.TimestampLayout)
			case fieldFor(&reading, name) != nil:
				record[i] = fieldFor(&reading, name).Raw()
			default:
				record[i] = reading.Extra[name]
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}
