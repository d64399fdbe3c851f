package application

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aqsensor-cloud/internal/period"
	"aqsensor-cloud/internal/telemetry/infrastructure/filesystem"
)

const rawHeader = "Timestamp,PM 2.5,CO2,VOC,Relative Humidity,Device Status,Serial"

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testPeriod(t *testing.T) period.Period {
	t.Helper()
	p, err := period.Parse("Jul-2024-2")
	if err != nil {
		t.Fatalf("period: %v", err)
	}
	return p
}

func newLayout(t *testing.T) *filesystem.Layout {
	t.Helper()
	layout, err := filesystem.NewLayout(t.TempDir())
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	return layout
}

// minuteRows renders one artifact row followed by readings every minute
// from 09:30 to 12:00 on 17 July 2024.
func minuteRows(pm25 string) []string {
	rows := []string{"Timestamp,,,,,,"}
	start := time.Date(2024, 7, 17, 9, 30, 0, 0, time.UTC)
	for i := 0; i <= 150; i++ {
		ts := start.Add(time.Duration(i) * time.Minute).Format("2006-01-02T15:04:05Z")
		rows = append(rows, fmt.Sprintf("%s,%s,600,12.5,40,0,X1", ts, pm25))
	}
	return rows
}

func writeSensorFile(t *testing.T, layout *filesystem.Layout, level string, p period.Period, sensorType filesystem.SensorType, name string, rows []string) string {
	t.Helper()
	path := layout.SensorPath("KZ", level, p, sensorType, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := rawHeader + "\n"
	if len(rows) > 0 {
		content += strings.Join(rows, "\n") + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
