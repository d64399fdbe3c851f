package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"aqsensor-cloud/internal/period"
)

func TestSensorIDFromFile(t *testing.T) {
	cases := map[string]string{
		"KZ-Almaty-01-Jul-2024.csv": "KZ-Almaty-01",
		"8143-Jul-2024.csv":         "8143",
		"KZ-01-Jul-2024.csv":        "KZ-01",
		"Sensor1_backup.csv":        "Sensor1_backup",
		"odd_name-extra.csv":        "odd_name",
	}
	for name, want := range cases {
		if got := SensorIDFromFile(name); got != want {
			t.Fatalf("%s: expected %q, got %q", name, want, got)
		}
	}
}

func TestSensorFiles(t *testing.T) {
	root := t.TempDir()
	layout, err := NewLayout(root)
	if err != nil {
		t.Fatalf("new layout: %v", err)
	}
	p, _ := period.Parse("Jul-2024-2")
	dir := layout.SensorDir("KZ", RawLevel, p, Indoor)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"B2-Jul-2024.csv", "A1-Jul-2024.csv", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("Timestamp\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	files, err := layout.SensorFiles("KZ", RawLevel, p, Indoor)
	if err != nil {
		t.Fatalf("sensor files: %v", err)
	}
	if len(files) != 2 || files[0].SensorID != "A1" || files[1].SensorID != "B2" {
		t.Fatalf("unexpected files %+v", files)
	}
	if want := filepath.Join(root, "KZ", "Level 0", "Jul-2024-2", "Indoor Sensors", "A1-Jul-2024.csv"); files[0].Path != want {
		t.Fatalf("expected %s, got %s", want, files[0].Path)
	}

	missing, err := layout.SensorFiles("KG", RawLevel, p, Outdoor)
	if err != nil || len(missing) != 0 {
		t.Fatalf("expected no files for missing folder, got %v (%v)", missing, err)
	}
}

func TestEnsureSensorDirs(t *testing.T) {
	layout, _ := NewLayout(t.TempDir())
	p, _ := period.Parse("Jul-2024-1")
	if err := layout.EnsureSensorDirs("KZ", "Level 2", p); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	for _, st := range SensorTypes {
		if info, err := os.Stat(layout.SensorDir("KZ", "Level 2", p, st)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s folder: %v", st, err)
		}
	}
	if _, err := NewLayout(" "); err == nil {
		t.Fatalf("expected error for blank root")
	}
}

func TestSensorPath(t *testing.T) {
	layout, _ := NewLayout("/data")
	p, _ := period.Parse("Jul-2024-2")
	got := layout.SensorPath("KG", RawLevel, p, Outdoor, "KG-07")
	want := filepath.Join("/data", "KG", "Level 0", "Jul-2024-2", "Outdoor Sensors", "KG-07-Jul-2024.csv")
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if id := SensorIDFromFile(filepath.Base(got)); id != "KG-07" {
		t.Fatalf("expected round-trip sensor id, got %s", id)
	}
}
