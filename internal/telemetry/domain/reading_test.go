package telemetry

import (
	"errors"
	"testing"
	"time"
)

func TestFieldCoercion(t *testing.T) {
	cases := []struct {
		name    string
		field   Field
		wantInt int64
		wantErr error
	}{
		{name: "integer", field: Text("42"), wantInt: 42},
		{name: "truncates", field: Text(" 12.9 "), wantInt: 12},
		{name: "negative truncates toward zero", field: Text("-3.7"), wantInt: -3},
		{name: "number", field: Number(7.5), wantInt: 7},
		{name: "absent", field: Absent(), wantErr: ErrFieldAbsent},
		{name: "empty", field: Text(""), wantErr: ErrFieldNotNumeric},
		{name: "garbage", field: Text("n/a"), wantErr: ErrFieldNotNumeric},
		{name: "nan", field: Text("NaN"), wantErr: ErrFieldNotNumeric},
		{name: "inf", field: Text("+Inf"), wantErr: ErrFieldNotNumeric},
		{name: "out of int range", field: Text("1e30"), wantErr: ErrFieldNotNumeric},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.field.Int()
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("int: %v", err)
			}
			if got != tc.wantInt {
				t.Fatalf("expected %d, got %d", tc.wantInt, got)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp(" 2024-07-17T09:30:00Z ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2024, 7, 17, 9, 30, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("expected %v, got %v", want, ts)
	}
	if _, err := ParseTimestamp("17/07/2024"); err == nil {
		t.Fatalf("expected error for foreign layout")
	}
}

func TestSeriesEmpty(t *testing.T) {
	if !(Series{SensorID: "S1"}).Empty() {
		t.Fatalf("series without readings should be empty")
	}
	s := Series{SensorID: "S1", Readings: []Reading{{Timestamp: time.Now()}}}
	if s.Empty() || s.Len() != 1 {
		t.Fatalf("unexpected series state: len=%d", s.Len())
	}
}
