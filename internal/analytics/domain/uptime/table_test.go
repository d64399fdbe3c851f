package uptime

import (
	"reflect"
	"testing"
)

func TestPivotDaily(t *testing.T) {
	d1 := at(15, 0, 0, 0)
	d2 := at(16, 0, 0, 0)
	d3 := at(17, 0, 0, 0)
	table := PivotDaily(map[string][]DayUptime{
		"S10":  {{Date: d2, Percent: 80}},
		"S2":   {{Date: d1, Percent: 100}, {Date: d3, Percent: 50}},
		"A1":   {{Date: d1, Percent: 25}},
		"GONE": nil,
	})

	if want := []string{"A1", "S2", "S10"}; !reflect.DeepEqual(table.Sensors, want) {
		t.Fatalf("expected columns %v, got %v", want, table.Sensors)
	}
	if len(table.Dates) != 3 || !table.Dates[0].Equal(d1) || !table.Dates[2].Equal(d3) {
		t.Fatalf("expected sorted union of dates, got %v", table.Dates)
	}
	if got := table.Row(d1); !reflect.DeepEqual(got, []int{25, 100, 0}) {
		t.Fatalf("unexpected first row %v", got)
	}
	if got := table.Value(d2, "S10"); got != 80 {
		t.Fatalf("expected 80, got %d", got)
	}
	if got := table.Value(d2, "missing"); got != 0 {
		t.Fatalf("expected 0 for unknown sensor, got %d", got)
	}
	if table.Empty() {
		t.Fatalf("expected table to have cells")
	}
}

func TestPivotDailyEmpty(t *testing.T) {
	if table := PivotDaily(nil); !table.Empty() {
		t.Fatalf("expected empty table, got %+v", table)
	}
}

func TestSortSensorIDs(t *testing.T) {
	ids := []string{"KZ-10", "KZ-2", "AB", "KZ-1", "Z"}
	SortSensorIDs(ids)
	if want := []string{"Z", "AB", "KZ-1", "KZ-2", "KZ-10"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
}

func TestSensorLess(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"S2", "S10", true},
		{"S10", "S2", false},
		{"S1", "S2", true},
		{"S1", "S1", false},
	}
	for _, tc := range cases {
		if got := SensorLess(tc.a, tc.b); got != tc.want {
			t.Fatalf("SensorLess(%q, %q): expected %v, got %v", tc.a, tc.b, tc.want, got)
		}
	}
}
