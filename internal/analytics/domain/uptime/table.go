package uptime

import (
	"sort"
	"time"
)

const dateKeyLayout = "2006-01-02"

// DailyTable pivots per-sensor daily uptime into date rows and sensor columns.
type DailyTable struct {
	Dates   []time.Time
	Sensors []string

	cells map[string]map[string]int
}

// PivotDaily builds a DailyTable. Rows are the union of all dates in ascending
// order, columns are sensor IDs ordered by SortSensorIDs, and missing cells read as 0.
// Sensors without any day contribute no column.
func PivotDaily(bySensor map[string][]DayUptime) DailyTable {
	table := DailyTable{cells: make(map[string]map[string]int)}
	dates := make(map[string]time.Time)
	for sensor, days := range bySensor {
		if len(days) == 0 {
			continue
		}
		table.Sensors = append(table.Sensors, sensor)
		row := make(map[string]int, len(days))
		for _, day := range days {
			key := day.Date.Format(dateKeyLayout)
			row[key] = day.Percent
			dates[key] = DateOf(day.Date)
		}
		table.cells[sensor] = row
	}
	for _, date := range dates {
		table.Dates = append(table.Dates, date)
	}
	sort.Slice(table.Dates, func(i, j int) bool { return table.Dates[i].Before(table.Dates[j]) })
	SortSensorIDs(table.Sensors)
	return table
}

// Value returns the percentage for a date and sensor, 0 when missing.
func (t DailyTable) Value(date time.Time, sensor string) int {
	row, ok := t.cells[sensor]
	if !ok {
		return 0
	}
	return row[date.Format(dateKeyLayout)]
}

// Row returns the percentages of one date in column order.
func (t DailyTable) Row(date time.Time) []int {
	values := make([]int, len(t.Sensors))
	for i, sensor := range t.Sensors {
		values[i] = t.Value(date, sensor)
	}
	return values
}

// Empty tells if the table has no cells.
func (t DailyTable) Empty() bool { return len(t.Sensors) == 0 || len(t.Dates) == 0 }

// SensorLess orders sensor identifiers by length, then lexicographically,
// so "S2" sorts before "S10".
func SensorLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// SortSensorIDs sorts ids with SensorLess.
func SortSensorIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return SensorLess(ids[i], ids[j]) })
}
