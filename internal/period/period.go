package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	monthLayout    = "Jan-2006"
	describeLayout = "01-02-2006"
	// splitDay is the last day of the first half-month period.
	splitDay = 16
)

var (
	// ErrInvalidLabel is returned when a period label cannot be parsed.
	ErrInvalidLabel = errors.New("period: invalid label")
)

// Period is a half-month reporting window. Start is inclusive, End exclusive, both UTC.
type Period struct {
	Start time.Time
	End   time.Time
	Part  int
}

// ForDate returns the half-month period containing t.
func ForDate(t time.Time) Period {
	t = t.UTC()
	monthStart := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	if t.Day() <= splitDay {
		return Period{Start: monthStart, End: monthStart.AddDate(0, 0, splitDay), Part: 1}
	}
	return Period{Start: monthStart.AddDate(0, 0, splitDay), End: monthStart.AddDate(0, 1, 0), Part: 2}
}

// Parse reads a label such as "Jul-2024-2".
func Parse(label string) (Period, error) {
	label = strings.TrimSpace(label)
	idx := strings.LastIndex(label, "-")
	if idx <= 0 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	month, err := time.Parse(monthLayout, label[:idx])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	part, err := strconv.Atoi(label[idx+1:])
	if err != nil || (part != 1 && part != 2) {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	day := 1
	if part == 2 {
		day = splitDay + 1
	}
	return ForDate(time.Date(month.Year(), month.Month(), day, 0, 0, 0, 0, time.UTC)), nil
}

// Label returns the folder label, e.g. "Jul-2024-2".
func (p Period) Label() string {
	return fmt.Sprintf("%s-%d", p.FileMonth(), p.Part)
}

// FileMonth returns the month tag used in raw file names, e.g. "Jul-2024".
func (p Period) FileMonth() string { return p.Start.Format(monthLayout) }

// Contains tells if t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Describe renders the period for report titles, e.g. "07-17-2024 -- 07-31-2024".
func (p Period) Describe() string {
	last := p.End.AddDate(0, 0, -1)
	return fmt.Sprintf("%s -- %s", p.Start.Format(describeLayout), last.Format(describeLayout))
}

// String implements fmt.Stringer.
func (p Period) String() string { return p.Label() }
