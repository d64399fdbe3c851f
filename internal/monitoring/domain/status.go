package monitoring

import (
	"context"
	"sort"
	"strings"
	"time"
)

// DateLayout is the text form of a session date.
const DateLayout = "2006-01-02"

// SensorStatus is the responding state of one sensor in a session.
type SensorStatus struct {
	SensorName string
	Country    string
	Deployed   bool
	Responding bool
}

// Session is one monitoring check of a country.
type Session struct {
	RunID      string
	Country    string
	Date       time.Time
	RecordedAt time.Time
	Statuses   []SensorStatus
}

// Validate checks session invariants.
func (s Session) Validate() error {
	if strings.TrimSpace(s.Country) == "" {
		return ErrEmptyCountry
	}
	if s.Date.IsZero() {
		return ErrInvalidSessionDate
	}
	if len(s.Statuses) == 0 {
		return ErrEmptySession
	}
	for _, status := range s.Statuses {
		if strings.TrimSpace(status.SensorName) == "" {
			return ErrEmptySensorName
		}
	}
	return nil
}

// SessionDate truncates t to its UTC calendar date.
func SessionDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StatusStore is an append-only log of monitoring sessions.
type StatusStore interface {
	Append(ctx context.Context, session Session) error
	SessionStatuses(ctx context.Context, country string, date time.Time) ([]SensorStatus, error)
	// PreviousSessionDate returns the latest session date before date.
	PreviousSessionDate(ctx context.Context, country string, date time.Time) (time.Time, bool, error)
}

// OffInBoth returns the sensors that responded in neither session, sorted.
// A sensor recorded several times in one session counts as responding when
// any of its records responded.
func OffInBoth(current, previous []SensorStatus) []string {
	cur := respondingByName(current)
	prev := respondingByName(previous)
	var off []string
	for name, responding := range cur {
		prevResponding, ok := prev[name]
		if !ok || responding || prevResponding {
			continue
		}
		off = append(off, name)
	}
	sort.Strings(off)
	return off
}

func respondingByName(statuses []SensorStatus) map[string]bool {
	result := make(map[string]bool, len(statuses))
	for _, status := range statuses {
		result[status.SensorName] = result[status.SensorName] || status.Responding
	}
	return result
}
