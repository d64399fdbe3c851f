package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	monitoring "aqsensor-cloud/internal/monitoring/domain"
)

// StatusStore is an in-memory status log for tests and dry runs.
type StatusStore struct {
	mu       sync.RWMutex
	sessions []monitoring.Session
}

// NewStatusStore constructs a store.
func NewStatusStore() *StatusStore {
	return &StatusStore{}
}

// Append records a session.
func (s *StatusStore) Append(ctx context.Context, session monitoring.Session) error {
	_ = ctx
	if err := session.Validate(); err != nil {
		return err
	}
	session.Country = strings.ToUpper(session.Country)
	session.Date = monitoring.SessionDate(session.Date)
	session.Statuses = append([]monitoring.SensorStatus(nil), session.Statuses...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, session)
	return nil
}

// SessionStatuses returns every status recorded for a country and date.
func (s *StatusStore) SessionStatuses(ctx context.Context, country string, date time.Time) ([]monitoring.SensorStatus, error) {
	_ = ctx
	if country == "" {
		return nil, monitoring.ErrEmptyCountry
	}
	country = strings.ToUpper(country)
	date = monitoring.SessionDate(date)

	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []monitoring.SensorStatus
	for _, session := range s.sessions {
		if session.Country == country && session.Date.Equal(date) {
			result = append(result, session.Statuses...)
		}
	}
	return result, nil
}

// PreviousSessionDate returns the latest session date before date.
func (s *StatusStore) PreviousSessionDate(ctx context.Context, country string, date time.Time) (time.Time, bool, error) {
	_ = ctx
	if country == "" {
		return time.Time{}, false, monitoring.ErrEmptyCountry
	}
	country = strings.ToUpper(country)
	date = monitoring.SessionDate(date)

	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest time.Time
	found := false
	for _, session := range s.sessions {
		if session.Country != country || !session.Date.Before(date) {
			continue
		}
		if !found || session.Date.After(latest) {
			latest = session.Date
			found = true
		}
	}
	return latest, found, nil
}
