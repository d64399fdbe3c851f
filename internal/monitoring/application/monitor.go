package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	masterdata "aqsensor-cloud/internal/masterdata/domain"
	monitoring "aqsensor-cloud/internal/monitoring/domain"
	"aqsensor-cloud/internal/monitoring/notify"
	"aqsensor-cloud/internal/observability/metrics"
	"aqsensor-cloud/internal/period"
)

// ResponseProbe tells if a sensor delivered data for a period.
type ResponseProbe interface {
	Responding(ctx context.Context, sensor masterdata.Sensor, p period.Period) (bool, error)
}

// Check is the outcome of one monitoring session.
type Check struct {
	Session  monitoring.Session
	OffTwice []string
}

// Monitor records sensor responding states and finds sensors that stay off.
type Monitor struct {
	store    monitoring.StatusStore
	registry masterdata.SensorRegistry
	probe    ResponseProbe
	notifier notify.Notifier
	logger   *log.Logger
	now      func() time.Time
}

// Option configures the monitor.
type Option func(*Monitor)

// WithClock overrides the clock used for RecordedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// WithNotifier sends an alert whenever sensors are found off twice.
func WithNotifier(n notify.Notifier) Option {
	return func(m *Monitor) {
		m.notifier = n
	}
}

// NewMonitor constructs a monitor. Registry and probe are only needed by CheckCountry.
func NewMonitor(store monitoring.StatusStore, registry masterdata.SensorRegistry, probe ResponseProbe, logger *log.Logger, opts ...Option) (*Monitor, error) {
	if store == nil {
		return nil, errors.New("monitor: nil status store")
	}
	if logger == nil {
		logger = log.Default()
	}
	m := &Monitor{
		store:    store,
		registry: registry,
		probe:    probe,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// CheckCountry probes every registered sensor of a country, records the
// session and returns the sensors off in this and the previous session.
func (m *Monitor) CheckCountry(ctx context.Context, country string, p period.Period, date time.Time) (Check, error) {
	if m.registry == nil || m.probe == nil {
		return Check{}, errors.New("monitor: registry and probe required")
	}
	started := time.Now()
	sensors, err := m.registry.ListByCountry(ctx, country)
	if err != nil {
		metrics.ObserveJob(metrics.JobStatus, metrics.ResultError, time.Since(started))
		return Check{}, fmt.Errorf("monitor: list sensors: %w", err)
	}

	statuses := make([]monitoring.SensorStatus, 0, len(sensors))
	for _, sensor := range sensors {
		if err := ctx.Err(); err != nil {
			return Check{}, err
		}
		responding, err := m.probe.Responding(ctx, sensor, p)
		if err != nil {
			m.logger.Printf("monitor probe error: country=%s sensor=%s err=%v", country, sensor.Name, err)
		}
		if sensor.TurnedOff(responding) {
			m.logger.Printf("monitor sensor turned off: country=%s sensor=%s location=%s", country, sensor.Name, sensor.DisplayLocation())
		}
		statuses = append(statuses, monitoring.SensorStatus{
			SensorName: sensor.Name,
			Country:    sensor.Country,
			Deployed:   sensor.Deployed,
			Responding: responding,
		})
	}

	session, err := m.RecordSession(ctx, country, date, statuses)
	if err != nil {
		metrics.ObserveJob(metrics.JobStatus, metrics.ResultError, time.Since(started))
		return Check{}, err
	}
	off, err := m.OffTwice(ctx, country, date)
	if err != nil {
		metrics.ObserveJob(metrics.JobStatus, metrics.ResultError, time.Since(started))
		return Check{Session: session}, err
	}
	if len(off) > 0 {
		m.logger.Printf("monitor sensors off for two consecutive sessions: country=%s sensors=%s", country, strings.Join(off, ","))
		m.alert(ctx, session, p, off)
	}
	metrics.ObserveJob(metrics.JobStatus, metrics.ResultSuccess, time.Since(started))
	return Check{Session: session, OffTwice: off}, nil
}

// RecordSession appends a session to the status log.
func (m *Monitor) RecordSession(ctx context.Context, country string, date time.Time, statuses []monitoring.SensorStatus) (monitoring.Session, error) {
	session := monitoring.Session{
		RunID:      uuid.NewString(),
		Country:    strings.ToUpper(country),
		Date:       monitoring.SessionDate(date),
		RecordedAt: m.now().UTC(),
		Statuses:   statuses,
	}
	if err := m.store.Append(ctx, session); err != nil {
		return monitoring.Session{}, fmt.Errorf("monitor: record session: %w", err)
	}
	return session, nil
}

// OffTwice returns the sensors not responding in the session of date and in
// the session before it. Without a previous session nothing is returned.
func (m *Monitor) OffTwice(ctx context.Context, country string, date time.Time) ([]string, error) {
	if strings.TrimSpace(country) == "" {
		return nil, monitoring.ErrEmptyCountry
	}
	if date.IsZero() {
		return nil, monitoring.ErrInvalidSessionDate
	}
	previous, ok, err := m.store.PreviousSessionDate(ctx, country, date)
	if err != nil {
		return nil, fmt.Errorf("monitor: previous session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	current, err := m.store.SessionStatuses(ctx, country, date)
	if err != nil {
		return nil, fmt.Errorf("monitor: current session: %w", err)
	}
	before, err := m.store.SessionStatuses(ctx, country, previous)
	if err != nil {
		return nil, fmt.Errorf("monitor: previous session: %w", err)
	}
	return monitoring.OffInBoth(current, before), nil
}

func (m *Monitor) alert(ctx context.Context, session monitoring.Session, p period.Period, off []string) {
	if m.notifier == nil {
		return
	}
	alert := notify.OffTwiceAlert{
		Country:     session.Country,
		CountryName: masterdata.CountryName(session.Country),
		Date:        session.Date.Format(monitoring.DateLayout),
		Period:      p.Label(),
		Sensors:     off,
	}
	if err := m.notifier.Notify(ctx, alert); err != nil {
		m.logger.Printf("monitor notify error: country=%s err=%v", session.Country, err)
	}
}
