package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	monitoring "aqsensor-cloud/internal/monitoring/domain"
)

const defaultStatusTable = "sensor_status"

// StatusStore persists sessions through database/sql. Queries use $n
// placeholders, which both the pgx and sqlite3 drivers accept.
type StatusStore struct {
	db    *sql.DB
	table string
}

// Option configures the store.
type Option func(*StatusStore)

// WithTable overrides the default table name.
func WithTable(table string) Option {
	return func(s *StatusStore) {
		if table != "" {
			s.table = table
		}
	}
}

// NewStatusStore constructs a store.
func NewStatusStore(db *sql.DB, opts ...Option) (*StatusStore, error) {
	if db == nil {
		return nil, errors.New("sqlstore: nil db")
	}
	store := &StatusStore{db: db, table: defaultStatusTable}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// EnsureSchema creates the status table when missing.
func (s *StatusStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	run_id TEXT NOT NULL,
	session_date TEXT NOT NULL,
	country TEXT NOT NULL,
	sensor_name TEXT NOT NULL,
	deployed BOOLEAN NOT NULL,
	responding BOOLEAN NOT NULL,
	recorded_at TEXT NOT NULL
)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_country_date_idx ON %s (country, session_date)`, s.table, s.table),
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlstore: ensure schema: %w", err)
		}
	}
	return nil
}

// Append writes every status of a session in one transaction.
func (s *StatusStore) Append(ctx context.Context, session monitoring.Session) (err error) {
	if err := session.Validate(); err != nil {
		return err
	}
	recordedAt := session.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	country := strings.ToUpper(session.Country)
	date := monitoring.SessionDate(session.Date).Format(monitoring.DateLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
INSERT INTO %s (run_id, session_date, country, sensor_name, deployed, responding, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`, s.table))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, status := range session.Statuses {
		if _, err = stmt.ExecContext(ctx,
			session.RunID,
			date,
			country,
			status.SensorName,
			status.Deployed,
			status.Responding,
			recordedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("sqlstore: insert %s: %w", status.SensorName, err)
		}
	}
	return tx.Commit()
}

// SessionStatuses returns every status recorded for a country and date.
func (s *StatusStore) SessionStatuses(ctx context.Context, country string, date time.Time) ([]monitoring.SensorStatus, error) {
	if country == "" {
		return nil, monitoring.ErrEmptyCountry
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
SELECT sensor_name, country, deployed, responding
FROM %s
WHERE country = $1 AND session_date = $2
ORDER BY sensor_name`, s.table),
		strings.ToUpper(country),
		monitoring.SessionDate(date).Format(monitoring.DateLayout),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []monitoring.SensorStatus
	for rows.Next() {
		var status monitoring.SensorStatus
		if err := rows.Scan(&status.SensorName, &status.Country, &status.Deployed, &status.Responding); err != nil {
			return nil, err
		}
		result = append(result, status)
	}
	return result, rows.Err()
}

// PreviousSessionDate returns the latest session date before date.
func (s *StatusStore) PreviousSessionDate(ctx context.Context, country string, date time.Time) (time.Time, bool, error) {
	if country == "" {
		return time.Time{}, false, monitoring.ErrEmptyCountry
	}
	var latest sql.NullString
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
SELECT MAX(session_date)
FROM %s
WHERE country = $1 AND session_date < $2`, s.table),
		strings.ToUpper(country),
		monitoring.SessionDate(date).Format(monitoring.DateLayout),
	).Scan(&latest)
	if err != nil {
		return time.Time{}, false, err
	}
	if !latest.Valid || latest.String == "" {
		return time.Time{}, false, nil
	}
	parsed, err := time.Parse(monitoring.DateLayout, latest.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("sqlstore: session date %q: %w", latest.String, err)
	}
	return parsed, true, nil
}
