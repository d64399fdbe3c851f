package monitoring

import "errors"

var (
	// ErrEmptyCountry indicates a missing country code.
	ErrEmptyCountry = errors.New("monitoring: empty country")
	// ErrEmptySensorName indicates a status without sensor name.
	ErrEmptySensorName = errors.New("monitoring: empty sensor name")
	// ErrInvalidSessionDate indicates a zero session date.
	ErrInvalidSessionDate = errors.New("monitoring: invalid session date")
	// ErrEmptySession indicates a session without statuses.
	ErrEmptySession = errors.New("monitoring: empty session")
)
