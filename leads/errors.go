package leads

import "errors"

var (
	// ErrInvalidInput is returned for malformed caller input (negative
	// thresholds, empty URLs).
	ErrInvalidInput = errors.New("leads: invalid input")
	// ErrNotFound is returned when a requested lead does not exist.
	ErrNotFound = errors.New("leads: not found")
)
