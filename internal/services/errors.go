package services

import "errors"

var (
	// ErrNotFound is returned when a service does not exist.
	ErrNotFound = errors.New("service not found")

	// ErrMissingTitle is returned when the title is empty.
	ErrMissingTitle = errors.New("title is required")

	// ErrInvalidDuration is returned when the duration is not a positive
	// number of minutes.
	ErrInvalidDuration = errors.New("duration must be a positive number of minutes")
)
