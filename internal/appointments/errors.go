package appointments

import "errors"

var (
	// ErrNotFound is returned when an appointment does not exist.
	ErrNotFound = errors.New("appointment not found")

	// ErrSlotTaken is returned by CreateIfFree when a non-cancelled
	// appointment already occupies part of the requested interval.
	ErrSlotTaken = errors.New("time slot is no longer available")

	// ErrInvalidInput is returned for unparseable dates, time slots, or
	// unknown statuses.
	ErrInvalidInput = errors.New("invalid appointment input")
)
