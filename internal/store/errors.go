package store

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned when a conditional showtime update
	// lost a race against a concurrent writer.
	ErrVersionConflict = errors.New("showtime version conflict")

	// ErrDuplicateShowtime is returned when a showtime with the same
	// theater, movie and start time already exists.
	ErrDuplicateShowtime = errors.New("duplicate showtime")
)
