package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrForbidden is returned when the requester does not own the booking.
	ErrForbidden = errors.New("not authorized for this booking")

	// ErrAlreadyCancelled is returned when cancelling a cancelled booking.
	ErrAlreadyCancelled = errors.New("booking already cancelled")

	// ErrInvalidTimeRange is returned when end time is not after start time.
	ErrInvalidTimeRange = errors.New("end time must be after start time")

	// ErrNoSeatsSelected is returned when a booking request has no seats.
	ErrNoSeatsSelected = errors.New("at least one seat is required")

	// ErrDataIntegrity is returned when a showtime references a missing
	// movie or theater. Surfaced to callers like a not-found.
	ErrDataIntegrity = errors.New("showtime references missing movie or theater")

	// ErrSeatMapContention is returned when conditional seat updates
	// kept losing races past the bounded retry count.
	ErrSeatMapContention = errors.New("seat map is under contention, please retry")
)

// SeatsUnavailableError reports which requested seats are not free.
type SeatsUnavailableError struct {
	Seats []string
}

func (e *SeatsUnavailableError) Error() string {
	return fmt.Sprintf("seats %s are not available", strings.Join(e.Seats, ", "))
}
