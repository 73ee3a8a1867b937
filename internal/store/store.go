package store

import (
	"context"
	"time"

	"cinema-service/internal/models"
)

// Store abstracts persistence for the booking core. The Postgres
// implementation backs the running service; the in-memory one backs
// tests and local development.
type Store interface {
	// Movies
	CreateMovie(ctx context.Context, movie *models.Movie) error
	GetMovie(ctx context.Context, id string) (*models.Movie, error)
	GetMovieByTitle(ctx context.Context, title string) (*models.Movie, error)

	// Theaters, screens, users (read-only collaborator data)
	GetTheater(ctx context.Context, id string) (*models.Theater, error)
	ListSyncEnabledTheaters(ctx context.Context) ([]models.Theater, error)
	ListScreensByTheater(ctx context.Context, theaterID string) ([]models.Screen, error)
	GetUser(ctx context.Context, id string) (*models.User, error)

	// Showtimes
	CreateShowtime(ctx context.Context, st *models.Showtime) error
	GetShowtime(ctx context.Context, id string) (*models.Showtime, error)
	ListShowtimes(ctx context.Context) ([]models.Showtime, error)
	ShowtimeExists(ctx context.Context, theaterID, movieID string, startTime time.Time) (bool, error)
	// UpdateShowtimeSeats writes a new seat partition conditionally on
	// the version read by the caller. ErrVersionConflict means another
	// writer got there first and the caller must re-read and retry.
	UpdateShowtimeSeats(ctx context.Context, id string, version int64, available, booked []string, status string) error
	UpdateShowtimeTimes(ctx context.Context, id string, start, end time.Time) (*models.Showtime, error)
	UpdateShowtimePricing(ctx context.Context, id string, price *int64, premiumSeats []string) (*models.Showtime, error)

	// Bookings
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, booking *models.Booking) error
	ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error)
	ListConfirmedBookingsByShowtime(ctx context.Context, showtimeID string) ([]models.Booking, error)
	// ListConfirmedBookingsAfter returns confirmed bookings whose
	// showtime starts after t. Used to rebuild reminder jobs on startup.
	ListConfirmedBookingsAfter(ctx context.Context, t time.Time) ([]models.Booking, error)
}
