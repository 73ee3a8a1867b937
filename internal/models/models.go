package models

import (
	"time"

	"github.com/lib/pq"
)

// Movie represents a film in the local catalog
type Movie struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Genres      pq.StringArray `db:"genres" json:"genres"`
	DurationMin int            `db:"duration_min" json:"duration_min"`
	ReleaseDate time.Time      `db:"release_date" json:"release_date"`
	PosterURL   string         `db:"poster_url" json:"poster_url,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// Theater represents a cinema location
type Theater struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	SyncEnabled     bool      `db:"sync_enabled" json:"sync_enabled"`
	CatalogCinemaID string    `db:"catalog_cinema_id" json:"catalog_cinema_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Screen represents an auditorium within a theater
type Screen struct {
	ID           string `db:"id" json:"id"`
	TheaterID    string `db:"theater_id" json:"theater_id"`
	ScreenNumber int    `db:"screen_number" json:"screen_number"`
	TotalSeats   int    `db:"total_seats" json:"total_seats"`
}

// User is the minimal identity record the core needs for notifications
type User struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
}

// Showtime represents a scheduled screening with its seat inventory.
// AvailableSeats and BookedSeats partition the seat universe; Version
// is a monotonic counter used for optimistic concurrency on seat moves.
type Showtime struct {
	ID             string         `db:"id" json:"id"`
	MovieID        string         `db:"movie_id" json:"movie_id"`
	TheaterID      string         `db:"theater_id" json:"theater_id"`
	ScreenID       string         `db:"screen_id" json:"screen_id"`
	StartTime      time.Time      `db:"start_time" json:"start_time"`
	EndTime        time.Time      `db:"end_time" json:"end_time"`
	Price          int64          `db:"price" json:"price"`
	TotalSeats     int            `db:"total_seats" json:"total_seats"`
	SeatsPerRow    int            `db:"seats_per_row" json:"seats_per_row"`
	AvailableSeats pq.StringArray `db:"available_seats" json:"available_seats"`
	BookedSeats    pq.StringArray `db:"booked_seats" json:"booked_seats"`
	PremiumSeats   pq.StringArray `db:"premium_seats" json:"premium_seats"`
	Status         string         `db:"status" json:"status"`
	Version        int64          `db:"version" json:"-"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// Booking represents a user's ticket purchase for a showtime.
// Movie and theater IDs are denormalized at creation time so the record
// stays historically stable if the showtime is later edited.
type Booking struct {
	ID                 string         `db:"id" json:"id"`
	BookingReference   string         `db:"booking_reference" json:"booking_reference"`
	UserID             string         `db:"user_id" json:"user_id"`
	ShowtimeID         string         `db:"showtime_id" json:"showtime_id"`
	MovieID            string         `db:"movie_id" json:"movie_id"`
	TheaterID          string         `db:"theater_id" json:"theater_id"`
	Seats              pq.StringArray `db:"seats" json:"seats"`
	NumberOfTickets    int            `db:"number_of_tickets" json:"number_of_tickets"`
	TotalAmount        int64          `db:"total_amount" json:"total_amount"`
	PaymentMethod      string         `db:"payment_method" json:"payment_method"`
	PaymentRef         string         `db:"payment_ref" json:"payment_ref,omitempty"`
	PaymentStatus      string         `db:"payment_status" json:"payment_status"`
	BookingStatus      string         `db:"booking_status" json:"booking_status"`
	CancellationReason string         `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CancellationDate   *time.Time     `db:"cancellation_date" json:"cancellation_date,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// Showtime statuses
const (
	ShowtimeStatusAvailable = "available"
	ShowtimeStatusFull      = "full"
	ShowtimeStatusArchived  = "archived"
)

// Booking statuses
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Payment statuses
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)
