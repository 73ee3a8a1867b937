package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cinema-service/internal/models"
)

// CreateBooking inserts a new booking
func (s *PostgresStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `
		INSERT INTO bookings
			(id, booking_reference, user_id, showtime_id, movie_id, theater_id, seats,
			 number_of_tickets, total_amount, payment_method, payment_ref,
			 payment_status, booking_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	return s.db.GetContext(ctx, booking, query,
		booking.ID, booking.BookingReference, booking.UserID, booking.ShowtimeID,
		booking.MovieID, booking.TheaterID, booking.Seats, booking.NumberOfTickets,
		booking.TotalAmount, booking.PaymentMethod, booking.PaymentRef,
		booking.PaymentStatus, booking.BookingStatus)
}

// GetBooking retrieves a booking by ID
func (s *PostgresStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.GetContext(ctx, &booking, "SELECT * FROM bookings WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateBooking persists mutable booking fields (the cancel path)
func (s *PostgresStore) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE bookings
		SET booking_status = $1, payment_status = $2,
		    cancellation_reason = $3, cancellation_date = $4, updated_at = NOW()
		WHERE id = $5`,
		booking.BookingStatus, booking.PaymentStatus,
		booking.CancellationReason, booking.CancellationDate, booking.ID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("booking %s: %w", booking.ID, ErrNotFound)
	}
	return nil
}

// ListBookingsByUser retrieves a user's bookings, newest first
func (s *PostgresStore) ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.SelectContext(ctx, &bookings,
		"SELECT * FROM bookings WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return bookings, err
}

// ListConfirmedBookingsByShowtime retrieves confirmed bookings for a
// showtime (the reschedule fan-out set)
func (s *PostgresStore) ListConfirmedBookingsByShowtime(ctx context.Context, showtimeID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.SelectContext(ctx, &bookings,
		"SELECT * FROM bookings WHERE showtime_id = $1 AND booking_status = $2",
		showtimeID, models.BookingStatusConfirmed)
	return bookings, err
}

// ListConfirmedBookingsAfter retrieves confirmed bookings whose
// showtime starts after t
func (s *PostgresStore) ListConfirmedBookingsAfter(ctx context.Context, t time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.SelectContext(ctx, &bookings, `
		SELECT b.* FROM bookings b
		JOIN showtimes st ON st.id = b.showtime_id
		WHERE b.booking_status = $1 AND st.start_time > $2`,
		models.BookingStatusConfirmed, t)
	return bookings, err
}
