package service

import (
	"context"

	"cinema-service/internal/models"
	"cinema-service/internal/util"

	"go.uber.org/zap"
)

// Notifier is the outbound notification collaborator. Delivery is an
// external concern; the core resolves the value objects and treats
// every failure as best-effort.
type Notifier interface {
	NotifyBookingConfirmed(ctx context.Context, user *models.User, booking *models.Booking, movie *models.Movie, showtime *models.Showtime, theater *models.Theater) error
	NotifyBookingCancelled(ctx context.Context, user *models.User, booking *models.Booking, movie *models.Movie) error
	NotifyReminder(ctx context.Context, user *models.User, booking *models.Booking, movie *models.Movie, showtime *models.Showtime, theater *models.Theater) error
	NotifyShowtimeChanged(ctx context.Context, user *models.User, booking *models.Booking, movie *models.Movie, oldShowtime, newShowtime *models.Showtime, theater *models.Theater) error
}

// LogNotifier is the default Notifier used when no delivery channel is
// configured. It only records the notification in the service log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: util.GetLogger()}
}

func (n *LogNotifier) NotifyBookingConfirmed(ctx context.Context, user *models.User, booking *models.Booking, movie *models.Movie, showtime *models.Showtime, theater *models.Theater) error {
	n.logger.Info("Booking confirmation notification",
		zap.String("booking_ref", booking.BookingReference),
		zap.String("email", user.Email),
		zap.String("movie", movie.Title))
	return nil
}

func (n *LogNotifier) NotifyBookingCancelled(ctx context.Context, user *models.User, booking *models.Booking, movie *models.Movie) error {
	n.logger.Info("Booking cancellation notification",
		zap.String("booking_ref", booking.BookingReference),
		zap.String("email", user.Email))
	return nil
}

func (n *LogNotifier) NotifyReminder(ctx context.Context, user *models.User, booking *models.Booking, movie *models.Movie, showtime *models.Showtime, theater *models.Theater) error {
	n.logger.Info("Booking reminder notification",
		zap.String("booking_ref", booking.BookingReference),
		zap.String("email", user.Email),
		zap.Time("showtime_start", showtime.StartTime))
	return nil
}

func (n *LogNotifier) NotifyShowtimeChanged(ctx context.Context, user *models.User, booking *models.Booking, movie *models.Movie, oldShowtime, newShowtime *models.Showtime, theater *models.Theater) error {
	n.logger.Info("Showtime change notification",
		zap.String("booking_ref", booking.BookingReference),
		zap.String("email", user.Email),
		zap.Time("old_start", oldShowtime.StartTime),
		zap.Time("new_start", newShowtime.StartTime))
	return nil
}
