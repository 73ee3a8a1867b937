package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cinema-service/config"
	"cinema-service/internal/broker"
	"cinema-service/internal/models"
	"cinema-service/internal/redisclient"
	"cinema-service/internal/seatmap"
	"cinema-service/internal/store"
	"cinema-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const seatCacheTTL = 30 * time.Second

// BookingService owns the booking lifecycle: seat validation, pricing,
// seat-partition mutation and the best-effort side effects around it.
type BookingService struct {
	store     store.Store
	cache     *redisclient.Client
	publisher *broker.EventPublisher
	notifier  Notifier
	scheduler *ReminderScheduler
	cfg       config.BookingConfig
	logger    *zap.Logger
}

// NewBookingService creates a new booking service. cache and publisher
// may be nil; the booking contract does not depend on them.
func NewBookingService(
	st store.Store,
	cache *redisclient.Client,
	publisher *broker.EventPublisher,
	notifier Notifier,
	scheduler *ReminderScheduler,
	cfg config.BookingConfig,
) *BookingService {
	return &BookingService{
		store:     st,
		cache:     cache,
		publisher: publisher,
		notifier:  notifier,
		scheduler: scheduler,
		cfg:       cfg,
		logger:    util.GetLogger(),
	}
}

// CreateBookingRequest represents a request to create a booking
type CreateBookingRequest struct {
	UserID        string   `json:"user_id" binding:"required"`
	ShowtimeID    string   `json:"showtime_id" binding:"required"`
	Seats         []string `json:"seats" binding:"required,min=1"`
	PaymentMethod string   `json:"payment_method" binding:"required"`
	PaymentRef    string   `json:"payment_ref,omitempty"`
}

// CreateBooking validates seat availability, prices the selection,
// moves the seats and persists the booking. Seat moves are conditional
// on the showtime version; a lost race is retried a bounded number of
// times against fresh state.
func (s *BookingService) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.CreateBooking")
	defer span.End()

	if len(req.Seats) == 0 {
		util.BookingsFailedTotal.WithLabelValues("invalid_request").Inc()
		return nil, ErrNoSeatsSelected
	}

	var (
		showtime    *models.Showtime
		totalAmount int64
		claimed     bool
	)

	for attempt := 0; attempt <= s.cfg.SeatUpdateRetries; attempt++ {
		var err error
		showtime, err = s.store.GetShowtime(ctx, req.ShowtimeID)
		if err != nil {
			util.BookingsFailedTotal.WithLabelValues("not_found").Inc()
			return nil, err
		}

		if err := s.checkReferences(ctx, showtime); err != nil {
			util.BookingsFailedTotal.WithLabelValues("data_integrity").Inc()
			return nil, err
		}

		// Legacy self-heal: an uninitialized seat universe is
		// materialized once and persisted before booking proceeds.
		if len(showtime.AvailableSeats) == 0 && len(showtime.BookedSeats) == 0 && showtime.TotalSeats > 0 {
			if err := s.healSeatUniverse(ctx, showtime); err != nil {
				if errors.Is(err, store.ErrVersionConflict) {
					continue
				}
				return nil, err
			}
			continue // re-read the healed showtime
		}

		m := seatmap.New(showtime, s.premiumRule())
		if unavailable := m.Book(req.Seats); len(unavailable) > 0 {
			util.BookingsFailedTotal.WithLabelValues("seats_unavailable").Inc()
			return nil, &SeatsUnavailableError{Seats: unavailable}
		}
		totalAmount = m.Total(req.Seats)

		err = s.store.UpdateShowtimeSeats(ctx, showtime.ID, showtime.Version, m.Available, m.Booked, m.Status())
		if errors.Is(err, store.ErrVersionConflict) {
			util.SeatUpdateConflictsTotal.Inc()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update showtime seats: %w", err)
		}
		claimed = true
		break
	}

	if !claimed {
		util.BookingsFailedTotal.WithLabelValues("contention").Inc()
		return nil, ErrSeatMapContention
	}

	booking := &models.Booking{
		ID:               uuid.New().String(),
		BookingReference: generateBookingReference(),
		UserID:           req.UserID,
		ShowtimeID:       showtime.ID,
		MovieID:          showtime.MovieID,
		TheaterID:        showtime.TheaterID,
		Seats:            append([]string(nil), req.Seats...),
		NumberOfTickets:  len(req.Seats),
		TotalAmount:      totalAmount,
		PaymentMethod:    req.PaymentMethod,
		PaymentRef:       req.PaymentRef,
		PaymentStatus:    models.PaymentStatusPending,
		BookingStatus:    models.BookingStatusPending,
	}
	if req.PaymentRef != "" {
		booking.PaymentStatus = models.PaymentStatusCompleted
		booking.BookingStatus = models.BookingStatusConfirmed
	}

	if err := s.store.CreateBooking(ctx, booking); err != nil {
		s.releaseSeats(ctx, showtime.ID, booking.Seats)
		util.BookingsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	util.BookingsCreatedTotal.Inc()
	s.logger.Info("Booking created",
		zap.String("booking_id", booking.ID),
		zap.String("reference", booking.BookingReference),
		zap.String("status", booking.BookingStatus),
		zap.Int64("total_amount", booking.TotalAmount))

	s.invalidateSeatCache(ctx, showtime.ID)

	if booking.BookingStatus == models.BookingStatusConfirmed {
		s.confirmationSideEffects(ctx, booking)
	}

	return booking, nil
}

// CancelBooking transitions the booking to cancelled, returns its seats
// to the showtime and tears down any pending reminder.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, requesterID, reason string) (*models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.CancelBooking")
	defer span.End()

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != requesterID {
		return nil, ErrForbidden
	}
	if booking.BookingStatus == models.BookingStatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	if reason == "" {
		reason = "User requested cancellation"
	}
	now := time.Now()
	booking.BookingStatus = models.BookingStatusCancelled
	booking.CancellationReason = reason
	booking.CancellationDate = &now

	if err := s.store.UpdateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	util.BookingsCancelledTotal.Inc()
	s.logger.Info("Booking cancelled",
		zap.String("booking_id", booking.ID),
		zap.String("reason", reason))

	if s.scheduler != nil {
		s.scheduler.Cancel(booking.ID)
	}

	s.releaseSeats(ctx, booking.ShowtimeID, booking.Seats)
	s.invalidateSeatCache(ctx, booking.ShowtimeID)

	if user, err := s.store.GetUser(ctx, booking.UserID); err == nil {
		if movie, err := s.store.GetMovie(ctx, booking.MovieID); err == nil {
			if err := s.notifier.NotifyBookingCancelled(ctx, user, booking, movie); err != nil {
				util.NotificationFailuresTotal.WithLabelValues("cancellation").Inc()
				s.logger.Error("Cancellation notification failed", zap.Error(err))
			}
		}
	}

	s.publishCancelled(ctx, booking, reason)
	return booking, nil
}

// GetBooking retrieves a booking, enforcing ownership
func (s *BookingService) GetBooking(ctx context.Context, bookingID, requesterID string) (*models.Booking, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != requesterID {
		return nil, ErrForbidden
	}
	return booking, nil
}

// ListUserBookings retrieves a user's bookings, newest first
func (s *BookingService) ListUserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	return s.store.ListBookingsByUser(ctx, userID)
}

// RescheduleShowtime moves a showtime, re-anchors the confirmed
// bookings' reminders and fans out change notifications. Per-recipient
// failures are counted, not fatal. Returns the updated showtime and
// the number notified.
func (s *BookingService) RescheduleShowtime(ctx context.Context, showtimeID string, newStart, newEnd *time.Time) (*models.Showtime, int, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.RescheduleShowtime")
	defer span.End()

	old, err := s.store.GetShowtime(ctx, showtimeID)
	if err != nil {
		return nil, 0, err
	}

	start, end := old.StartTime, old.EndTime
	if newStart != nil {
		start = *newStart
	}
	if newEnd != nil {
		end = *newEnd
	}
	if !end.After(start) {
		return nil, 0, ErrInvalidTimeRange
	}

	updated, err := s.store.UpdateShowtimeTimes(ctx, showtimeID, start, end)
	if err != nil {
		return nil, 0, err
	}

	bookings, err := s.store.ListConfirmedBookingsByShowtime(ctx, showtimeID)
	if err != nil {
		return nil, 0, err
	}

	notified := 0
	for i := range bookings {
		booking := &bookings[i]

		// re-anchor the reminder to the new start time; Schedule skips
		// fire times that are already past
		if s.scheduler != nil {
			s.scheduler.Cancel(booking.ID)
			if err := s.scheduler.Schedule(ctx, booking.ID); err != nil {
				s.logger.Error("Failed to re-anchor reminder after reschedule",
					zap.String("booking_id", booking.ID), zap.Error(err))
			}
		}

		user, err := s.store.GetUser(ctx, booking.UserID)
		if err != nil {
			s.logger.Error("Cannot resolve user for showtime-change notification",
				zap.String("booking_id", booking.ID), zap.Error(err))
			continue
		}
		movie, err := s.store.GetMovie(ctx, booking.MovieID)
		if err != nil {
			continue
		}
		theater, err := s.store.GetTheater(ctx, booking.TheaterID)
		if err != nil {
			continue
		}
		if err := s.notifier.NotifyShowtimeChanged(ctx, user, booking, movie, old, updated, theater); err != nil {
			util.NotificationFailuresTotal.WithLabelValues("showtime_change").Inc()
			s.logger.Error("Showtime change notification failed",
				zap.String("booking_id", booking.ID), zap.Error(err))
			continue
		}
		notified++
	}

	if s.publisher != nil {
		event := &models.ShowtimeRescheduledEvent{
			BaseEvent:    newBaseEvent(models.EventTypeShowtimeRescheduled),
			ShowtimeID:   showtimeID,
			OldStartTime: old.StartTime,
			NewStartTime: updated.StartTime,
		}
		if err := s.publisher.PublishShowtimeRescheduled(ctx, event); err != nil {
			s.logger.Error("Failed to publish ShowtimeRescheduled event", zap.Error(err))
		}
	}

	s.logger.Info("Showtime rescheduled",
		zap.String("showtime_id", showtimeID),
		zap.Int("notified", notified))
	return updated, notified, nil
}

// UpdateShowtimePricing updates the base price and/or premium seat set
func (s *BookingService) UpdateShowtimePricing(ctx context.Context, showtimeID string, price *int64, premiumSeats []string) (*models.Showtime, error) {
	updated, err := s.store.UpdateShowtimePricing(ctx, showtimeID, price, premiumSeats)
	if err != nil {
		return nil, err
	}
	s.invalidateSeatCache(ctx, showtimeID)
	return updated, nil
}

// SeatAvailability is the seat-picker view of a showtime
type SeatAvailability struct {
	ShowtimeID     string   `json:"showtime_id"`
	AvailableSeats []string `json:"available_seats"`
	BookedSeats    []string `json:"booked_seats"`
	PremiumSeats   []string `json:"premium_seats"`
	Status         string   `json:"status"`
	Price          int64    `json:"price"`
}

// ShowtimeSeats returns the seat availability snapshot, served from the
// cache when fresh.
func (s *BookingService) ShowtimeSeats(ctx context.Context, showtimeID string) (*SeatAvailability, error) {
	if s.cache != nil {
		if payload, err := s.cache.GetCachedShowtimeSeats(ctx, showtimeID); err == nil && payload != nil {
			var snap SeatAvailability
			if err := json.Unmarshal(payload, &snap); err == nil {
				return &snap, nil
			}
		}
	}

	showtime, err := s.store.GetShowtime(ctx, showtimeID)
	if err != nil {
		return nil, err
	}

	snap := &SeatAvailability{
		ShowtimeID:     showtime.ID,
		AvailableSeats: showtime.AvailableSeats,
		BookedSeats:    showtime.BookedSeats,
		PremiumSeats:   showtime.PremiumSeats,
		Status:         showtime.Status,
		Price:          showtime.Price,
	}

	if s.cache != nil {
		if payload, err := json.Marshal(snap); err == nil {
			if err := s.cache.CacheShowtimeSeats(ctx, showtimeID, payload, seatCacheTTL); err != nil {
				s.logger.Debug("Failed to cache seat availability", zap.Error(err))
			}
		}
	}
	return snap, nil
}

func (s *BookingService) checkReferences(ctx context.Context, showtime *models.Showtime) error {
	if _, err := s.store.GetMovie(ctx, showtime.MovieID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("showtime %s movie: %w", showtime.ID, ErrDataIntegrity)
		}
		return err
	}
	if _, err := s.store.GetTheater(ctx, showtime.TheaterID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("showtime %s theater: %w", showtime.ID, ErrDataIntegrity)
		}
		return err
	}
	return nil
}

func (s *BookingService) healSeatUniverse(ctx context.Context, showtime *models.Showtime) error {
	cols := showtime.SeatsPerRow
	if cols <= 0 {
		cols = s.cfg.SeatGridCols
	}
	rows := (showtime.TotalSeats + cols - 1) / cols
	seats := seatmap.Grid(rows, cols)
	if len(seats) > showtime.TotalSeats {
		seats = seats[:showtime.TotalSeats]
	}

	s.logger.Warn("Materializing missing seat universe for showtime",
		zap.String("showtime_id", showtime.ID),
		zap.Int("total_seats", showtime.TotalSeats))

	return s.store.UpdateShowtimeSeats(ctx, showtime.ID, showtime.Version,
		seats, nil, models.ShowtimeStatusAvailable)
}

// releaseSeats moves seats back to available, retrying version
// conflicts against fresh state.
func (s *BookingService) releaseSeats(ctx context.Context, showtimeID string, seats []string) {
	for attempt := 0; attempt <= s.cfg.SeatUpdateRetries; attempt++ {
		showtime, err := s.store.GetShowtime(ctx, showtimeID)
		if err != nil {
			s.logger.Error("Cannot release seats, showtime unavailable",
				zap.String("showtime_id", showtimeID), zap.Error(err))
			return
		}

		m := seatmap.New(showtime, s.premiumRule())
		m.Release(seats)

		err = s.store.UpdateShowtimeSeats(ctx, showtime.ID, showtime.Version, m.Available, m.Booked, m.Status())
		if errors.Is(err, store.ErrVersionConflict) {
			util.SeatUpdateConflictsTotal.Inc()
			continue
		}
		if err != nil {
			s.logger.Error("Failed to release seats",
				zap.String("showtime_id", showtimeID), zap.Error(err))
		}
		return
	}
	s.logger.Error("Gave up releasing seats after repeated conflicts",
		zap.String("showtime_id", showtimeID))
}

func (s *BookingService) confirmationSideEffects(ctx context.Context, booking *models.Booking) {
	user, uerr := s.store.GetUser(ctx, booking.UserID)
	movie, merr := s.store.GetMovie(ctx, booking.MovieID)
	showtime, serr := s.store.GetShowtime(ctx, booking.ShowtimeID)
	theater, terr := s.store.GetTheater(ctx, booking.TheaterID)
	if uerr == nil && merr == nil && serr == nil && terr == nil {
		if err := s.notifier.NotifyBookingConfirmed(ctx, user, booking, movie, showtime, theater); err != nil {
			util.NotificationFailuresTotal.WithLabelValues("confirmation").Inc()
			s.logger.Error("Confirmation notification failed (non-blocking)",
				zap.String("booking_id", booking.ID), zap.Error(err))
		}
	} else {
		s.logger.Error("Cannot resolve booking references for confirmation notification",
			zap.String("booking_id", booking.ID))
	}

	if s.scheduler != nil {
		if err := s.scheduler.Schedule(ctx, booking.ID); err != nil {
			s.logger.Error("Reminder scheduling failed (non-blocking)",
				zap.String("booking_id", booking.ID), zap.Error(err))
		}
	}

	if s.publisher != nil {
		event := &models.BookingConfirmedEvent{
			BaseEvent:   newBaseEvent(models.EventTypeBookingConfirmed),
			BookingID:   booking.ID,
			UserID:      booking.UserID,
			ShowtimeID:  booking.ShowtimeID,
			Seats:       booking.Seats,
			TotalAmount: booking.TotalAmount,
		}
		if err := s.publisher.PublishBookingConfirmed(ctx, event); err != nil {
			s.logger.Error("Failed to publish BookingConfirmed event", zap.Error(err))
		}
	}
}

func (s *BookingService) publishCancelled(ctx context.Context, booking *models.Booking, reason string) {
	if s.publisher == nil {
		return
	}
	event := &models.BookingCancelledEvent{
		BaseEvent: newBaseEvent(models.EventTypeBookingCancelled),
		BookingID: booking.ID,
		UserID:    booking.UserID,
		Reason:    reason,
	}
	if err := s.publisher.PublishBookingCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish BookingCancelled event", zap.Error(err))
	}
}

func (s *BookingService) invalidateSeatCache(ctx context.Context, showtimeID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateShowtimeSeats(ctx, showtimeID); err != nil {
		s.logger.Debug("Failed to invalidate seat cache",
			zap.String("showtime_id", showtimeID), zap.Error(err))
	}
}

func (s *BookingService) premiumRule() seatmap.PremiumRule {
	return seatmap.PremiumRule{
		Mode:       s.cfg.PremiumRuleMode,
		Multiplier: s.cfg.PremiumMultiplier,
		Surcharge:  s.cfg.PremiumSurcharge,
	}
}

func generateBookingReference() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:9])
	return fmt.Sprintf("BK%d%s", time.Now().UnixMilli(), suffix)
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
