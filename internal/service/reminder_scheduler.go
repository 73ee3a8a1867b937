package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"cinema-service/internal/models"
	"cinema-service/internal/store"
	"cinema-service/internal/util"

	"go.uber.org/zap"
)

type reminderJob struct {
	fireAt time.Time
	timer  *time.Timer
}

// ReminderScheduler keeps one in-process timer per confirmed booking
// and sends the pre-show reminder when it fires. Jobs do not survive a
// restart on their own; Restore rebuilds them from the store.
type ReminderScheduler struct {
	store    store.Store
	notifier Notifier
	leadTime time.Duration
	logger   *zap.Logger

	mu   sync.Mutex
	jobs map[string]*reminderJob
}

// ReminderJobInfo describes one pending reminder
type ReminderJobInfo struct {
	BookingID string    `json:"booking_id"`
	FireAt    time.Time `json:"fire_at"`
}

// NewReminderScheduler creates a reminder scheduler
func NewReminderScheduler(st store.Store, notifier Notifier, leadTime time.Duration) *ReminderScheduler {
	return &ReminderScheduler{
		store:    st,
		notifier: notifier,
		leadTime: leadTime,
		logger:   util.GetLogger(),
		jobs:     make(map[string]*reminderJob),
	}
}

// Schedule arms a reminder timer for the booking. The booking is
// re-read so stale callers cannot arm reminders for bookings that are
// no longer confirmed. Scheduling twice for the same booking replaces
// the earlier timer, so replays are harmless.
func (s *ReminderScheduler) Schedule(ctx context.Context, bookingID string) error {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.BookingStatus != models.BookingStatusConfirmed {
		util.RemindersSkippedTotal.WithLabelValues("not_confirmed").Inc()
		s.logger.Debug("Skipping reminder for non-confirmed booking",
			zap.String("booking_id", bookingID),
			zap.String("status", booking.BookingStatus))
		return nil
	}

	showtime, err := s.store.GetShowtime(ctx, booking.ShowtimeID)
	if err != nil {
		return err
	}

	fireAt := showtime.StartTime.Add(-s.leadTime)
	delay := time.Until(fireAt)
	if delay <= 0 {
		util.RemindersSkippedTotal.WithLabelValues("in_past").Inc()
		s.logger.Debug("Reminder time already passed, not scheduling",
			zap.String("booking_id", bookingID),
			zap.Time("fire_at", fireAt))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.jobs[bookingID]; ok {
		existing.timer.Stop()
	}
	s.jobs[bookingID] = &reminderJob{
		fireAt: fireAt,
		timer: time.AfterFunc(delay, func() {
			s.fire(bookingID)
		}),
	}

	util.RemindersScheduledTotal.Inc()
	s.logger.Info("Reminder scheduled",
		zap.String("booking_id", bookingID),
		zap.Time("fire_at", fireAt))
	return nil
}

// Cancel stops and removes the booking's pending reminder. Returns
// whether a job was pending.
func (s *ReminderScheduler) Cancel(bookingID string) bool {
	s.mu.Lock()
	job, ok := s.jobs[bookingID]
	if ok {
		job.timer.Stop()
		delete(s.jobs, bookingID)
	}
	s.mu.Unlock()

	if ok {
		util.RemindersCancelledTotal.Inc()
		s.logger.Info("Reminder cancelled", zap.String("booking_id", bookingID))
	}
	return ok
}

// fire re-reads the booking at delivery time; only still-confirmed
// bookings get a reminder.
func (s *ReminderScheduler) fire(bookingID string) {
	s.mu.Lock()
	delete(s.jobs, bookingID)
	s.mu.Unlock()

	ctx := context.Background()
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		util.RemindersSkippedTotal.WithLabelValues("booking_missing").Inc()
		s.logger.Error("Reminder fired for unknown booking",
			zap.String("booking_id", bookingID), zap.Error(err))
		return
	}
	if booking.BookingStatus != models.BookingStatusConfirmed {
		util.RemindersSkippedTotal.WithLabelValues("not_confirmed").Inc()
		s.logger.Info("Reminder suppressed, booking no longer confirmed",
			zap.String("booking_id", bookingID),
			zap.String("status", booking.BookingStatus))
		return
	}

	user, err := s.store.GetUser(ctx, booking.UserID)
	if err != nil {
		s.logger.Error("Cannot resolve user for reminder",
			zap.String("booking_id", bookingID), zap.Error(err))
		return
	}
	movie, err := s.store.GetMovie(ctx, booking.MovieID)
	if err != nil {
		s.logger.Error("Cannot resolve movie for reminder",
			zap.String("booking_id", bookingID), zap.Error(err))
		return
	}
	showtime, err := s.store.GetShowtime(ctx, booking.ShowtimeID)
	if err != nil {
		s.logger.Error("Cannot resolve showtime for reminder",
			zap.String("booking_id", bookingID), zap.Error(err))
		return
	}
	theater, err := s.store.GetTheater(ctx, booking.TheaterID)
	if err != nil {
		s.logger.Error("Cannot resolve theater for reminder",
			zap.String("booking_id", bookingID), zap.Error(err))
		return
	}

	if err := s.notifier.NotifyReminder(ctx, user, booking, movie, showtime, theater); err != nil {
		util.NotificationFailuresTotal.WithLabelValues("reminder").Inc()
		s.logger.Error("Reminder notification failed",
			zap.String("booking_id", bookingID), zap.Error(err))
		return
	}

	util.RemindersFiredTotal.Inc()
	s.logger.Info("Reminder sent", zap.String("booking_id", bookingID))
}

// Restore rebuilds reminder jobs for confirmed bookings whose showtime
// has not started yet. Called once on startup.
func (s *ReminderScheduler) Restore(ctx context.Context) (int, error) {
	bookings, err := s.store.ListConfirmedBookingsAfter(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	restored := 0
	for i := range bookings {
		if err := s.Schedule(ctx, bookings[i].ID); err != nil {
			s.logger.Error("Failed to restore reminder",
				zap.String("booking_id", bookings[i].ID), zap.Error(err))
			continue
		}
		restored++
	}

	s.logger.Info("Reminder jobs restored", zap.Int("count", restored))
	return restored, nil
}

// Introspect returns the pending jobs ordered by fire time
func (s *ReminderScheduler) Introspect() []ReminderJobInfo {
	s.mu.Lock()
	infos := make([]ReminderJobInfo, 0, len(s.jobs))
	for id, job := range s.jobs {
		infos = append(infos, ReminderJobInfo{BookingID: id, FireAt: job.fireAt})
	}
	s.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].FireAt.Equal(infos[j].FireAt) {
			return infos[i].BookingID < infos[j].BookingID
		}
		return infos[i].FireAt.Before(infos[j].FireAt)
	})
	return infos
}

// Stop cancels all pending timers
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		job.timer.Stop()
		delete(s.jobs, id)
	}
	s.logger.Info("Reminder scheduler stopped")
}
