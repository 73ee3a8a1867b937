package service

import (
	"context"
	"testing"
	"time"

	"cinema-service/internal/models"
	"cinema-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBookingForReminder(t *testing.T, st *store.MemoryStore, bookingID string, startIn time.Duration, status string) {
	t.Helper()
	ctx := context.Background()

	if _, err := st.GetMovie(ctx, "movie-1"); err != nil {
		require.NoError(t, st.CreateMovie(ctx, &models.Movie{ID: "movie-1", Title: "Dune"}))
		st.AddTheater(&models.Theater{ID: "theater-1", Name: "Central"})
		st.AddUser(&models.User{ID: "user-1", Name: "Ada", Email: "ada@example.com"})
	}

	showtimeID := "showtime-" + bookingID
	require.NoError(t, st.CreateShowtime(ctx, &models.Showtime{
		ID:             showtimeID,
		MovieID:        "movie-1",
		TheaterID:      "theater-1",
		ScreenID:       "screen-1",
		StartTime:      time.Now().Add(startIn),
		EndTime:        time.Now().Add(startIn + 2*time.Hour),
		Price:          100,
		TotalSeats:     10,
		AvailableSeats: []string{"A1"},
		Status:         models.ShowtimeStatusAvailable,
	}))
	require.NoError(t, st.CreateBooking(ctx, &models.Booking{
		ID:            bookingID,
		UserID:        "user-1",
		ShowtimeID:    showtimeID,
		MovieID:       "movie-1",
		TheaterID:     "theater-1",
		Seats:         []string{"A2"},
		BookingStatus: status,
		PaymentStatus: models.PaymentStatusCompleted,
	}))
}

func TestScheduleArmsJobWithLeadTime(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	s := NewReminderScheduler(st, notifier, 24*time.Hour)
	defer s.Stop()

	seedBookingForReminder(t, st, "b1", 48*time.Hour, models.BookingStatusConfirmed)
	require.NoError(t, s.Schedule(context.Background(), "b1"))

	jobs := s.Introspect()
	require.Len(t, jobs, 1)
	assert.Equal(t, "b1", jobs[0].BookingID)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), jobs[0].FireAt, 5*time.Second)
}

func TestSchedulePastFireTimeIsSkipped(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	s := NewReminderScheduler(st, notifier, 24*time.Hour)
	defer s.Stop()

	// showtime starts in 1h, lead time 24h: the fire time is in the past
	seedBookingForReminder(t, st, "b1", time.Hour, models.BookingStatusConfirmed)
	require.NoError(t, s.Schedule(context.Background(), "b1"))

	assert.Empty(t, s.Introspect())
	assert.Equal(t, 0, notifier.reminderCount())
}

func TestScheduleSkipsNonConfirmedBooking(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	s := NewReminderScheduler(st, notifier, 24*time.Hour)
	defer s.Stop()

	seedBookingForReminder(t, st, "b1", 48*time.Hour, models.BookingStatusPending)
	require.NoError(t, s.Schedule(context.Background(), "b1"))
	assert.Empty(t, s.Introspect())
}

func TestScheduleTwiceReplacesTimer(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	s := NewReminderScheduler(st, notifier, 24*time.Hour)
	defer s.Stop()

	seedBookingForReminder(t, st, "b1", 48*time.Hour, models.BookingStatusConfirmed)
	ctx := context.Background()
	require.NoError(t, s.Schedule(ctx, "b1"))
	require.NoError(t, s.Schedule(ctx, "b1"))
	assert.Len(t, s.Introspect(), 1)
}

func TestCancelRemovesJob(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	s := NewReminderScheduler(st, notifier, 24*time.Hour)
	defer s.Stop()

	seedBookingForReminder(t, st, "b1", 48*time.Hour, models.BookingStatusConfirmed)
	require.NoError(t, s.Schedule(context.Background(), "b1"))

	assert.True(t, s.Cancel("b1"))
	assert.Empty(t, s.Introspect())
	assert.False(t, s.Cancel("b1"))
}

func TestFireSendsReminderForConfirmedBooking(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	s := NewReminderScheduler(st, notifier, 24*time.Hour)
	defer s.Stop()

	seedBookingForReminder(t, st, "b1", 48*time.Hour, models.BookingStatusConfirmed)
	s.fire("b1")

	assert.Equal(t, 1, notifier.reminderCount())
}

func TestFireSuppressedWhenBookingNoLongerConfirmed(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	s := NewReminderScheduler(st, notifier, 24*time.Hour)
	defer s.Stop()

	seedBookingForReminder(t, st, "b1", 48*time.Hour, models.BookingStatusConfirmed)
	ctx := context.Background()

	booking, err := st.GetBooking(ctx, "b1")
	require.NoError(t, err)
	booking.BookingStatus = models.BookingStatusCancelled
	require.NoError(t, st.UpdateBooking(ctx, booking))

	s.fire("b1")
	assert.Equal(t, 0, notifier.reminderCount())
}

func TestRestoreRebuildsJobsFromStore(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	s := NewReminderScheduler(st, notifier, 24*time.Hour)
	defer s.Stop()

	seedBookingForReminder(t, st, "b1", 48*time.Hour, models.BookingStatusConfirmed)
	seedBookingForReminder(t, st, "b2", 72*time.Hour, models.BookingStatusConfirmed)
	seedBookingForReminder(t, st, "b3", 48*time.Hour, models.BookingStatusCancelled)
	// fire time already past for this one, restore must not arm it
	seedBookingForReminder(t, st, "b4", 2*time.Hour, models.BookingStatusConfirmed)

	restored, err := s.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, restored)

	jobs := s.Introspect()
	require.Len(t, jobs, 2)
	assert.Equal(t, "b1", jobs[0].BookingID)
	assert.Equal(t, "b2", jobs[1].BookingID)
}
