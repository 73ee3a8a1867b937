package store

import (
	"context"
	"testing"
	"time"

	"cinema-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateShowtimeSeatsVersionConflict(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	st := &models.Showtime{
		ID:             "st-1",
		MovieID:        "m-1",
		TheaterID:      "t-1",
		StartTime:      time.Now().Add(time.Hour),
		EndTime:        time.Now().Add(3 * time.Hour),
		AvailableSeats: []string{"A1", "A2"},
		TotalSeats:     2,
		Status:         models.ShowtimeStatusAvailable,
	}
	require.NoError(t, s.CreateShowtime(ctx, st))

	err := s.UpdateShowtimeSeats(ctx, "st-1", 0, []string{"A2"}, []string{"A1"}, models.ShowtimeStatusAvailable)
	require.NoError(t, err)

	// A second writer using the stale version loses the race.
	err = s.UpdateShowtimeSeats(ctx, "st-1", 0, []string{"A1"}, []string{"A2"}, models.ShowtimeStatusAvailable)
	assert.ErrorIs(t, err, ErrVersionConflict)

	updated, err := s.GetShowtime(ctx, "st-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.Version)
	assert.ElementsMatch(t, []string{"A1"}, []string(updated.BookedSeats))
}

func TestUpdateShowtimeSeatsNotFound(t *testing.T) {
	s := NewMemoryStore()
	err := s.UpdateShowtimeSeats(context.Background(), "missing", 0, nil, nil, models.ShowtimeStatusAvailable)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateShowtimeRejectsDuplicateTriple(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	start := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)

	first := &models.Showtime{ID: "st-1", MovieID: "m-1", TheaterID: "t-1", StartTime: start}
	require.NoError(t, s.CreateShowtime(ctx, first))

	dup := &models.Showtime{ID: "st-2", MovieID: "m-1", TheaterID: "t-1", StartTime: start}
	assert.ErrorIs(t, s.CreateShowtime(ctx, dup), ErrDuplicateShowtime)

	// Same triple on a different screen is still a duplicate; a
	// different start time is not.
	other := &models.Showtime{ID: "st-3", MovieID: "m-1", TheaterID: "t-1", StartTime: start.Add(time.Hour)}
	assert.NoError(t, s.CreateShowtime(ctx, other))
}

func TestListConfirmedBookingsAfter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.CreateShowtime(ctx, &models.Showtime{ID: "future", StartTime: now.Add(48 * time.Hour)}))
	require.NoError(t, s.CreateShowtime(ctx, &models.Showtime{ID: "past", MovieID: "m-2", StartTime: now.Add(-time.Hour)}))

	require.NoError(t, s.CreateBooking(ctx, &models.Booking{
		ID: "b-1", ShowtimeID: "future", BookingStatus: models.BookingStatusConfirmed,
	}))
	require.NoError(t, s.CreateBooking(ctx, &models.Booking{
		ID: "b-2", ShowtimeID: "past", BookingStatus: models.BookingStatusConfirmed,
	}))
	require.NoError(t, s.CreateBooking(ctx, &models.Booking{
		ID: "b-3", ShowtimeID: "future", BookingStatus: models.BookingStatusCancelled,
	}))

	bookings, err := s.ListConfirmedBookingsAfter(ctx, now)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "b-1", bookings[0].ID)
}

func TestStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	st := &models.Showtime{ID: "st-1", AvailableSeats: []string{"A1"}}
	require.NoError(t, s.CreateShowtime(ctx, st))

	got, err := s.GetShowtime(ctx, "st-1")
	require.NoError(t, err)
	got.AvailableSeats[0] = "mutated"

	again, err := s.GetShowtime(ctx, "st-1")
	require.NoError(t, err)
	assert.Equal(t, "A1", again.AvailableSeats[0])
}
