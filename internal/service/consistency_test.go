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

func TestVerifyCleanStore(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.CreateMovie(ctx, &models.Movie{ID: "movie-1", Title: "Dune"}))
	st.AddTheater(&models.Theater{ID: "theater-1", Name: "Central"})
	require.NoError(t, st.CreateShowtime(ctx, &models.Showtime{
		ID: "st-1", MovieID: "movie-1", TheaterID: "theater-1", ScreenID: "screen-1",
		StartTime:      time.Now().Add(time.Hour),
		AvailableSeats: []string{"A1", "A2"},
		BookedSeats:    []string{"A3"},
	}))

	report, err := NewConsistencyChecker(st).Verify(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Empty(t, report.Issues)
	assert.Equal(t, 1, report.Checked)
}

func TestVerifyFlagsDanglingReferences(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.CreateShowtime(ctx, &models.Showtime{
		ID: "st-1", MovieID: "movie-gone", TheaterID: "theater-gone", ScreenID: "screen-1",
		StartTime: time.Now().Add(time.Hour),
	}))

	report, err := NewConsistencyChecker(st).Verify(ctx)
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	require.Len(t, report.Issues, 2)
	assert.Contains(t, report.Issues[0], "missing movie")
	assert.Contains(t, report.Issues[1], "missing theater")
}

func TestVerifyFlagsDuplicateScheduling(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.CreateMovie(ctx, &models.Movie{ID: "movie-1", Title: "Dune"}))
	st.AddTheater(&models.Theater{ID: "theater-1", Name: "Central"})

	start := time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC)
	require.NoError(t, st.CreateShowtime(ctx, &models.Showtime{
		ID: "st-1", MovieID: "movie-1", TheaterID: "theater-1", ScreenID: "screen-1",
		StartTime: start,
	}))
	// a different movie on the same screen at the same instant slips
	// past the storage uniqueness triple but cannot physically happen
	require.NoError(t, st.CreateMovie(ctx, &models.Movie{ID: "movie-2", Title: "Heat"}))
	require.NoError(t, st.CreateShowtime(ctx, &models.Showtime{
		ID: "st-2", MovieID: "movie-2", TheaterID: "theater-1", ScreenID: "screen-1",
		StartTime: start,
	}))

	report, err := NewConsistencyChecker(st).Verify(ctx)
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	require.Len(t, report.Issues, 1)
	assert.Contains(t, report.Issues[0], "same screen and start time")
}

func TestVerifyFlagsSeatPartitionOverlap(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.CreateMovie(ctx, &models.Movie{ID: "movie-1", Title: "Dune"}))
	st.AddTheater(&models.Theater{ID: "theater-1", Name: "Central"})
	require.NoError(t, st.CreateShowtime(ctx, &models.Showtime{
		ID: "st-1", MovieID: "movie-1", TheaterID: "theater-1", ScreenID: "screen-1",
		StartTime:      time.Now().Add(time.Hour),
		AvailableSeats: []string{"A1", "A2"},
		BookedSeats:    []string{"A2"},
	}))

	report, err := NewConsistencyChecker(st).Verify(ctx)
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	require.Len(t, report.Issues, 1)
	assert.Contains(t, report.Issues[0], "both the available and booked sets")
}
