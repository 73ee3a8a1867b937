package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cinema-service/config"
	"cinema-service/internal/catalog"
	"cinema-service/internal/models"
	"cinema-service/internal/store"
	"cinema-service/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog serves canned films and can fail a configured number of
// times before succeeding.
type fakeCatalog struct {
	nowShowing    []catalog.Film
	cinemaFilms   map[string][]catalog.Film
	failuresLeft  int
	nowCalls      int
	showtimeCalls int
}

func (f *fakeCatalog) FetchNowShowing(ctx context.Context, limit int) ([]catalog.Film, error) {
	f.nowCalls++
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return nil, errors.New("catalog unavailable")
	}
	if limit < len(f.nowShowing) {
		return f.nowShowing[:limit], nil
	}
	return f.nowShowing, nil
}

func (f *fakeCatalog) FetchShowtimesForCinema(ctx context.Context, cinemaID string, date time.Time) ([]catalog.Film, error) {
	f.showtimeCalls++
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return nil, errors.New("catalog unavailable")
	}
	return f.cinemaFilms[cinemaID], nil
}

func testSyncConfig() config.SyncConfig {
	return config.SyncConfig{
		MaxAttempts:          3,
		InitialDelay:         time.Millisecond,
		HorizonDays:          30,
		MovieLimit:           50,
		DefaultShowtimePrice: 250,
	}
}

func newSyncFixture(client *fakeCatalog) (*store.MemoryStore, *SyncService) {
	st := store.NewMemoryStore()
	svc := NewSyncService(st, client, util.NewSyncMetrics(), testSyncConfig())
	svc.pickScreen = func(n int) int { return 0 }
	return st, svc
}

func TestSyncMoviesCreatesMissingTitlesOnly(t *testing.T) {
	client := &fakeCatalog{
		nowShowing: []catalog.Film{
			{Name: "Dune", Synopsis: "Sand.", Genres: []string{"Sci-Fi"}, DurationMin: 155},
			{Name: "Heat", Synopsis: "Crime.", DurationMin: 170},
		},
	}
	st, svc := newSyncFixture(client)
	ctx := context.Background()

	result, err := svc.SyncMovies(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 0, result.Updated)

	result, err = svc.SyncMovies(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Synced)
	assert.Equal(t, 2, result.Updated)

	movies, err := st.GetMovieByTitle(ctx, "Dune")
	require.NoError(t, err)
	assert.Equal(t, "Sand.", movies.Description)
}

func TestSyncMoviesKeepsLocalEditsToExistingTitles(t *testing.T) {
	client := &fakeCatalog{
		nowShowing: []catalog.Film{
			{Name: "Dune", Synopsis: "Catalog synopsis.", DurationMin: 155},
		},
	}
	st, svc := newSyncFixture(client)
	ctx := context.Background()

	require.NoError(t, st.CreateMovie(ctx, &models.Movie{
		ID:          "movie-1",
		Title:       "Dune",
		Description: "Curated local description.",
		DurationMin: 166,
	}))

	result, err := svc.SyncMovies(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Synced)
	assert.Equal(t, 1, result.Updated)

	movie, err := st.GetMovieByTitle(ctx, "Dune")
	require.NoError(t, err)
	assert.Equal(t, "movie-1", movie.ID)
	assert.Equal(t, "Curated local description.", movie.Description)
	assert.Equal(t, 166, movie.DurationMin)
}

func TestSyncMoviesRetriesFlakyFetch(t *testing.T) {
	client := &fakeCatalog{
		nowShowing:   []catalog.Film{{Name: "Dune", DurationMin: 155}},
		failuresLeft: 2,
	}
	_, svc := newSyncFixture(client)

	result, err := svc.SyncMovies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)
	assert.Equal(t, 3, client.nowCalls)
}

func TestSyncMoviesGivesUpAfterMaxAttempts(t *testing.T) {
	client := &fakeCatalog{failuresLeft: 10}
	_, svc := newSyncFixture(client)

	_, err := svc.SyncMovies(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, client.nowCalls)

	snap := svc.Metrics()
	assert.Equal(t, int64(1), snap.TotalSyncs)
	assert.Equal(t, int64(1), snap.FailedSyncs)
	assert.NotEmpty(t, snap.LastError)
}

func seedSyncTheater(t *testing.T, st *store.MemoryStore, totalSeats int) {
	t.Helper()
	st.AddTheater(&models.Theater{
		ID: "theater-1", Name: "Central",
		SyncEnabled: true, CatalogCinemaID: "cin-42",
	})
	st.AddScreen(&models.Screen{
		ID: "screen-1", TheaterID: "theater-1",
		ScreenNumber: 1, TotalSeats: totalSeats,
	})
}

func TestSyncShowtimesCreatesFromSlots(t *testing.T) {
	client := &fakeCatalog{
		cinemaFilms: map[string][]catalog.Film{
			"cin-42": {{
				Name:        "Dune",
				DurationMin: 150,
				Showings:    []catalog.ShowingTime{{StartTime: "14:30"}, {StartTime: "19:00"}},
			}},
		},
	}
	st, svc := newSyncFixture(client)
	ctx := context.Background()

	seedSyncTheater(t, st, 4)
	require.NoError(t, st.CreateMovie(ctx, &models.Movie{ID: "movie-1", Title: "Dune", DurationMin: 150}))

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	result, err := svc.SyncShowtimes(ctx, day, day)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Synced)
	assert.Empty(t, result.Errors)

	showtimes, err := st.ListShowtimes(ctx)
	require.NoError(t, err)
	require.Len(t, showtimes, 2)

	first := showtimes[0]
	assert.Equal(t, "movie-1", first.MovieID)
	assert.Equal(t, "screen-1", first.ScreenID)
	assert.Equal(t, int64(250), first.Price)
	assert.Equal(t, 4, first.TotalSeats)
	assert.Equal(t, []string{"seat_1", "seat_2", "seat_3", "seat_4"}, []string(first.AvailableSeats))
	assert.Empty(t, first.BookedSeats)
	assert.Equal(t, 14, first.StartTime.Hour())
	assert.Equal(t, 30, first.StartTime.Minute())
	assert.True(t, first.EndTime.Equal(first.StartTime.Add(150*time.Minute)))
}

func TestSyncShowtimesIsIdempotent(t *testing.T) {
	client := &fakeCatalog{
		cinemaFilms: map[string][]catalog.Film{
			"cin-42": {{
				Name:        "Dune",
				DurationMin: 150,
				Showings:    []catalog.ShowingTime{{StartTime: "19:00"}},
			}},
		},
	}
	st, svc := newSyncFixture(client)
	ctx := context.Background()

	seedSyncTheater(t, st, 4)
	require.NoError(t, st.CreateMovie(ctx, &models.Movie{ID: "movie-1", Title: "Dune"}))

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	result, err := svc.SyncShowtimes(ctx, day, day)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)

	result, err = svc.SyncShowtimes(ctx, day, day)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Synced)

	showtimes, err := st.ListShowtimes(ctx)
	require.NoError(t, err)
	assert.Len(t, showtimes, 1)
}

func TestSyncShowtimesSkipsUnknownFilms(t *testing.T) {
	client := &fakeCatalog{
		cinemaFilms: map[string][]catalog.Film{
			"cin-42": {{
				Name:     "Obscure Short",
				Showings: []catalog.ShowingTime{{StartTime: "12:00"}},
			}},
		},
	}
	st, svc := newSyncFixture(client)
	seedSyncTheater(t, st, 4)

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	result, err := svc.SyncShowtimes(context.Background(), day, day)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Synced)
	assert.Empty(t, result.Errors)
}

func TestSyncShowtimesReportsTheaterWithoutScreens(t *testing.T) {
	client := &fakeCatalog{cinemaFilms: map[string][]catalog.Film{}}
	st, svc := newSyncFixture(client)
	st.AddTheater(&models.Theater{
		ID: "theater-empty", Name: "Empty",
		SyncEnabled: true, CatalogCinemaID: "cin-9",
	})

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	result, err := svc.SyncShowtimes(context.Background(), day, day)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "no screens")
}

func TestSyncShowtimesRecordsMetrics(t *testing.T) {
	client := &fakeCatalog{
		cinemaFilms: map[string][]catalog.Film{
			"cin-42": {{Name: "Dune", Showings: []catalog.ShowingTime{{StartTime: "19:00"}}}},
		},
	}
	st, svc := newSyncFixture(client)
	ctx := context.Background()
	seedSyncTheater(t, st, 2)
	require.NoError(t, st.CreateMovie(ctx, &models.Movie{ID: "movie-1", Title: "Dune"}))

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.SyncShowtimes(ctx, day, day)
	require.NoError(t, err)

	snap := svc.Metrics()
	assert.Equal(t, int64(1), snap.TotalSyncs)
	assert.Equal(t, int64(1), snap.SuccessfulSyncs)
	assert.Equal(t, float64(1), snap.SuccessRate)
	require.NotNil(t, snap.LastSyncTimestamp)
}
