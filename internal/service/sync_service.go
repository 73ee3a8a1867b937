package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"cinema-service/config"
	"cinema-service/internal/catalog"
	"cinema-service/internal/models"
	"cinema-service/internal/seatmap"
	"cinema-service/internal/store"
	"cinema-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncService pulls movies and showtimes from the external catalog
// into the local store. Runs are idempotent: movies upsert by title and
// showtimes dedupe on (theater, movie, start time).
type SyncService struct {
	store   store.Store
	catalog catalog.Client
	metrics *util.SyncMetrics
	cfg     config.SyncConfig
	logger  *zap.Logger

	// pickScreen selects among a theater's screens; overridable in tests
	pickScreen func(n int) int
}

// NewSyncService creates a sync service
func NewSyncService(st store.Store, client catalog.Client, metrics *util.SyncMetrics, cfg config.SyncConfig) *SyncService {
	return &SyncService{
		store:      st,
		catalog:    client,
		metrics:    metrics,
		cfg:        cfg,
		logger:     util.GetLogger(),
		pickScreen: rand.Intn,
	}
}

// MovieSyncResult summarizes one movie sync run
type MovieSyncResult struct {
	Synced  int      `json:"synced"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors,omitempty"`
}

// ShowtimeSyncResult summarizes one showtime sync run
type ShowtimeSyncResult struct {
	Synced int      `json:"synced"`
	Errors []string `json:"errors,omitempty"`
}

// SyncMovies fetches the now-showing page and creates the films that
// are missing locally, keyed by title. Titles that already exist are
// counted and left untouched. The whole page is one retry unit: a
// fetch failure retries the fetch, never half-applied writes.
func (s *SyncService) SyncMovies(ctx context.Context) (*MovieSyncResult, error) {
	ctx, span := util.StartSpan(ctx, "SyncService.SyncMovies")
	defer span.End()

	started := time.Now()

	var films []catalog.Film
	err := util.ExecuteWithRetry(ctx, func() error {
		var ferr error
		films, ferr = s.catalog.FetchNowShowing(ctx, s.cfg.MovieLimit)
		return ferr
	}, s.cfg.MaxAttempts, s.cfg.InitialDelay)
	if err != nil {
		s.metrics.RecordSync(false, time.Since(started), err)
		return nil, fmt.Errorf("failed to fetch now-showing films: %w", err)
	}

	result := &MovieSyncResult{}
	for _, film := range films {
		_, err := s.store.GetMovieByTitle(ctx, film.Name)
		switch {
		case err == nil:
			// already-present titles are only counted; local edits to a
			// movie record survive sync runs
			result.Updated++
		case errors.Is(err, store.ErrNotFound):
			movie := &models.Movie{
				ID:          uuid.New().String(),
				Title:       film.Name,
				Description: film.Synopsis,
				Genres:      film.Genres,
				DurationMin: film.DurationMin,
				ReleaseDate: film.ReleaseDate,
				PosterURL:   film.PosterURL,
			}
			if cerr := s.store.CreateMovie(ctx, movie); cerr != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("movie %q: %v", film.Name, cerr))
				continue
			}
			util.MoviesSyncedTotal.Inc()
			result.Synced++
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("movie %q: %v", film.Name, err))
		}
	}

	s.metrics.RecordSync(true, time.Since(started), nil)
	s.logger.Info("Movie sync completed",
		zap.Int("synced", result.Synced),
		zap.Int("updated", result.Updated),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", time.Since(started)))
	return result, nil
}

// SyncShowtimes fetches screening slots for every sync-enabled theater
// over the date window and creates the missing showtimes. Each
// theater-day is its own retry unit so one flaky day does not rerun
// the whole window.
func (s *SyncService) SyncShowtimes(ctx context.Context, startDate, endDate time.Time) (*ShowtimeSyncResult, error) {
	ctx, span := util.StartSpan(ctx, "SyncService.SyncShowtimes")
	defer span.End()

	started := time.Now()

	theaters, err := s.store.ListSyncEnabledTheaters(ctx)
	if err != nil {
		s.metrics.RecordSync(false, time.Since(started), err)
		return nil, fmt.Errorf("failed to list sync-enabled theaters: %w", err)
	}

	result := &ShowtimeSyncResult{}
	for _, theater := range theaters {
		screens, err := s.store.ListScreensByTheater(ctx, theater.ID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("theater %s screens: %v", theater.ID, err))
			continue
		}
		if len(screens) == 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("theater %s has no screens", theater.ID))
			continue
		}

		for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
			created, err := s.syncTheaterDay(ctx, &theater, screens, day)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("theater %s date %s: %v",
					theater.ID, day.Format("2006-01-02"), err))
				continue
			}
			result.Synced += created
		}
	}

	s.metrics.RecordSync(true, time.Since(started), nil)
	s.logger.Info("Showtime sync completed",
		zap.Int("synced", result.Synced),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", time.Since(started)))
	return result, nil
}

// syncTheaterDay is one retry unit: fetch plus create for a single
// theater and date. Creation is idempotent, so replaying after a
// partial failure only fills in the gaps.
func (s *SyncService) syncTheaterDay(ctx context.Context, theater *models.Theater, screens []models.Screen, day time.Time) (int, error) {
	created := 0
	err := util.ExecuteWithRetry(ctx, func() error {
		films, err := s.catalog.FetchShowtimesForCinema(ctx, theater.CatalogCinemaID, day)
		if err != nil {
			return err
		}

		for _, film := range films {
			movie, err := s.store.GetMovieByTitle(ctx, film.Name)
			if errors.Is(err, store.ErrNotFound) {
				s.logger.Debug("Skipping showtimes for film not in local catalog",
					zap.String("film", film.Name))
				continue
			}
			if err != nil {
				return err
			}

			for _, slot := range film.Showings {
				start, err := parseSlot(day, slot.StartTime)
				if err != nil {
					s.logger.Warn("Skipping unparseable showing time",
						zap.String("film", film.Name),
						zap.String("time", slot.StartTime))
					continue
				}

				n, err := s.createShowtimeIfMissing(ctx, theater, screens, movie, start)
				if err != nil {
					return err
				}
				created += n
			}
		}
		return nil
	}, s.cfg.MaxAttempts, s.cfg.InitialDelay)
	return created, err
}

func (s *SyncService) createShowtimeIfMissing(ctx context.Context, theater *models.Theater, screens []models.Screen, movie *models.Movie, start time.Time) (int, error) {
	exists, err := s.store.ShowtimeExists(ctx, theater.ID, movie.ID, start)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, nil
	}

	screen := screens[s.pickScreen(len(screens))]
	duration := movie.DurationMin
	if duration <= 0 {
		duration = 120
	}

	showtime := &models.Showtime{
		ID:             uuid.New().String(),
		MovieID:        movie.ID,
		TheaterID:      theater.ID,
		ScreenID:       screen.ID,
		StartTime:      start,
		EndTime:        start.Add(time.Duration(duration) * time.Minute),
		Price:          s.cfg.DefaultShowtimePrice,
		TotalSeats:     screen.TotalSeats,
		AvailableSeats: seatmap.Sequential(screen.TotalSeats),
		BookedSeats:    []string{},
		Status:         models.ShowtimeStatusAvailable,
	}

	err = s.store.CreateShowtime(ctx, showtime)
	if errors.Is(err, store.ErrDuplicateShowtime) {
		// another run won the race; the slot is covered either way
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	util.ShowtimesSyncedTotal.Inc()
	return 1, nil
}

// Metrics returns the aggregate sync metrics snapshot
func (s *SyncService) Metrics() util.SyncSnapshot {
	return s.metrics.Snapshot()
}

// HorizonWindow returns the configured sync window starting today
func (s *SyncService) HorizonWindow() (time.Time, time.Time) {
	start := time.Now().Truncate(24 * time.Hour)
	return start, start.AddDate(0, 0, s.cfg.HorizonDays)
}

func parseSlot(day time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
