package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cinema-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresStore implements Store on top of Postgres via sqlx.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects to the database and verifies the connection
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *PostgresStore) GetDB() *sqlx.DB {
	return s.db
}

// CreateMovie inserts a new movie
func (s *PostgresStore) CreateMovie(ctx context.Context, movie *models.Movie) error {
	query := `
		INSERT INTO movies (id, title, description, genres, duration_min, release_date, poster_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	return s.db.GetContext(ctx, &movie.CreatedAt, query,
		movie.ID, movie.Title, movie.Description, movie.Genres,
		movie.DurationMin, movie.ReleaseDate, movie.PosterURL)
}

// GetMovie retrieves a movie by ID
func (s *PostgresStore) GetMovie(ctx context.Context, id string) (*models.Movie, error) {
	var movie models.Movie
	err := s.db.GetContext(ctx, &movie, "SELECT * FROM movies WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("movie %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// GetMovieByTitle retrieves a movie by its exact title
func (s *PostgresStore) GetMovieByTitle(ctx context.Context, title string) (*models.Movie, error) {
	var movie models.Movie
	err := s.db.GetContext(ctx, &movie, "SELECT * FROM movies WHERE title = $1", title)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("movie %q: %w", title, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// GetTheater retrieves a theater by ID
func (s *PostgresStore) GetTheater(ctx context.Context, id string) (*models.Theater, error) {
	var theater models.Theater
	err := s.db.GetContext(ctx, &theater, "SELECT * FROM theaters WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("theater %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &theater, nil
}

// ListSyncEnabledTheaters returns theaters eligible for catalog sync
func (s *PostgresStore) ListSyncEnabledTheaters(ctx context.Context) ([]models.Theater, error) {
	var theaters []models.Theater
	err := s.db.SelectContext(ctx, &theaters,
		"SELECT * FROM theaters WHERE sync_enabled = true AND catalog_cinema_id <> '' ORDER BY name")
	return theaters, err
}

// ListScreensByTheater returns all screens for a theater
func (s *PostgresStore) ListScreensByTheater(ctx context.Context, theaterID string) ([]models.Screen, error) {
	var screens []models.Screen
	err := s.db.SelectContext(ctx, &screens,
		"SELECT * FROM screens WHERE theater_id = $1 ORDER BY screen_number", theaterID)
	return screens, err
}

// GetUser retrieves a user by ID
func (s *PostgresStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT id, name, email FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateShowtime inserts a new showtime. The showtimes table carries a
// unique index on (theater_id, movie_id, start_time) so duplicate
// creation is rejected by the storage layer, not just the existence
// check in the sync engine.
func (s *PostgresStore) CreateShowtime(ctx context.Context, st *models.Showtime) error {
	query := `
		INSERT INTO showtimes
			(id, movie_id, theater_id, screen_id, start_time, end_time, price,
			 total_seats, seats_per_row, available_seats, booked_seats, premium_seats, status, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`

	err := s.db.GetContext(ctx, st, query,
		st.ID, st.MovieID, st.TheaterID, st.ScreenID, st.StartTime, st.EndTime, st.Price,
		st.TotalSeats, st.SeatsPerRow, st.AvailableSeats, st.BookedSeats, st.PremiumSeats,
		st.Status, st.Version)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return fmt.Errorf("showtime theater=%s movie=%s start=%s: %w",
			st.TheaterID, st.MovieID, st.StartTime, ErrDuplicateShowtime)
	}
	return err
}

// GetShowtime retrieves a showtime by ID
func (s *PostgresStore) GetShowtime(ctx context.Context, id string) (*models.Showtime, error) {
	var st models.Showtime
	err := s.db.GetContext(ctx, &st, "SELECT * FROM showtimes WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("showtime %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ListShowtimes retrieves all showtimes
func (s *PostgresStore) ListShowtimes(ctx context.Context) ([]models.Showtime, error) {
	var showtimes []models.Showtime
	err := s.db.SelectContext(ctx, &showtimes, "SELECT * FROM showtimes ORDER BY start_time")
	return showtimes, err
}

// ShowtimeExists reports whether a showtime shares the given
// theater+movie+start-time triple
func (s *PostgresStore) ShowtimeExists(ctx context.Context, theaterID, movieID string, startTime time.Time) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM showtimes WHERE theater_id = $1 AND movie_id = $2 AND start_time = $3)",
		theaterID, movieID, startTime)
	return exists, err
}

// UpdateShowtimeSeats conditionally replaces the seat partition
func (s *PostgresStore) UpdateShowtimeSeats(ctx context.Context, id string, version int64, available, booked []string, status string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE showtimes
		SET available_seats = $1, booked_seats = $2, status = $3,
		    version = version + 1, updated_at = NOW()
		WHERE id = $4 AND version = $5`,
		pq.StringArray(available), pq.StringArray(booked), status, id, version)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Distinguish a missing row from a lost race.
		var exists bool
		if err := s.db.GetContext(ctx, &exists,
			"SELECT EXISTS(SELECT 1 FROM showtimes WHERE id = $1)", id); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("showtime %s: %w", id, ErrNotFound)
		}
		return ErrVersionConflict
	}
	return nil
}

// UpdateShowtimeTimes updates the start and end instants
func (s *PostgresStore) UpdateShowtimeTimes(ctx context.Context, id string, start, end time.Time) (*models.Showtime, error) {
	var st models.Showtime
	err := s.db.GetContext(ctx, &st, `
		UPDATE showtimes
		SET start_time = $1, end_time = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING *`,
		start, end, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("showtime %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// UpdateShowtimePricing updates price and/or premium seats
func (s *PostgresStore) UpdateShowtimePricing(ctx context.Context, id string, price *int64, premiumSeats []string) (*models.Showtime, error) {
	var st models.Showtime
	err := s.db.GetContext(ctx, &st, `
		UPDATE showtimes
		SET price = COALESCE($1, price),
		    premium_seats = COALESCE($2, premium_seats),
		    updated_at = NOW()
		WHERE id = $3
		RETURNING *`,
		price, nullableArray(premiumSeats), id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("showtime %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func nullableArray(seats []string) interface{} {
	if seats == nil {
		return nil
	}
	return pq.StringArray(seats)
}
