package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cinema-service/internal/models"
)

// MemoryStore is a mutex-guarded in-memory Store used by tests and
// local development. Version checks behave exactly like the Postgres
// conditional update so contention paths can be exercised without a
// database.
type MemoryStore struct {
	mu        sync.RWMutex
	movies    map[string]*models.Movie
	theaters  map[string]*models.Theater
	screens   map[string]*models.Screen
	users     map[string]*models.User
	showtimes map[string]*models.Showtime
	bookings  map[string]*models.Booking
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		movies:    make(map[string]*models.Movie),
		theaters:  make(map[string]*models.Theater),
		screens:   make(map[string]*models.Screen),
		users:     make(map[string]*models.User),
		showtimes: make(map[string]*models.Showtime),
		bookings:  make(map[string]*models.Booking),
	}
}

// AddTheater seeds a theater record
func (s *MemoryStore) AddTheater(theater *models.Theater) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *theater
	s.theaters[theater.ID] = &cp
}

// AddScreen seeds a screen record
func (s *MemoryStore) AddScreen(screen *models.Screen) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *screen
	s.screens[screen.ID] = &cp
}

// AddUser seeds a user record
func (s *MemoryStore) AddUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.ID] = &cp
}

func (s *MemoryStore) CreateMovie(ctx context.Context, movie *models.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if movie.CreatedAt.IsZero() {
		movie.CreatedAt = time.Now()
	}
	cp := copyMovie(movie)
	s.movies[movie.ID] = cp
	return nil
}

func (s *MemoryStore) GetMovie(ctx context.Context, id string) (*models.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	movie, ok := s.movies[id]
	if !ok {
		return nil, fmt.Errorf("movie %s: %w", id, ErrNotFound)
	}
	return copyMovie(movie), nil
}

func (s *MemoryStore) GetMovieByTitle(ctx context.Context, title string) (*models.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, movie := range s.movies {
		if movie.Title == title {
			return copyMovie(movie), nil
		}
	}
	return nil, fmt.Errorf("movie %q: %w", title, ErrNotFound)
}

func (s *MemoryStore) GetTheater(ctx context.Context, id string) (*models.Theater, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	theater, ok := s.theaters[id]
	if !ok {
		return nil, fmt.Errorf("theater %s: %w", id, ErrNotFound)
	}
	cp := *theater
	return &cp, nil
}

func (s *MemoryStore) ListSyncEnabledTheaters(ctx context.Context) ([]models.Theater, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var theaters []models.Theater
	for _, t := range s.theaters {
		if t.SyncEnabled && t.CatalogCinemaID != "" {
			theaters = append(theaters, *t)
		}
	}
	sort.Slice(theaters, func(i, j int) bool { return theaters[i].Name < theaters[j].Name })
	return theaters, nil
}

func (s *MemoryStore) ListScreensByTheater(ctx context.Context, theaterID string) ([]models.Screen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var screens []models.Screen
	for _, sc := range s.screens {
		if sc.TheaterID == theaterID {
			screens = append(screens, *sc)
		}
	}
	sort.Slice(screens, func(i, j int) bool { return screens[i].ScreenNumber < screens[j].ScreenNumber })
	return screens, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	cp := *user
	return &cp, nil
}

func (s *MemoryStore) CreateShowtime(ctx context.Context, st *models.Showtime) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.showtimes {
		if existing.TheaterID == st.TheaterID && existing.MovieID == st.MovieID &&
			existing.StartTime.Equal(st.StartTime) {
			return fmt.Errorf("showtime theater=%s movie=%s start=%s: %w",
				st.TheaterID, st.MovieID, st.StartTime, ErrDuplicateShowtime)
		}
	}
	now := time.Now()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}
	st.UpdatedAt = now
	s.showtimes[st.ID] = copyShowtime(st)
	return nil
}

func (s *MemoryStore) GetShowtime(ctx context.Context, id string) (*models.Showtime, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.showtimes[id]
	if !ok {
		return nil, fmt.Errorf("showtime %s: %w", id, ErrNotFound)
	}
	return copyShowtime(st), nil
}

func (s *MemoryStore) ListShowtimes(ctx context.Context) ([]models.Showtime, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	showtimes := make([]models.Showtime, 0, len(s.showtimes))
	for _, st := range s.showtimes {
		showtimes = append(showtimes, *copyShowtime(st))
	}
	sort.Slice(showtimes, func(i, j int) bool { return showtimes[i].StartTime.Before(showtimes[j].StartTime) })
	return showtimes, nil
}

func (s *MemoryStore) ShowtimeExists(ctx context.Context, theaterID, movieID string, startTime time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.showtimes {
		if st.TheaterID == theaterID && st.MovieID == movieID && st.StartTime.Equal(startTime) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) UpdateShowtimeSeats(ctx context.Context, id string, version int64, available, booked []string, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.showtimes[id]
	if !ok {
		return fmt.Errorf("showtime %s: %w", id, ErrNotFound)
	}
	if st.Version != version {
		return ErrVersionConflict
	}
	st.AvailableSeats = append([]string(nil), available...)
	st.BookedSeats = append([]string(nil), booked...)
	st.Status = status
	st.Version++
	st.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) UpdateShowtimeTimes(ctx context.Context, id string, start, end time.Time) (*models.Showtime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.showtimes[id]
	if !ok {
		return nil, fmt.Errorf("showtime %s: %w", id, ErrNotFound)
	}
	st.StartTime = start
	st.EndTime = end
	st.UpdatedAt = time.Now()
	return copyShowtime(st), nil
}

func (s *MemoryStore) UpdateShowtimePricing(ctx context.Context, id string, price *int64, premiumSeats []string) (*models.Showtime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.showtimes[id]
	if !ok {
		return nil, fmt.Errorf("showtime %s: %w", id, ErrNotFound)
	}
	if price != nil {
		st.Price = *price
	}
	if premiumSeats != nil {
		st.PremiumSeats = append([]string(nil), premiumSeats...)
	}
	st.UpdatedAt = time.Now()
	return copyShowtime(st), nil
}

func (s *MemoryStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now
	s.bookings[booking.ID] = copyBooking(booking)
	return nil
}

func (s *MemoryStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	booking, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	return copyBooking(booking), nil
}

func (s *MemoryStore) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.bookings[booking.ID]
	if !ok {
		return fmt.Errorf("booking %s: %w", booking.ID, ErrNotFound)
	}
	existing.BookingStatus = booking.BookingStatus
	existing.PaymentStatus = booking.PaymentStatus
	existing.CancellationReason = booking.CancellationReason
	existing.CancellationDate = booking.CancellationDate
	existing.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var bookings []models.Booking
	for _, b := range s.bookings {
		if b.UserID == userID {
			bookings = append(bookings, *copyBooking(b))
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].CreatedAt.After(bookings[j].CreatedAt) })
	return bookings, nil
}

func (s *MemoryStore) ListConfirmedBookingsByShowtime(ctx context.Context, showtimeID string) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var bookings []models.Booking
	for _, b := range s.bookings {
		if b.ShowtimeID == showtimeID && b.BookingStatus == models.BookingStatusConfirmed {
			bookings = append(bookings, *copyBooking(b))
		}
	}
	return bookings, nil
}

func (s *MemoryStore) ListConfirmedBookingsAfter(ctx context.Context, t time.Time) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var bookings []models.Booking
	for _, b := range s.bookings {
		if b.BookingStatus != models.BookingStatusConfirmed {
			continue
		}
		st, ok := s.showtimes[b.ShowtimeID]
		if !ok || !st.StartTime.After(t) {
			continue
		}
		bookings = append(bookings, *copyBooking(b))
	}
	return bookings, nil
}

func copyMovie(m *models.Movie) *models.Movie {
	cp := *m
	cp.Genres = append([]string(nil), m.Genres...)
	return &cp
}

func copyShowtime(st *models.Showtime) *models.Showtime {
	cp := *st
	cp.AvailableSeats = append([]string(nil), st.AvailableSeats...)
	cp.BookedSeats = append([]string(nil), st.BookedSeats...)
	cp.PremiumSeats = append([]string(nil), st.PremiumSeats...)
	return &cp
}

func copyBooking(b *models.Booking) *models.Booking {
	cp := *b
	cp.Seats = append([]string(nil), b.Seats...)
	if b.CancellationDate != nil {
		d := *b.CancellationDate
		cp.CancellationDate = &d
	}
	return &cp
}
