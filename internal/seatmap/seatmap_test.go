package seatmap

import (
	"testing"

	"cinema-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid(t *testing.T) {
	seats := Grid(10, 10)

	assert.Len(t, seats, 100)
	assert.Equal(t, "A1", seats[0])
	assert.Equal(t, "A10", seats[9])
	assert.Equal(t, "B1", seats[10])
	assert.Equal(t, "J10", seats[99])
}

func TestSequential(t *testing.T) {
	seats := Sequential(3)
	assert.Equal(t, []string{"seat_1", "seat_2", "seat_3"}, seats)
}

func TestBookAndRelease(t *testing.T) {
	m := &SeatMap{Available: []string{"A1", "A2", "A3"}}

	unavailable := m.Book([]string{"A1", "A2"})
	require.Empty(t, unavailable)
	assert.ElementsMatch(t, []string{"A3"}, m.Available)
	assert.ElementsMatch(t, []string{"A1", "A2"}, m.Booked)
	assert.True(t, m.Consistent())

	m.Release([]string{"A1", "A2"})
	assert.ElementsMatch(t, []string{"A1", "A2", "A3"}, m.Available)
	assert.Empty(t, m.Booked)
	assert.True(t, m.Consistent())
}

func TestBookUnavailableSeatsDoesNotMutate(t *testing.T) {
	m := &SeatMap{Available: []string{"A1"}, Booked: []string{"A2"}}

	unavailable := m.Book([]string{"A1", "A2", "B1"})

	assert.ElementsMatch(t, []string{"A2", "B1"}, unavailable)
	assert.ElementsMatch(t, []string{"A1"}, m.Available)
	assert.ElementsMatch(t, []string{"A2"}, m.Booked)
}

func TestReleaseIsIdempotent(t *testing.T) {
	m := &SeatMap{Available: []string{"A1"}, Booked: []string{"A2"}}

	m.Release([]string{"A2"})
	m.Release([]string{"A2"})

	assert.ElementsMatch(t, []string{"A1", "A2"}, m.Available)
	assert.Empty(t, m.Booked)
}

func TestPremiumPricingMultiplier(t *testing.T) {
	m := &SeatMap{
		Available: []string{"A1", "A2"},
		Premium:   []string{"A1"},
		BasePrice: 200,
		Rule:      DefaultPremiumRule(),
	}

	// round(200 * 1.3) + 200 = 460
	assert.Equal(t, int64(260), m.SeatPrice("A1"))
	assert.Equal(t, int64(200), m.SeatPrice("A2"))
	assert.Equal(t, int64(460), m.Total([]string{"A1", "A2"}))
}

func TestPremiumPricingFlat(t *testing.T) {
	m := &SeatMap{
		Premium:   []string{"A1"},
		BasePrice: 200,
		Rule:      PremiumRule{Mode: RuleFlat, Surcharge: 50},
	}

	assert.Equal(t, int64(250), m.SeatPrice("A1"))
	assert.Equal(t, int64(200), m.SeatPrice("B5"))
}

func TestStatusDerivation(t *testing.T) {
	m := &SeatMap{Available: []string{"A1"}}
	assert.Equal(t, models.ShowtimeStatusAvailable, m.Status())

	m.Book([]string{"A1"})
	assert.Equal(t, models.ShowtimeStatusFull, m.Status())

	m.Release([]string{"A1"})
	assert.Equal(t, models.ShowtimeStatusAvailable, m.Status())
}
