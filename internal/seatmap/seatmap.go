// Package seatmap holds the seat partition and pricing rules for a
// showtime. A seat is either available or booked, never both; premium
// seats attract a configurable surcharge on the base price.
package seatmap

import (
	"fmt"
	"math"

	"cinema-service/internal/models"
)

// Premium rule modes
const (
	RuleMultiplier = "multiplier"
	RuleFlat       = "flat"
)

// PremiumRule describes how a premium seat is priced relative to the
// base price. The source system used both x1.3 and +50 in different
// call sites; here it is one configurable rule.
type PremiumRule struct {
	Mode       string
	Multiplier float64
	Surcharge  int64
}

// DefaultPremiumRule matches the booking path of the source system.
func DefaultPremiumRule() PremiumRule {
	return PremiumRule{Mode: RuleMultiplier, Multiplier: 1.3}
}

// SeatMap is a mutable value type over a showtime's seat partition.
type SeatMap struct {
	Available []string
	Booked    []string
	Premium   []string
	BasePrice int64
	Rule      PremiumRule
}

// New builds a SeatMap from a showtime record and a pricing rule.
func New(st *models.Showtime, rule PremiumRule) *SeatMap {
	return &SeatMap{
		Available: append([]string(nil), st.AvailableSeats...),
		Booked:    append([]string(nil), st.BookedSeats...),
		Premium:   append([]string(nil), st.PremiumSeats...),
		BasePrice: st.Price,
		Rule:      rule,
	}
}

// Grid materializes a rectangular seat universe labelled A1..A<cols>,
// B1.., one letter per row.
func Grid(rows, cols int) []string {
	seats := make([]string, 0, rows*cols)
	for r := 0; r < rows; r++ {
		label := string(rune('A' + r))
		for c := 1; c <= cols; c++ {
			seats = append(seats, fmt.Sprintf("%s%d", label, c))
		}
	}
	return seats
}

// Sequential materializes the seat_1..seat_n universe used for
// catalog-created showtimes.
func Sequential(n int) []string {
	seats := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		seats = append(seats, fmt.Sprintf("seat_%d", i))
	}
	return seats
}

// Book moves seats from available to booked. It returns the subset of
// requested seats that are not available; the map is only mutated when
// every requested seat is free.
func (m *SeatMap) Book(seats []string) []string {
	avail := toSet(m.Available)
	var unavailable []string
	for _, s := range seats {
		if _, ok := avail[s]; !ok {
			unavailable = append(unavailable, s)
		}
	}
	if len(unavailable) > 0 {
		return unavailable
	}

	requested := toSet(seats)
	m.Available = without(m.Available, requested)
	m.Booked = append(m.Booked, seats...)
	return nil
}

// Release moves seats from booked back to available. It is idempotent:
// seats not currently booked are not duplicated into available.
func (m *SeatMap) Release(seats []string) {
	booked := toSet(m.Booked)
	avail := toSet(m.Available)
	for _, s := range seats {
		if _, ok := booked[s]; !ok {
			continue
		}
		if _, ok := avail[s]; ok {
			continue
		}
		m.Available = append(m.Available, s)
		avail[s] = struct{}{}
	}
	m.Booked = without(m.Booked, toSet(seats))
}

// SeatPrice returns the price of a single seat under the premium rule.
func (m *SeatMap) SeatPrice(seat string) int64 {
	if !contains(m.Premium, seat) {
		return m.BasePrice
	}
	switch m.Rule.Mode {
	case RuleFlat:
		return m.BasePrice + m.Rule.Surcharge
	default:
		return int64(math.Round(float64(m.BasePrice) * m.Rule.Multiplier))
	}
}

// Total sums the per-seat prices for a selection.
func (m *SeatMap) Total(seats []string) int64 {
	var total int64
	for _, s := range seats {
		total += m.SeatPrice(s)
	}
	return total
}

// Status derives the showtime status from the partition: full when no
// seats are available, otherwise available.
func (m *SeatMap) Status() string {
	if len(m.Available) == 0 {
		return models.ShowtimeStatusFull
	}
	return models.ShowtimeStatusAvailable
}

// Consistent reports whether the partition invariant holds: no seat is
// both available and booked.
func (m *SeatMap) Consistent() bool {
	avail := toSet(m.Available)
	for _, s := range m.Booked {
		if _, ok := avail[s]; ok {
			return false
		}
	}
	return true
}

func toSet(seats []string) map[string]struct{} {
	set := make(map[string]struct{}, len(seats))
	for _, s := range seats {
		set[s] = struct{}{}
	}
	return set
}

func without(seats []string, exclude map[string]struct{}) []string {
	out := seats[:0:0]
	for _, s := range seats {
		if _, ok := exclude[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

func contains(seats []string, seat string) bool {
	for _, s := range seats {
		if s == seat {
			return true
		}
	}
	return false
}
