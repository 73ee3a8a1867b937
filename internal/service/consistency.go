package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinema-service/internal/seatmap"
	"cinema-service/internal/store"
	"cinema-service/internal/util"

	"go.uber.org/zap"
)

// ConsistencyChecker audits stored showtimes for dangling references,
// duplicate scheduling and broken seat partitions. It only reports;
// repairs stay a human decision.
type ConsistencyChecker struct {
	store  store.Store
	logger *zap.Logger
}

// NewConsistencyChecker creates a consistency checker
func NewConsistencyChecker(st store.Store) *ConsistencyChecker {
	return &ConsistencyChecker{store: st, logger: util.GetLogger()}
}

// ConsistencyReport is the result of one audit pass
type ConsistencyReport struct {
	Consistent bool      `json:"consistent"`
	Issues     []string  `json:"issues,omitempty"`
	Checked    int       `json:"checked"`
	CheckedAt  time.Time `json:"checked_at"`
}

// Verify scans every showtime and collects all issues found
func (c *ConsistencyChecker) Verify(ctx context.Context) (*ConsistencyReport, error) {
	ctx, span := util.StartSpan(ctx, "ConsistencyChecker.Verify")
	defer span.End()

	showtimes, err := c.store.ListShowtimes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list showtimes: %w", err)
	}

	report := &ConsistencyReport{
		Checked:   len(showtimes),
		CheckedAt: time.Now(),
	}

	seenTriple := make(map[string]string)
	seenScreen := make(map[string]string)
	for i := range showtimes {
		st := &showtimes[i]

		if _, err := c.store.GetMovie(ctx, st.MovieID); errors.Is(err, store.ErrNotFound) {
			report.Issues = append(report.Issues,
				fmt.Sprintf("showtime %s references missing movie %s", st.ID, st.MovieID))
		} else if err != nil {
			return nil, err
		}

		if _, err := c.store.GetTheater(ctx, st.TheaterID); errors.Is(err, store.ErrNotFound) {
			report.Issues = append(report.Issues,
				fmt.Sprintf("showtime %s references missing theater %s", st.ID, st.TheaterID))
		} else if err != nil {
			return nil, err
		}

		triple := fmt.Sprintf("%s|%s|%d", st.TheaterID, st.MovieID, st.StartTime.Unix())
		if dup, ok := seenTriple[triple]; ok {
			report.Issues = append(report.Issues,
				fmt.Sprintf("showtime %s duplicates %s (same theater, movie and start time)", st.ID, dup))
		} else {
			seenTriple[triple] = st.ID
		}

		screenSlot := fmt.Sprintf("%s|%s|%d", st.TheaterID, st.ScreenID, st.StartTime.Unix())
		if other, ok := seenScreen[screenSlot]; ok {
			report.Issues = append(report.Issues,
				fmt.Sprintf("showtime %s conflicts with %s (same screen and start time)", st.ID, other))
		} else {
			seenScreen[screenSlot] = st.ID
		}

		m := seatmap.New(st, seatmap.DefaultPremiumRule())
		if !m.Consistent() {
			report.Issues = append(report.Issues,
				fmt.Sprintf("showtime %s has seats in both the available and booked sets", st.ID))
		}
	}

	report.Consistent = len(report.Issues) == 0
	c.logger.Info("Consistency check completed",
		zap.Int("checked", report.Checked),
		zap.Int("issues", len(report.Issues)))
	return report, nil
}
