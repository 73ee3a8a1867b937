package util

import (
	"sync"
	"time"
)

// SyncMetrics aggregates the health of catalog sync runs. It is a
// process-wide accumulator; the HTTP layer exposes Snapshot on an
// operational endpoint.
type SyncMetrics struct {
	mu              sync.Mutex
	totalSyncs      int64
	successfulSyncs int64
	failedSyncs     int64
	totalTime       time.Duration
	lastError       string
	lastSync        time.Time
}

// SyncSnapshot is a read-only view of the accumulated counters.
type SyncSnapshot struct {
	TotalSyncs        int64      `json:"total_syncs"`
	SuccessfulSyncs   int64      `json:"successful_syncs"`
	FailedSyncs       int64      `json:"failed_syncs"`
	TotalTimeMs       int64      `json:"total_time_ms"`
	AverageTimeMs     int64      `json:"average_time_ms"`
	SuccessRate       float64    `json:"success_rate"`
	LastError         string     `json:"last_error,omitempty"`
	LastSyncTimestamp *time.Time `json:"last_sync_timestamp,omitempty"`
}

// NewSyncMetrics creates an empty accumulator
func NewSyncMetrics() *SyncMetrics {
	return &SyncMetrics{}
}

// RecordSync records the outcome of one sync run. Only successful runs
// contribute to the cumulative duration.
func (m *SyncMetrics) RecordSync(success bool, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalSyncs++
	m.lastSync = time.Now()

	if success {
		m.successfulSyncs++
		m.totalTime += duration
		SyncRunsTotal.WithLabelValues("success").Inc()
	} else {
		m.failedSyncs++
		if err != nil {
			m.lastError = err.Error()
		}
		SyncRunsTotal.WithLabelValues("failure").Inc()
	}
}

// Snapshot returns the current counters. Average time is over
// successful runs only; success rate is 0 when nothing has run.
func (m *SyncMetrics) Snapshot() SyncSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := SyncSnapshot{
		TotalSyncs:      m.totalSyncs,
		SuccessfulSyncs: m.successfulSyncs,
		FailedSyncs:     m.failedSyncs,
		TotalTimeMs:     m.totalTime.Milliseconds(),
		LastError:       m.lastError,
	}
	if m.successfulSyncs > 0 {
		snap.AverageTimeMs = m.totalTime.Milliseconds() / m.successfulSyncs
	}
	if m.totalSyncs > 0 {
		snap.SuccessRate = float64(m.successfulSyncs) / float64(m.totalSyncs)
	}
	if !m.lastSync.IsZero() {
		t := m.lastSync
		snap.LastSyncTimestamp = &t
	}
	return snap
}
