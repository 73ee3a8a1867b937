package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Total number of bookings created",
	})

	BookingsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_failed_total",
		Help: "Total number of failed booking attempts",
	}, []string{"reason"})

	BookingsCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_cancelled_total",
		Help: "Total number of cancelled bookings",
	})

	SeatUpdateConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seat_update_conflicts_total",
		Help: "Total number of optimistic seat-update conflicts",
	})

	RemindersScheduledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reminders_scheduled_total",
		Help: "Total number of reminder jobs scheduled",
	})

	RemindersFiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reminders_fired_total",
		Help: "Total number of reminder notifications fired",
	})

	RemindersSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reminders_skipped_total",
		Help: "Total number of reminder jobs skipped",
	}, []string{"reason"})

	RemindersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reminders_cancelled_total",
		Help: "Total number of reminder jobs cancelled",
	})

	SyncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_runs_total",
		Help: "Total number of catalog sync runs",
	}, []string{"result"})

	MoviesSyncedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "movies_synced_total",
		Help: "Total number of movies created by catalog sync",
	})

	ShowtimesSyncedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "showtimes_synced_total",
		Help: "Total number of showtimes created by catalog sync",
	})

	NotificationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_failures_total",
		Help: "Total number of failed notification attempts",
	}, []string{"kind"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
