package worker

import (
	"context"
	"time"

	"cinema-service/config"
	"cinema-service/internal/broker"
	"cinema-service/internal/models"
	"cinema-service/internal/redisclient"
	"cinema-service/internal/service"
	"cinema-service/internal/util"

	"go.uber.org/zap"
)

// ReminderWorker consumes booking lifecycle events and keeps the
// reminder scheduler in step with them. Scheduling is idempotent, so
// replayed events are harmless.
type ReminderWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewReminderWorker creates a new reminder worker
func NewReminderWorker(consumer *broker.Consumer, scheduler *service.ReminderScheduler) *ReminderWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnBookingConfirmed(func(ctx context.Context, event *models.BookingConfirmedEvent) error {
		return scheduler.Schedule(ctx, event.BookingID)
	})
	eventHandler.OnBookingCancelled(func(ctx context.Context, event *models.BookingCancelledEvent) error {
		scheduler.Cancel(event.BookingID)
		return nil
	})

	return &ReminderWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *ReminderWorker) Start(ctx context.Context) error {
	util.GetLogger().Info("Starting reminder worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ReminderWorker) Stop() error {
	util.GetLogger().Info("Stopping reminder worker")
	return w.consumer.Close()
}

const syncLockKey = "cinema-sync"
const syncLockTTL = 10 * time.Minute

// SyncWorker runs the catalog sync on fixed intervals. A redis lock
// keeps concurrent replicas from syncing at the same time; a failed
// run is logged and retried on the next tick.
type SyncWorker struct {
	syncService *service.SyncService
	locks       *redisclient.Client
	cfg         config.SyncConfig
	logger      *zap.Logger
}

// NewSyncWorker creates a new sync worker. locks may be nil, in which
// case runs are not coordinated across replicas.
func NewSyncWorker(syncService *service.SyncService, locks *redisclient.Client, cfg config.SyncConfig) *SyncWorker {
	return &SyncWorker{
		syncService: syncService,
		locks:       locks,
		cfg:         cfg,
		logger:      util.GetLogger(),
	}
}

// Start runs both sync loops until the context is cancelled
func (w *SyncWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting sync worker",
		zap.Duration("movie_interval", w.cfg.MovieSyncInterval),
		zap.Duration("showtime_interval", w.cfg.ShowtimeSyncInterval))

	movieTicker := time.NewTicker(w.cfg.MovieSyncInterval)
	showtimeTicker := time.NewTicker(w.cfg.ShowtimeSyncInterval)
	defer movieTicker.Stop()
	defer showtimeTicker.Stop()

	// run once on startup so a fresh deployment is not empty for a day
	w.runMovieSync(ctx)
	w.runShowtimeSync(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Sync worker stopping")
			return ctx.Err()
		case <-movieTicker.C:
			w.runMovieSync(ctx)
		case <-showtimeTicker.C:
			w.runShowtimeSync(ctx)
		}
	}
}

func (w *SyncWorker) runMovieSync(ctx context.Context) {
	if !w.acquireLock(ctx) {
		return
	}
	defer w.releaseLock(ctx)

	result, err := w.syncService.SyncMovies(ctx)
	if err != nil {
		w.logger.Error("Movie sync failed", zap.Error(err))
		return
	}
	w.logger.Info("Scheduled movie sync done",
		zap.Int("synced", result.Synced),
		zap.Int("updated", result.Updated))
}

func (w *SyncWorker) runShowtimeSync(ctx context.Context) {
	if !w.acquireLock(ctx) {
		return
	}
	defer w.releaseLock(ctx)

	start, end := w.syncService.HorizonWindow()
	result, err := w.syncService.SyncShowtimes(ctx, start, end)
	if err != nil {
		w.logger.Error("Showtime sync failed", zap.Error(err))
		return
	}
	w.logger.Info("Scheduled showtime sync done", zap.Int("synced", result.Synced))
}

func (w *SyncWorker) acquireLock(ctx context.Context) bool {
	if w.locks == nil {
		return true
	}
	ok, err := w.locks.AcquireLock(ctx, syncLockKey, syncLockTTL)
	if err != nil {
		w.logger.Error("Failed to acquire sync lock", zap.Error(err))
		return false
	}
	if !ok {
		w.logger.Info("Sync lock held elsewhere, skipping run")
	}
	return ok
}

func (w *SyncWorker) releaseLock(ctx context.Context) {
	if w.locks == nil {
		return
	}
	if err := w.locks.ReleaseLock(ctx, syncLockKey); err != nil {
		w.logger.Error("Failed to release sync lock", zap.Error(err))
	}
}
