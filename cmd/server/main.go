package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cinema-service/config"
	"cinema-service/internal/api"
	"cinema-service/internal/broker"
	"cinema-service/internal/catalog"
	"cinema-service/internal/redisclient"
	"cinema-service/internal/service"
	"cinema-service/internal/store"
	"cinema-service/internal/util"
	"cinema-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting cinema service")

	tp, err := util.InitTracer("cinema-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewPostgresStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicBooking)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	notifier := service.NewLogNotifier()
	scheduler := service.NewReminderScheduler(db, notifier,
		time.Duration(cfg.Booking.ReminderLeadHours)*time.Hour)
	defer scheduler.Stop()

	ctx := context.Background()
	if restored, err := scheduler.Restore(ctx); err != nil {
		log.Printf("Failed to restore reminder jobs: %v", err)
	} else {
		log.Printf("Restored %d reminder jobs", restored)
	}

	bookingService := service.NewBookingService(db, redisClient, eventPublisher, notifier, scheduler, cfg.Booking)

	catalogClient := catalog.NewHTTPClient(cfg.Sync.CatalogBaseURL, cfg.Sync.CatalogAPIKey)
	syncService := service.NewSyncService(db, catalogClient, util.NewSyncMetrics(), cfg.Sync)

	checker := service.NewConsistencyChecker(db)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	bookingConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicBooking, cfg.Kafka.ConsumerGroup)
	reminderWorker := worker.NewReminderWorker(bookingConsumer, scheduler)
	go func() {
		if err := reminderWorker.Start(workerCtx); err != nil {
			log.Printf("Reminder worker error: %v", err)
		}
	}()

	var syncWorker *worker.SyncWorker
	if cfg.Sync.Enabled {
		syncWorker = worker.NewSyncWorker(syncService, redisClient, cfg.Sync)
		go func() {
			if err := syncWorker.Start(workerCtx); err != nil {
				log.Printf("Sync worker error: %v", err)
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(bookingService, syncService, scheduler, checker)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	reminderWorker.Stop()

	log.Println("Server exited")
}
