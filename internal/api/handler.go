package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"cinema-service/internal/service"
	"cinema-service/internal/store"
	"cinema-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	bookingService *service.BookingService
	syncService    *service.SyncService
	scheduler      *service.ReminderScheduler
	checker        *service.ConsistencyChecker
}

// NewHandler creates a new HTTP handler
func NewHandler(
	bookingService *service.BookingService,
	syncService *service.SyncService,
	scheduler *service.ReminderScheduler,
	checker *service.ConsistencyChecker,
) *Handler {
	return &Handler{
		bookingService: bookingService,
		syncService:    syncService,
		scheduler:      scheduler,
		checker:        checker,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/bookings", h.createBooking)
		v1.GET("/bookings/:id", h.getBooking)
		v1.PUT("/bookings/:id/cancel", h.cancelBooking)
		v1.GET("/users/:id/bookings", h.listUserBookings)
		v1.GET("/showtimes/:id/seats", h.showtimeSeats)
	}

	admin := router.Group("/api/v1/admin")
	{
		admin.PATCH("/showtimes/:id/reschedule", h.rescheduleShowtime)
		admin.PATCH("/showtimes/:id/pricing", h.updateShowtimePricing)
		admin.POST("/sync/movies", h.syncMovies)
		admin.POST("/sync/showtimes", h.syncShowtimes)
		admin.GET("/sync/metrics", h.syncMetrics)
		admin.GET("/reminders", h.listReminders)
		admin.GET("/consistency", h.consistencyCheck)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createBooking handles booking creation
func (h *Handler) createBooking(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// getBooking handles get booking by ID
func (h *Handler) getBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"), requesterID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

// cancelBooking handles booking cancellation
func (h *Handler) cancelBooking(c *gin.Context) {
	var req cancelBookingRequest
	_ = c.ShouldBindJSON(&req)

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), c.Param("id"), requesterID(c), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// listUserBookings lists a user's bookings, newest first
func (h *Handler) listUserBookings(c *gin.Context) {
	bookings, err := h.bookingService.ListUserBookings(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// showtimeSeats returns the seat availability snapshot for a showtime
func (h *Handler) showtimeSeats(c *gin.Context) {
	snap, err := h.bookingService.ShowtimeSeats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type rescheduleRequest struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

// rescheduleShowtime moves a showtime and notifies confirmed bookings
func (h *Handler) rescheduleShowtime(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	if req.StartTime == nil && req.EndTime == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_time or end_time is required"})
		return
	}

	showtime, notified, err := h.bookingService.RescheduleShowtime(
		c.Request.Context(), c.Param("id"), req.StartTime, req.EndTime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"showtime": showtime, "notified": notified})
}

type pricingRequest struct {
	Price        *int64   `json:"price"`
	PremiumSeats []string `json:"premium_seats"`
}

// updateShowtimePricing updates the base price and/or premium seat set
func (h *Handler) updateShowtimePricing(c *gin.Context) {
	var req pricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	if req.Price == nil && req.PremiumSeats == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price or premium_seats is required"})
		return
	}

	showtime, err := h.bookingService.UpdateShowtimePricing(
		c.Request.Context(), c.Param("id"), req.Price, req.PremiumSeats)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, showtime)
}

// syncMovies triggers a movie sync run
func (h *Handler) syncMovies(c *gin.Context) {
	result, err := h.syncService.SyncMovies(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Movie sync failed",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

// syncShowtimes triggers a showtime sync run over the horizon window
func (h *Handler) syncShowtimes(c *gin.Context) {
	start, end := h.syncService.HorizonWindow()
	if v := c.Query("start"); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			start = d
		}
	}
	if v := c.Query("end"); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			end = d
		}
	}

	result, err := h.syncService.SyncShowtimes(c.Request.Context(), start, end)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Showtime sync failed",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

// syncMetrics exposes the aggregate sync counters
func (h *Handler) syncMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.syncService.Metrics())
}

// listReminders exposes the pending reminder jobs
func (h *Handler) listReminders(c *gin.Context) {
	jobs := h.scheduler.Introspect()
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// consistencyCheck runs an audit pass over the stored showtimes
func (h *Handler) consistencyCheck(c *gin.Context) {
	report, err := h.checker.Verify(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Consistency check failed",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, report)
}

// requesterID identifies the caller. Authentication lives at the
// gateway; the ID it resolved arrives in a trusted header.
func requesterID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}

func respondError(c *gin.Context, err error) {
	var unavailable *service.SeatsUnavailableError

	switch {
	case errors.As(err, &unavailable):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"seats": unavailable.Seats,
		})
	case errors.Is(err, service.ErrNoSeatsSelected),
		errors.Is(err, service.ErrInvalidTimeRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, service.ErrDataIntegrity):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyCancelled),
		errors.Is(err, service.ErrSeatMapContention):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"details": err.Error(),
		})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
