package models

import "time"

// Event types
const (
	EventTypeBookingConfirmed    = "BOOKING_CONFIRMED"
	EventTypeBookingCancelled    = "BOOKING_CANCELLED"
	EventTypeShowtimeRescheduled = "SHOWTIME_RESCHEDULED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingConfirmedEvent published when a booking is created with a
// payment reference (or confirmed later by the payment collaborator)
type BookingConfirmedEvent struct {
	BaseEvent
	BookingID   string   `json:"booking_id"`
	UserID      string   `json:"user_id"`
	ShowtimeID  string   `json:"showtime_id"`
	Seats       []string `json:"seats"`
	TotalAmount int64    `json:"total_amount"`
}

// BookingCancelledEvent published when a booking is cancelled
type BookingCancelledEvent struct {
	BaseEvent
	BookingID string `json:"booking_id"`
	UserID    string `json:"user_id"`
	Reason    string `json:"reason"`
}

// ShowtimeRescheduledEvent published when an admin moves a showtime
type ShowtimeRescheduledEvent struct {
	BaseEvent
	ShowtimeID   string    `json:"showtime_id"`
	OldStartTime time.Time `json:"old_start_time"`
	NewStartTime time.Time `json:"new_start_time"`
}
