package entities

import (
	"time"
)

// BookingEventType classifies events published on the booking event bus
type BookingEventType string

const (
	BookingEventBooked    BookingEventType = "booking.booked"
	BookingEventCancelled BookingEventType = "booking.cancelled"
	BookingEventRefunded  BookingEventType = "booking.refunded"
)

// BookingEvent is the payload published after a booking-related state
// change. Delivery is fire-and-forget; consumers (notification delivery,
// dashboards) must tolerate missed events.
type BookingEvent struct {
	ID            string           `json:"id"`
	Type          BookingEventType `json:"type"`
	AppointmentID string           `json:"appointment_id"`
	PatientID     string           `json:"patient_id"`
	ProviderID    string           `json:"provider_id"`
	ScheduledAt   time.Time        `json:"scheduled_at"`
	OccurredAt    time.Time        `json:"occurred_at"`
}
