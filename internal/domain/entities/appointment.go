package entities

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// PaymentState represents the payment status recorded on an appointment.
// It is written only by the booking saga and the refund workflow.
type PaymentState string

const (
	PaymentStatePending  PaymentState = "pending"
	PaymentStatePaid     PaymentState = "paid"
	PaymentStateRefunded PaymentState = "refunded"
	PaymentStateCovered  PaymentState = "covered"
)

// Appointment represents a scheduled appointment with a provider.
//
// Invariant: for a given provider, no two non-cancelled appointments may
// have overlapping [ScheduledAt, ScheduledAt+Duration) intervals. The
// database enforces slot-start uniqueness; the slot engine enforces the
// interval overlap rule before commit.
type Appointment struct {
	ID              string            `json:"id" db:"id"`
	PatientID       string            `json:"patient_id" db:"patient_id"`
	ProviderID      string            `json:"provider_id" db:"provider_id"`
	Department      string            `json:"department" db:"department"`
	ScheduledAt     time.Time         `json:"scheduled_at" db:"scheduled_at"`
	DurationMinutes int               `json:"duration_minutes" db:"duration_minutes"`
	Reason          string            `json:"reason" db:"reason"`
	Status          AppointmentStatus `json:"status" db:"status"`
	PaymentState    PaymentState      `json:"payment_state" db:"payment_state"`
	PaymentMethod   PaymentMethod     `json:"payment_method" db:"payment_method"`
	ChargedAmount   float64           `json:"charged_amount" db:"charged_amount"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}

// End returns the exclusive end instant of the appointment interval
func (a *Appointment) End() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Occupies reports whether the appointment still occupies its slot.
// Any non-cancelled appointment blocks the slot regardless of payment
// state, so an in-flight saga cannot have its slot optimistically resold.
func (a *Appointment) Occupies() bool {
	return a.Status != AppointmentStatusCancelled
}
