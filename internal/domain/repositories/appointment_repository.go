package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/hospital-booking-core/internal/domain/entities"
)

// AppointmentRepository defines the interface for appointment data operations
type AppointmentRepository interface {
	// Create creates a new appointment. Implementations must surface a
	// slot-start uniqueness violation as a Conflict error so the booking
	// saga can close the check-then-insert race.
	Create(ctx context.Context, appointment *entities.Appointment) error

	// GetByID retrieves an appointment by ID
	GetByID(ctx context.Context, id string) (*entities.Appointment, error)

	// Delete removes an appointment. Used only by saga compensation.
	Delete(ctx context.Context, id string) error

	// Cancel marks an appointment cancelled, freeing its slot
	Cancel(ctx context.Context, id string) error

	// UpdatePaymentState updates the payment state recorded on an appointment
	UpdatePaymentState(ctx context.Context, id string, state entities.PaymentState) error

	// ListByProviderBetween retrieves the provider's non-cancelled
	// appointments with ScheduledAt in [from, to), ordered by start time
	ListByProviderBetween(ctx context.Context, providerID string, from, to time.Time) ([]*entities.Appointment, error)

	// ListByPatient retrieves appointments for a patient
	ListByPatient(ctx context.Context, patientID string, filter AppointmentFilter) ([]*entities.Appointment, error)
}

// AppointmentFilter defines filters for listing appointments
type AppointmentFilter struct {
	Status entities.AppointmentStatus
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
