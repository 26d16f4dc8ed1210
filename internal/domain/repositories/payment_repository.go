package repositories

import (
	"context"

	"github.com/zatekoja/hospital-booking-core/internal/domain/entities"
)

// PaymentRepository defines the interface for payment data operations.
// Payments are append-then-update only; there is no delete.
type PaymentRepository interface {
	// Create persists a new payment record, failed attempts included
	Create(ctx context.Context, payment *entities.Payment) error

	// GetByID retrieves a payment by ID
	GetByID(ctx context.Context, id string) (*entities.Payment, error)

	// GetByAppointmentID retrieves the payment referencing an appointment
	GetByAppointmentID(ctx context.Context, appointmentID string) (*entities.Payment, error)

	// UpdateStatus transitions a payment's status
	UpdateStatus(ctx context.Context, id string, status entities.PaymentStatus) error
}
