package services

import (
	"context"
	"fmt"
	"time"

	"github.com/zatekoja/hospital-booking-core/internal/domain/entities"
	"github.com/zatekoja/hospital-booking-core/internal/domain/repositories"
	"github.com/zatekoja/hospital-booking-core/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/hospital-booking-core/pkg/errors"
)

// RefundService performs the refund state transition on a payment and
// its appointment. This is a plain precondition-guarded transition, not
// a saga: refund is terminal and only reachable from a paid payment, so
// no compensation path exists.
type RefundService struct {
	payments      repositories.PaymentRepository
	appointments  repositories.AppointmentRepository
	notifications *NotificationService
	gatewayDelay  time.Duration
}

// NewRefundService creates a new refund service. notifications may be
// nil; gatewayDelay simulates the refund gateway round trip and is zero
// in tests.
func NewRefundService(
	payments repositories.PaymentRepository,
	appointments repositories.AppointmentRepository,
	notifications *NotificationService,
	gatewayDelay time.Duration,
) *RefundService {
	return &RefundService{
		payments:      payments,
		appointments:  appointments,
		notifications: notifications,
		gatewayDelay:  gatewayDelay,
	}
}

// Refund transitions a paid payment to refunded and propagates the state
// to its appointment. Any payment not currently in paid status is left
// unchanged and reported as a RefundState error.
func (s *RefundService) Refund(ctx context.Context, paymentID string) (*entities.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if payment.Status != entities.PaymentStatusPaid {
		return nil, apperrors.NewRefundStateError(
			fmt.Sprintf("payment in status %q cannot be refunded", payment.Status))
	}

	// Simulated refund gateway round trip.
	if s.gatewayDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, apperrors.NewExternalError("refund interrupted", ctx.Err())
		case <-time.After(s.gatewayDelay):
		}
	}

	if err := s.payments.UpdateStatus(ctx, payment.ID, entities.PaymentStatusRefunded); err != nil {
		return nil, err
	}
	payment.Status = entities.PaymentStatusRefunded

	if err := s.appointments.UpdatePaymentState(ctx, payment.AppointmentID, entities.PaymentStateRefunded); err != nil {
		// The payment is already refunded; surface the mismatch rather
		// than pretending the transition did not happen.
		observability.LoggerFromContext(ctx).Error().Err(err).
			Str("payment_id", payment.ID).
			Str("appointment_id", payment.AppointmentID).
			Msg("refund recorded but appointment payment state update failed")
		return nil, apperrors.NewInternalError("refund recorded but appointment update failed", err)
	}

	if s.notifications != nil {
		if err := s.notifications.PaymentRefunded(ctx, payment); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).
				Str("payment_id", payment.ID).Msg("failed to send refund notification")
		}
	}

	observability.LoggerFromContext(ctx).Info().
		Str("payment_id", payment.ID).
		Str("appointment_id", payment.AppointmentID).
		Msg("payment refunded")

	return payment, nil
}
