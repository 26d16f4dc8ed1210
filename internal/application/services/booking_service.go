package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/hospital-booking-core/internal/adapters/payments"
	"github.com/zatekoja/hospital-booking-core/internal/domain/entities"
	"github.com/zatekoja/hospital-booking-core/internal/domain/providers"
	"github.com/zatekoja/hospital-booking-core/internal/domain/repositories"
	"github.com/zatekoja/hospital-booking-core/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/hospital-booking-core/pkg/errors"
	"github.com/zatekoja/hospital-booking-core/pkg/retry"
)

// Saga outcomes recorded in metrics
const (
	outcomeBooked             = "booked"
	outcomeRejected           = "rejected"
	outcomeRolledBack         = "rolled_back"
	outcomeCompensationFailed = "compensation_failed"
)

// BookingRequest carries everything needed to book and settle an appointment
type BookingRequest struct {
	PatientID       string
	ProviderID      string
	Department      string
	StartTime       time.Time
	DurationMinutes int
	Reason          string
	PaymentMethod   entities.PaymentMethod
	Amount          float64
	Card            *providers.CardInput
	Insurance       *providers.InsuranceInput
}

// BookingResult is returned on a successful booking
type BookingResult struct {
	Appointment   *entities.Appointment `json:"appointment"`
	Payment       *entities.Payment     `json:"payment"`
	TransactionID string                `json:"transaction"`
}

// BookingService coordinates the booking saga: slot validation, payment
// validation, provisional appointment commit, settlement and
// reconciliation. Appointment and Payment are separate aggregates with a
// real step between their writes, so a failed settlement is undone by an
// explicit compensation, not a transaction rollback.
type BookingService struct {
	appointments  repositories.AppointmentRepository
	payments      repositories.PaymentRepository
	slots         *SlotService
	processors    providers.ProcessorResolver
	notifications *NotificationService
	metrics       *observability.Metrics
	currency      string
	settleTimeout time.Duration
	compensation  retry.Config
}

// NewBookingService creates a new booking service. notifications and
// metrics may be nil.
func NewBookingService(
	appointments repositories.AppointmentRepository,
	paymentRepo repositories.PaymentRepository,
	slots *SlotService,
	processors providers.ProcessorResolver,
	notifications *NotificationService,
	metrics *observability.Metrics,
	currency string,
	settleTimeout time.Duration,
) *BookingService {
	return &BookingService{
		appointments:  appointments,
		payments:      paymentRepo,
		slots:         slots,
		processors:    processors,
		notifications: notifications,
		metrics:       metrics,
		currency:      currency,
		settleTimeout: settleTimeout,
		compensation:  retry.CompensationConfig(),
	}
}

// Book runs the booking saga. Terminal states: Booked (appointment and
// payment persisted, consistent), Rejected (nothing written) or
// RolledBack (appointment compensated after a failed settlement).
func (s *BookingService) Book(ctx context.Context, req *BookingRequest) (*BookingResult, error) {
	logger := observability.LoggerFromContext(ctx)
	started := time.Now()

	// Step 1a: request validation. Past instants are rejected here, not
	// in the slot engine, which has no clock authority.
	if err := validateBookingRequest(req); err != nil {
		return nil, err
	}

	processor, err := s.processors.Resolve(req.PaymentMethod)
	if err != nil {
		return nil, err
	}
	input := providers.PaymentInput{
		Method:    req.PaymentMethod,
		Card:      req.Card,
		Insurance: req.Insurance,
	}

	// Step 1b: authoritative slot check.
	free, err := s.slots.IsSlotFree(ctx, req.ProviderID, req.StartTime, req.DurationMinutes)
	if err != nil {
		return nil, err
	}
	if !free {
		observability.RecordConflict(ctx, s.metrics, req.ProviderID)
		observability.RecordSagaOutcome(ctx, s.metrics, string(req.PaymentMethod), outcomeRejected, time.Since(started))
		return nil, apperrors.NewConflictError("requested slot is not available")
	}

	// Step 2: payment input validation. Nothing has been written yet.
	if err := processor.Validate(input); err != nil {
		observability.RecordSagaOutcome(ctx, s.metrics, string(req.PaymentMethod), outcomeRejected, time.Since(started))
		return nil, err
	}

	// Step 3: provisional appointment commit. The partial unique index on
	// (provider_id, scheduled_at) closes the race between the check above
	// and this insert: the loser gets a Conflict.
	now := time.Now()
	appointment := &entities.Appointment{
		ID:              uuid.New().String(),
		PatientID:       req.PatientID,
		ProviderID:      req.ProviderID,
		Department:      req.Department,
		ScheduledAt:     req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Reason:          req.Reason,
		Status:          entities.AppointmentStatusScheduled,
		PaymentState:    initialPaymentState(req.PaymentMethod),
		PaymentMethod:   req.PaymentMethod,
		ChargedAmount:   req.Amount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.appointments.Create(ctx, appointment); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			observability.RecordConflict(ctx, s.metrics, req.ProviderID)
			observability.RecordSagaOutcome(ctx, s.metrics, string(req.PaymentMethod), outcomeRejected, time.Since(started))
		}
		return nil, err
	}

	// Step 4: settlement. Instant processors (government coverage) settle
	// locally and skip the timeout guard entirely.
	outcome, settleErr := s.settle(ctx, processor, req.Amount, input)
	if settleErr != nil {
		return nil, s.rollback(ctx, appointment, input, settleErr, started)
	}

	// Step 5: reconcile both aggregates.
	payment := s.buildPayment(appointment, outcome)
	if err := s.payments.Create(ctx, payment); err != nil {
		logger.Error().Err(err).Str("appointment_id", appointment.ID).
			Msg("failed to persist payment after successful settlement")
		return nil, s.rollback(ctx, appointment, input, err, started)
	}

	if err := s.syncPaymentState(ctx, appointment, outcome.Status); err != nil {
		logger.Error().Err(err).Str("appointment_id", appointment.ID).
			Str("payment_id", payment.ID).
			Msg("failed to sync appointment payment state; payment record holds the authoritative status")
	}

	s.afterBooked(ctx, appointment, payment)
	observability.RecordSagaOutcome(ctx, s.metrics, string(req.PaymentMethod), outcomeBooked, time.Since(started))
	logger.Info().Str("appointment_id", appointment.ID).
		Str("transaction_id", payment.TransactionID).
		Str("method", string(req.PaymentMethod)).
		Msg("appointment booked")

	return &BookingResult{
		Appointment:   appointment,
		Payment:       payment,
		TransactionID: payment.TransactionID,
	}, nil
}

// Cancel cancels an appointment, freeing its slot
func (s *BookingService) Cancel(ctx context.Context, appointmentID string) (*entities.Appointment, error) {
	appointment, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.Status == entities.AppointmentStatusCancelled {
		return appointment, nil
	}

	if err := s.appointments.Cancel(ctx, appointmentID); err != nil {
		return nil, err
	}
	appointment.Status = entities.AppointmentStatusCancelled

	s.slots.InvalidateDay(ctx, appointment.ProviderID, appointment.ScheduledAt)
	if s.notifications != nil {
		if err := s.notifications.BookingCancelled(ctx, appointment); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).
				Str("appointment_id", appointment.ID).Msg("failed to send cancellation notification")
		}
	}

	return appointment, nil
}

// GetAppointment retrieves an appointment by ID
func (s *BookingService) GetAppointment(ctx context.Context, id string) (*entities.Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// ListPatientAppointments lists a patient's appointments
func (s *BookingService) ListPatientAppointments(ctx context.Context, patientID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	return s.appointments.ListByPatient(ctx, patientID, filter)
}

func (s *BookingService) settle(ctx context.Context, processor providers.PaymentProcessor, amount float64, input providers.PaymentInput) (*providers.SettlementOutcome, error) {
	if processor.Instant() {
		return processor.Settle(ctx, amount, input)
	}

	settleCtx, cancel := context.WithTimeout(ctx, s.settleTimeout)
	defer cancel()

	outcome, err := processor.Settle(settleCtx, amount, input)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewSettlementError("settlement timed out", err)
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.NewSettlementError("settlement failed", err)
	}
	return outcome, nil
}

// rollback is the compensation branch: persist the failed attempt for
// audit, then undo the provisional appointment. A failed compensation is
// the one fatal condition here; it is logged with its own marker and
// surfaced as a Compensation error, never silently downgraded.
func (s *BookingService) rollback(ctx context.Context, appointment *entities.Appointment, input providers.PaymentInput, cause error, started time.Time) error {
	logger := observability.LoggerFromContext(ctx)

	failed := &entities.Payment{
		ID:              uuid.New().String(),
		AppointmentID:   appointment.ID,
		PatientID:       appointment.PatientID,
		Amount:          appointment.ChargedAmount,
		Currency:        s.currency,
		Method:          input.Method,
		Status:          entities.PaymentStatusFailed,
		TransactionID:   payments.FailureReference(),
		GatewayResponse: cause.Error(),
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if err := s.payments.Create(ctx, failed); err != nil {
		logger.Warn().Err(err).Str("appointment_id", appointment.ID).
			Msg("failed to persist audit record for failed settlement")
	}

	compErr := retry.Do(ctx, s.compensation, func() error {
		return s.appointments.Delete(ctx, appointment.ID)
	})
	if compErr != nil {
		observability.RecordCompensationFailure(ctx, s.metrics, appointment.ID)
		observability.RecordSagaOutcome(ctx, s.metrics, string(input.Method), outcomeCompensationFailed, time.Since(started))
		logger.Error().Err(compErr).
			Bool(observability.CompensationMarker, true).
			Str("appointment_id", appointment.ID).
			Str("settlement_error", cause.Error()).
			Msg("booking rollback failed; manual reconciliation required")
		return apperrors.NewCompensationError("booking rollback failed, manual intervention required", compErr)
	}

	s.slots.InvalidateDay(ctx, appointment.ProviderID, appointment.ScheduledAt)
	observability.RecordSettlementFailure(ctx, s.metrics, string(input.Method))
	observability.RecordSagaOutcome(ctx, s.metrics, string(input.Method), outcomeRolledBack, time.Since(started))
	logger.Info().Str("appointment_id", appointment.ID).
		Str("transaction_id", failed.TransactionID).
		Msg("booking rolled back after settlement failure")

	if apperrors.IsType(cause, apperrors.ErrorTypeSettlement) {
		return cause
	}
	return apperrors.NewSettlementError("payment processing failed", cause)
}

func (s *BookingService) buildPayment(appointment *entities.Appointment, outcome *providers.SettlementOutcome) *entities.Payment {
	now := time.Now()
	return &entities.Payment{
		ID:              uuid.New().String(),
		AppointmentID:   appointment.ID,
		PatientID:       appointment.PatientID,
		Amount:          appointment.ChargedAmount,
		Currency:        s.currency,
		Method:          appointment.PaymentMethod,
		Status:          outcome.Status,
		TransactionID:   outcome.TransactionID,
		Card:            outcome.Card,
		Insurance:       outcome.Insurance,
		CoverageRef:     outcome.CoverageRef,
		GatewayResponse: outcome.GatewayResponse,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (s *BookingService) syncPaymentState(ctx context.Context, appointment *entities.Appointment, status entities.PaymentStatus) error {
	state := paymentStateFor(status)
	if state == appointment.PaymentState {
		return nil
	}
	if err := s.appointments.UpdatePaymentState(ctx, appointment.ID, state); err != nil {
		return err
	}
	appointment.PaymentState = state
	return nil
}

// afterBooked runs the fire-and-forget tail of a successful saga. None
// of it can fail the booking.
func (s *BookingService) afterBooked(ctx context.Context, appointment *entities.Appointment, payment *entities.Payment) {
	s.slots.InvalidateDay(ctx, appointment.ProviderID, appointment.ScheduledAt)

	if s.notifications != nil {
		if err := s.notifications.BookingConfirmed(ctx, appointment, payment); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).
				Str("appointment_id", appointment.ID).Msg("failed to send booking notification")
		}
	}
}

func validateBookingRequest(req *BookingRequest) error {
	switch {
	case req == nil:
		return apperrors.NewValidationError("request body is required")
	case req.PatientID == "":
		return apperrors.NewValidationError("patient id is required")
	case req.ProviderID == "":
		return apperrors.NewValidationError("provider id is required")
	case req.DurationMinutes <= 0:
		return apperrors.NewValidationError("duration must be positive")
	case req.Amount < 0:
		return apperrors.NewValidationError("amount must not be negative")
	case req.StartTime.Before(time.Now()):
		return apperrors.NewValidationError("cannot book an appointment in the past")
	case !entities.KnownPaymentMethod(req.PaymentMethod):
		return apperrors.NewValidationError("unsupported payment method")
	}
	return nil
}

// initialPaymentState derives the provisional appointment payment state:
// government coverage starts covered optimistically, everything else
// stays pending until settlement reports back.
func initialPaymentState(method entities.PaymentMethod) entities.PaymentState {
	if method == entities.PaymentMethodGovernment {
		return entities.PaymentStateCovered
	}
	return entities.PaymentStatePending
}

func paymentStateFor(status entities.PaymentStatus) entities.PaymentState {
	switch status {
	case entities.PaymentStatusPaid:
		return entities.PaymentStatePaid
	case entities.PaymentStatusCovered:
		return entities.PaymentStateCovered
	case entities.PaymentStatusRefunded:
		return entities.PaymentStateRefunded
	default:
		return entities.PaymentStatePending
	}
}
