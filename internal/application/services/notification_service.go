package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/zatekoja/hospital-booking-core/internal/domain/entities"
	"github.com/zatekoja/hospital-booking-core/internal/domain/providers"
)

// Notification kinds written to the notification log
const (
	notificationBookingConfirmed = "booking_confirmed"
	notificationBookingCancelled = "booking_cancelled"
	notificationPaymentRefunded  = "payment_refunded"
)

// NotificationService records notification intents and publishes booking
// events for downstream delivery. Delivery itself (email, SMS) lives
// outside this service; everything here is fire-and-forget from the
// saga's point of view and must never affect the booking outcome.
type NotificationService struct {
	db  *sqlx.DB
	bus providers.EventBus
}

// NewNotificationService creates a new notification service. Either
// dependency may be nil; the corresponding channel is then skipped.
func NewNotificationService(db *sqlx.DB, bus providers.EventBus) *NotificationService {
	return &NotificationService{
		db:  db,
		bus: bus,
	}
}

type notificationRecord struct {
	ID            string    `db:"id"`
	AppointmentID string    `db:"appointment_id"`
	PatientID     string    `db:"patient_id"`
	Kind          string    `db:"kind"`
	Detail        string    `db:"detail"`
	CreatedAt     time.Time `db:"created_at"`
}

// BookingConfirmed records and publishes a booking confirmation
func (n *NotificationService) BookingConfirmed(ctx context.Context, appointment *entities.Appointment, payment *entities.Payment) error {
	detail := fmt.Sprintf("appointment with provider %s at %s, transaction %s",
		appointment.ProviderID, appointment.ScheduledAt.Format(time.RFC3339), payment.TransactionID)

	if err := n.record(ctx, appointment, notificationBookingConfirmed, detail); err != nil {
		return err
	}
	return n.publish(ctx, appointment, entities.BookingEventBooked)
}

// BookingCancelled records and publishes a cancellation notice
func (n *NotificationService) BookingCancelled(ctx context.Context, appointment *entities.Appointment) error {
	detail := fmt.Sprintf("appointment with provider %s at %s cancelled",
		appointment.ProviderID, appointment.ScheduledAt.Format(time.RFC3339))

	if err := n.record(ctx, appointment, notificationBookingCancelled, detail); err != nil {
		return err
	}
	return n.publish(ctx, appointment, entities.BookingEventCancelled)
}

// PaymentRefunded records and publishes a refund notice
func (n *NotificationService) PaymentRefunded(ctx context.Context, payment *entities.Payment) error {
	detail := fmt.Sprintf("payment %s refunded, transaction %s", payment.ID, payment.TransactionID)

	record := notificationRecord{
		ID:            uuid.New().String(),
		AppointmentID: payment.AppointmentID,
		PatientID:     payment.PatientID,
		Kind:          notificationPaymentRefunded,
		Detail:        detail,
		CreatedAt:     time.Now(),
	}
	if err := n.insert(ctx, record); err != nil {
		return err
	}

	if n.bus == nil {
		return nil
	}
	return n.bus.Publish(ctx, providers.BookingChannel, &entities.BookingEvent{
		ID:            uuid.New().String(),
		Type:          entities.BookingEventRefunded,
		AppointmentID: payment.AppointmentID,
		PatientID:     payment.PatientID,
		OccurredAt:    time.Now(),
	})
}

func (n *NotificationService) record(ctx context.Context, appointment *entities.Appointment, kind, detail string) error {
	return n.insert(ctx, notificationRecord{
		ID:            uuid.New().String(),
		AppointmentID: appointment.ID,
		PatientID:     appointment.PatientID,
		Kind:          kind,
		Detail:        detail,
		CreatedAt:     time.Now(),
	})
}

func (n *NotificationService) insert(ctx context.Context, record notificationRecord) error {
	if n.db == nil {
		return nil
	}

	_, err := n.db.NamedExecContext(ctx, `
		INSERT INTO notification_log (id, appointment_id, patient_id, kind, detail, created_at)
		VALUES (:id, :appointment_id, :patient_id, :kind, :detail, :created_at)`,
		record)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

func (n *NotificationService) publish(ctx context.Context, appointment *entities.Appointment, eventType entities.BookingEventType) error {
	if n.bus == nil {
		return nil
	}

	event := &entities.BookingEvent{
		ID:            uuid.New().String(),
		Type:          eventType,
		AppointmentID: appointment.ID,
		PatientID:     appointment.PatientID,
		ProviderID:    appointment.ProviderID,
		ScheduledAt:   appointment.ScheduledAt,
		OccurredAt:    time.Now(),
	}
	if err := n.bus.Publish(ctx, providers.BookingChannel, event); err != nil {
		return err
	}
	// Per-provider channel for schedule dashboards.
	return n.bus.Publish(ctx, providers.ChannelForProvider(appointment.ProviderID), event)
}
