package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/zatekoja/hospital-booking-core/internal/domain/entities"
	"github.com/zatekoja/hospital-booking-core/internal/domain/repositories"
	"github.com/zatekoja/hospital-booking-core/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/hospital-booking-core/pkg/errors"
)

const pqUniqueViolation = "23505"

// AppointmentAdapter implements the AppointmentRepository interface
type AppointmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(client *postgres.Client) repositories.AppointmentRepository {
	return &AppointmentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new appointment. A violation of the provider/slot
// uniqueness index means another request committed the slot first and is
// surfaced as a Conflict error.
func (a *AppointmentAdapter) Create(ctx context.Context, appointment *entities.Appointment) error {
	record := goqu.Record{
		"id":               appointment.ID,
		"patient_id":       appointment.PatientID,
		"provider_id":      appointment.ProviderID,
		"department":       appointment.Department,
		"scheduled_at":     appointment.ScheduledAt,
		"duration_minutes": appointment.DurationMinutes,
		"reason":           appointment.Reason,
		"status":           appointment.Status,
		"payment_state":    appointment.PaymentState,
		"payment_method":   appointment.PaymentMethod,
		"charged_amount":   appointment.ChargedAmount,
		"created_at":       appointment.CreatedAt,
		"updated_at":       appointment.UpdatedAt,
	}

	query, args, err := a.db.Insert("appointments").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return apperrors.NewConflictError("requested slot is no longer available")
		}
		return apperrors.NewInternalError("failed to create appointment", err)
	}

	return nil
}

// GetByID retrieves an appointment by ID
func (a *AppointmentAdapter) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	query, args, err := a.db.Select(appointmentColumns()...).
		From("appointments").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	appointment, err := scanAppointment(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get appointment", err)
	}

	return appointment, nil
}

// Delete removes an appointment. Used only by saga compensation.
func (a *AppointmentAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("appointments").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete appointment", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		// Already gone; compensation is idempotent.
		return nil
	}

	return nil
}

// Cancel marks an appointment cancelled, freeing its slot
func (a *AppointmentAdapter) Cancel(ctx context.Context, id string) error {
	query, args, err := a.db.Update("appointments").
		Set(goqu.Record{
			"status":     entities.AppointmentStatusCancelled,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build cancel query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to cancel appointment", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}

	return nil
}

// UpdatePaymentState updates the payment state recorded on an appointment
func (a *AppointmentAdapter) UpdatePaymentState(ctx context.Context, id string, state entities.PaymentState) error {
	query, args, err := a.db.Update("appointments").
		Set(goqu.Record{
			"payment_state": state,
			"updated_at":    time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update appointment payment state", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}

	return nil
}

// ListByProviderBetween retrieves the provider's non-cancelled
// appointments with scheduled_at in [from, to), ordered by start time
func (a *AppointmentAdapter) ListByProviderBetween(ctx context.Context, providerID string, from, to time.Time) ([]*entities.Appointment, error) {
	query, args, err := a.db.Select(appointmentColumns()...).
		From("appointments").
		Where(
			goqu.Ex{"provider_id": providerID},
			goqu.C("status").Neq(entities.AppointmentStatusCancelled),
			goqu.C("scheduled_at").Gte(from),
			goqu.C("scheduled_at").Lt(to),
		).
		Order(goqu.C("scheduled_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryAppointments(ctx, query, args)
}

// ListByPatient retrieves appointments for a patient
func (a *AppointmentAdapter) ListByPatient(ctx context.Context, patientID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	ds := a.db.Select(appointmentColumns()...).
		From("appointments").
		Where(goqu.Ex{"patient_id": patientID})

	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": filter.Status})
	}
	if filter.From != nil {
		ds = ds.Where(goqu.C("scheduled_at").Gte(*filter.From))
	}
	if filter.To != nil {
		ds = ds.Where(goqu.C("scheduled_at").Lt(*filter.To))
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.Order(goqu.C("scheduled_at").Asc()).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryAppointments(ctx, query, args)
}

func (a *AppointmentAdapter) queryAppointments(ctx context.Context, query string, args []interface{}) ([]*entities.Appointment, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list appointments", err)
	}
	defer rows.Close()

	var appointments []*entities.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan appointment", err)
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate appointments", err)
	}

	return appointments, nil
}

func appointmentColumns() []interface{} {
	return []interface{}{
		"id", "patient_id", "provider_id", "department", "scheduled_at",
		"duration_minutes", "reason", "status", "payment_state",
		"payment_method", "charged_amount", "created_at", "updated_at",
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*entities.Appointment, error) {
	appointment := &entities.Appointment{}
	var department, reason sql.NullString

	err := row.Scan(
		&appointment.ID,
		&appointment.PatientID,
		&appointment.ProviderID,
		&department,
		&appointment.ScheduledAt,
		&appointment.DurationMinutes,
		&reason,
		&appointment.Status,
		&appointment.PaymentState,
		&appointment.PaymentMethod,
		&appointment.ChargedAmount,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	appointment.Department = department.String
	appointment.Reason = reason.String
	return appointment, nil
}
