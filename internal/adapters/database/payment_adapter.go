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

// PaymentAdapter implements the PaymentRepository interface
type PaymentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPaymentAdapter creates a new payment adapter
func NewPaymentAdapter(client *postgres.Client) repositories.PaymentRepository {
	return &PaymentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create persists a new payment record, failed attempts included
func (a *PaymentAdapter) Create(ctx context.Context, payment *entities.Payment) error {
	record := goqu.Record{
		"id":               payment.ID,
		"appointment_id":   payment.AppointmentID,
		"patient_id":       payment.PatientID,
		"amount":           payment.Amount,
		"currency":         payment.Currency,
		"method":           payment.Method,
		"status":           payment.Status,
		"transaction_id":   payment.TransactionID,
		"coverage_ref":     payment.CoverageRef,
		"gateway_response": payment.GatewayResponse,
		"created_at":       payment.CreatedAt,
		"updated_at":       payment.UpdatedAt,
	}

	if payment.Card != nil {
		record["card_brand"] = payment.Card.Brand
		record["card_last4"] = payment.Card.Last4
	}
	if payment.Insurance != nil {
		record["insurance_provider"] = payment.Insurance.Provider
		record["insurance_policy_number"] = payment.Insurance.PolicyNumber
	}

	query, args, err := a.db.Insert("payments").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return apperrors.NewConflictError("payment already recorded for appointment")
		}
		return apperrors.NewInternalError("failed to create payment", err)
	}

	return nil
}

// GetByID retrieves a payment by ID
func (a *PaymentAdapter) GetByID(ctx context.Context, id string) (*entities.Payment, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("payment with id %s not found", id))
}

// GetByAppointmentID retrieves the payment referencing an appointment
func (a *PaymentAdapter) GetByAppointmentID(ctx context.Context, appointmentID string) (*entities.Payment, error) {
	return a.getOne(ctx, goqu.Ex{"appointment_id": appointmentID},
		fmt.Sprintf("payment for appointment %s not found", appointmentID))
}

// UpdateStatus transitions a payment's status
func (a *PaymentAdapter) UpdateStatus(ctx context.Context, id string, status entities.PaymentStatus) error {
	query, args, err := a.db.Update("payments").
		Set(goqu.Record{
			"status":     status,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update payment status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("payment with id %s not found", id))
	}

	return nil
}

func (a *PaymentAdapter) getOne(ctx context.Context, where goqu.Ex, notFoundMsg string) (*entities.Payment, error) {
	query, args, err := a.db.Select(
		"id", "appointment_id", "patient_id", "amount", "currency",
		"method", "status", "transaction_id", "card_brand", "card_last4",
		"insurance_provider", "insurance_policy_number", "coverage_ref",
		"gateway_response", "created_at", "updated_at",
	).From("payments").
		Where(where).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	payment := &entities.Payment{}
	var cardBrand, cardLast4 sql.NullString
	var insProvider, insPolicy sql.NullString
	var coverageRef, gatewayResponse sql.NullString

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&payment.ID,
		&payment.AppointmentID,
		&payment.PatientID,
		&payment.Amount,
		&payment.Currency,
		&payment.Method,
		&payment.Status,
		&payment.TransactionID,
		&cardBrand,
		&cardLast4,
		&insProvider,
		&insPolicy,
		&coverageRef,
		&gatewayResponse,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get payment", err)
	}

	if cardBrand.Valid || cardLast4.Valid {
		payment.Card = &entities.CardDetail{Brand: cardBrand.String, Last4: cardLast4.String}
	}
	if insProvider.Valid || insPolicy.Valid {
		payment.Insurance = &entities.InsuranceDetail{Provider: insProvider.String, PolicyNumber: insPolicy.String}
	}
	payment.CoverageRef = coverageRef.String
	payment.GatewayResponse = gatewayResponse.String

	return payment, nil
}
