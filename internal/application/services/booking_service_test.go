package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/hospital-booking-core/internal/adapters/payments"
	"github.com/zatekoja/hospital-booking-core/internal/application/services"
	"github.com/zatekoja/hospital-booking-core/internal/domain/entities"
	"github.com/zatekoja/hospital-booking-core/internal/domain/providers"
	apperrors "github.com/zatekoja/hospital-booking-core/pkg/errors"
)

// futureSlot returns 10:00 on the next weekday, always in the future
func futureSlot() time.Time {
	day := time.Now().AddDate(0, 0, 1)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, day.Location())
}

type bookingFixture struct {
	appointments *MockAppointmentRepository
	payments     *MockPaymentRepository
	service      *services.BookingService
}

func newBookingFixture(decline payments.DeclineDecider) *bookingFixture {
	appointments := new(MockAppointmentRepository)
	paymentRepo := new(MockPaymentRepository)

	registry := payments.NewRegistry(
		payments.NewGovernmentProcessor(),
		payments.NewInsuranceProcessor(),
		payments.NewCashProcessor(),
		payments.NewCardProcessor(decline),
	)

	slots := services.NewSlotService(appointments, nil, 0)
	service := services.NewBookingService(
		appointments, paymentRepo, slots, registry, nil, nil, "USD", time.Second,
	)

	return &bookingFixture{
		appointments: appointments,
		payments:     paymentRepo,
		service:      service,
	}
}

func (f *bookingFixture) freeDay() {
	f.appointments.On("ListByProviderBetween", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*entities.Appointment{}, nil)
}

func (f *bookingFixture) capturePayments() *[]*entities.Payment {
	captured := &[]*entities.Payment{}
	f.payments.On("Create", mock.Anything, mock.AnythingOfType("*entities.Payment")).
		Run(func(args mock.Arguments) {
			*captured = append(*captured, args.Get(1).(*entities.Payment))
		}).
		Return(nil)
	return captured
}

func baseRequest(method entities.PaymentMethod) *services.BookingRequest {
	return &services.BookingRequest{
		PatientID:       "pat-1",
		ProviderID:      "prov-1",
		Department:      "cardiology",
		StartTime:       futureSlot(),
		DurationMinutes: 30,
		Reason:          "checkup",
		PaymentMethod:   method,
		Amount:          120.0,
	}
}

func TestBookingService_Book_GovernmentCoverage(t *testing.T) {
	f := newBookingFixture(payments.NeverDecline)
	f.freeDay()
	f.appointments.On("Create", mock.Anything, mock.AnythingOfType("*entities.Appointment")).Return(nil)
	captured := f.capturePayments()

	result, err := f.service.Book(context.Background(), baseRequest(entities.PaymentMethodGovernment))

	require.NoError(t, err)
	require.Len(t, *captured, 1)
	payment := (*captured)[0]
	assert.Equal(t, entities.PaymentStatusCovered, payment.Status)
	assert.True(t, strings.HasPrefix(payment.TransactionID, "GOV-"))
	assert.Equal(t, payment.TransactionID, result.TransactionID)
	assert.Equal(t, entities.PaymentStateCovered, result.Appointment.PaymentState)

	// Coverage starts covered and stays covered, so no second write
	f.appointments.AssertNotCalled(t, "UpdatePaymentState", mock.Anything, mock.Anything, mock.Anything)
	f.appointments.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestBookingService_Book_CashStaysPending(t *testing.T) {
	f := newBookingFixture(payments.NeverDecline)
	f.freeDay()
	f.appointments.On("Create", mock.Anything, mock.AnythingOfType("*entities.Appointment")).Return(nil)
	captured := f.capturePayments()

	result, err := f.service.Book(context.Background(), baseRequest(entities.PaymentMethodCash))

	require.NoError(t, err)
	require.Len(t, *captured, 1)
	assert.Equal(t, entities.PaymentStatusPending, (*captured)[0].Status)
	assert.True(t, strings.HasPrefix(result.TransactionID, "CASH-"))
	assert.Equal(t, entities.PaymentStatePending, result.Appointment.PaymentState)
}

func TestBookingService_Book_CardApproved(t *testing.T) {
	f := newBookingFixture(payments.NeverDecline)
	f.freeDay()
	f.appointments.On("Create", mock.Anything, mock.AnythingOfType("*entities.Appointment")).Return(nil)
	f.appointments.On("UpdatePaymentState", mock.Anything, mock.Anything, entities.PaymentStatePaid).Return(nil)
	captured := f.capturePayments()

	req := baseRequest(entities.PaymentMethodCard)
	req.Card = &providers.CardInput{
		Number:     "4242424242424242",
		Expiry:     "12/99",
		CVV:        "123",
		HolderName: "Jane Doe",
	}

	result, err := f.service.Book(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, *captured, 1)
	payment := (*captured)[0]
	assert.Equal(t, entities.PaymentStatusPaid, payment.Status)
	assert.True(t, strings.HasPrefix(payment.TransactionID, "TXN-"))
	require.NotNil(t, payment.Card)
	assert.Equal(t, "4242", payment.Card.Last4)
	assert.Equal(t, entities.PaymentStatePaid, result.Appointment.PaymentState)
	f.appointments.AssertCalled(t, "UpdatePaymentState", mock.Anything, result.Appointment.ID, entities.PaymentStatePaid)
}

func TestBookingService_Book_InsuranceCovered(t *testing.T) {
	f := newBookingFixture(payments.NeverDecline)
	f.freeDay()
	f.appointments.On("Create", mock.Anything, mock.AnythingOfType("*entities.Appointment")).Return(nil)
	f.appointments.On("UpdatePaymentState", mock.Anything, mock.Anything, entities.PaymentStateCovered).Return(nil)
	captured := f.capturePayments()

	req := baseRequest(entities.PaymentMethodInsurance)
	req.Insurance = &providers.InsuranceInput{Provider: "Acme Health", PolicyNumber: "POL-9"}

	result, err := f.service.Book(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, *captured, 1)
	payment := (*captured)[0]
	assert.Equal(t, entities.PaymentStatusCovered, payment.Status)
	assert.True(t, strings.HasPrefix(result.TransactionID, "INS-"))
	require.NotNil(t, payment.Insurance)
	assert.Equal(t, "POL-9", payment.Insurance.PolicyNumber)
}

func TestBookingService_Book_InvalidCardHaltsBeforeAnyWrite(t *testing.T) {
	f := newBookingFixture(payments.NeverDecline)
	f.freeDay()

	req := baseRequest(entities.PaymentMethodCard)
	req.Card = &providers.CardInput{
		Number:     "4242424242424242",
		Expiry:     "12/99",
		CVV:        "12", // too short
		HolderName: "Jane Doe",
	}

	_, err := f.service.Book(context.Background(), req)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	f.appointments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookingService_Book_DeclineRollsBack(t *testing.T) {
	f := newBookingFixture(payments.AlwaysDecline)
	f.freeDay()
	f.appointments.On("Create", mock.Anything, mock.AnythingOfType("*entities.Appointment")).Return(nil)
	f.appointments.On("Delete", mock.Anything, mock.Anything).Return(nil)
	captured := f.capturePayments()

	req := baseRequest(entities.PaymentMethodCard)
	req.Card = &providers.CardInput{
		Number:     "4242424242424242",
		Expiry:     "12/99",
		CVV:        "123",
		HolderName: "Jane Doe",
	}

	_, err := f.service.Book(context.Background(), req)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSettlement))
	assert.Contains(t, err.Error(), "declined by issuer")

	// The provisional appointment is compensated and the failed attempt
	// stays on record.
	f.appointments.AssertCalled(t, "Delete", mock.Anything, mock.Anything)
	require.Len(t, *captured, 1)
	failed := (*captured)[0]
	assert.Equal(t, entities.PaymentStatusFailed, failed.Status)
	assert.True(t, strings.HasPrefix(failed.TransactionID, "FAIL-"))
	assert.Contains(t, failed.GatewayResponse, "declined by issuer")
}

func TestBookingService_Book_SlotTakenIsConflict(t *testing.T) {
	f := newBookingFixture(payments.NeverDecline)
	start := futureSlot()
	f.appointments.On("ListByProviderBetween", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*entities.Appointment{{
			ID:              "appt-existing",
			ProviderID:      "prov-1",
			ScheduledAt:     start,
			DurationMinutes: 30,
			Status:          entities.AppointmentStatusScheduled,
		}}, nil)

	_, err := f.service.Book(context.Background(), baseRequest(entities.PaymentMethodCash))

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	f.appointments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookingService_Book_CommitRaceLoserGetsConflict(t *testing.T) {
	f := newBookingFixture(payments.NeverDecline)
	f.freeDay()
	f.appointments.On("Create", mock.Anything, mock.AnythingOfType("*entities.Appointment")).
		Return(apperrors.NewConflictError("requested slot is no longer available"))

	_, err := f.service.Book(context.Background(), baseRequest(entities.PaymentMethodCash))

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookingService_Book_CompensationFailureIsFatal(t *testing.T) {
	f := newBookingFixture(payments.AlwaysDecline)
	f.freeDay()
	f.appointments.On("Create", mock.Anything, mock.AnythingOfType("*entities.Appointment")).Return(nil)
	f.appointments.On("Delete", mock.Anything, mock.Anything).
		Return(apperrors.NewInternalError("store unavailable", nil))
	f.payments.On("Create", mock.Anything, mock.AnythingOfType("*entities.Payment")).Return(nil)

	req := baseRequest(entities.PaymentMethodCard)
	req.Card = &providers.CardInput{
		Number:     "4242424242424242",
		Expiry:     "12/99",
		CVV:        "123",
		HolderName: "Jane Doe",
	}

	_, err := f.service.Book(context.Background(), req)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeCompensation))
}

func TestBookingService_Book_RequestValidation(t *testing.T) {
	f := newBookingFixture(payments.NeverDecline)

	tests := []struct {
		name   string
		mutate func(r *services.BookingRequest)
	}{
		{"missing patient", func(r *services.BookingRequest) { r.PatientID = "" }},
		{"missing provider", func(r *services.BookingRequest) { r.ProviderID = "" }},
		{"zero duration", func(r *services.BookingRequest) { r.DurationMinutes = 0 }},
		{"negative amount", func(r *services.BookingRequest) { r.Amount = -1 }},
		{"past start time", func(r *services.BookingRequest) { r.StartTime = time.Now().Add(-time.Hour) }},
		{"unknown method", func(r *services.BookingRequest) { r.PaymentMethod = "crypto" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest(entities.PaymentMethodCash)
			tt.mutate(req)

			_, err := f.service.Book(context.Background(), req)

			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		})
	}

	f.appointments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookingService_Cancel(t *testing.T) {
	f := newBookingFixture(payments.NeverDecline)
	appointment := &entities.Appointment{
		ID:              "appt-1",
		ProviderID:      "prov-1",
		ScheduledAt:     futureSlot(),
		DurationMinutes: 30,
		Status:          entities.AppointmentStatusScheduled,
	}
	f.appointments.On("GetByID", mock.Anything, "appt-1").Return(appointment, nil)
	f.appointments.On("Cancel", mock.Anything, "appt-1").Return(nil)

	cancelled, err := f.service.Cancel(context.Background(), "appt-1")

	require.NoError(t, err)
	assert.Equal(t, entities.AppointmentStatusCancelled, cancelled.Status)
}

func TestBookingService_Cancel_AlreadyCancelledIsIdempotent(t *testing.T) {
	f := newBookingFixture(payments.NeverDecline)
	appointment := &entities.Appointment{
		ID:     "appt-1",
		Status: entities.AppointmentStatusCancelled,
	}
	f.appointments.On("GetByID", mock.Anything, "appt-1").Return(appointment, nil)

	cancelled, err := f.service.Cancel(context.Background(), "appt-1")

	require.NoError(t, err)
	assert.Equal(t, entities.AppointmentStatusCancelled, cancelled.Status)
	f.appointments.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
}
