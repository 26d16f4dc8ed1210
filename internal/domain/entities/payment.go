package entities

import (
	"time"
)

// PaymentMethod represents how an appointment is paid for
type PaymentMethod string

const (
	PaymentMethodGovernment PaymentMethod = "government"
	PaymentMethodInsurance  PaymentMethod = "insurance"
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodCard       PaymentMethod = "card"
)

// KnownPaymentMethod reports whether m is one of the supported methods
func KnownPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodGovernment, PaymentMethodInsurance, PaymentMethodCash, PaymentMethodCard:
		return true
	}
	return false
}

// PaymentStatus represents the status of a payment record
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusCovered  PaymentStatus = "covered"
)

// CardDetail is the masked card summary stored with a card payment.
// The raw card number never reaches the persistence layer.
type CardDetail struct {
	Brand string `json:"brand" db:"card_brand"`
	Last4 string `json:"last4" db:"card_last4"`
}

// InsuranceDetail identifies the insurance policy a payment was covered by
type InsuranceDetail struct {
	Provider     string `json:"provider" db:"insurance_provider"`
	PolicyNumber string `json:"policy_number" db:"insurance_policy_number"`
}

// Payment represents a settlement attempt for an appointment.
//
// Exactly one Payment exists per Appointment, failed attempts included:
// a declined settlement still persists a row with status "failed" so the
// attempt stays auditable. Payments are never deleted.
type Payment struct {
	ID              string           `json:"id" db:"id"`
	AppointmentID   string           `json:"appointment_id" db:"appointment_id"`
	PatientID       string           `json:"patient_id" db:"patient_id"`
	Amount          float64          `json:"amount" db:"amount"`
	Currency        string           `json:"currency" db:"currency"`
	Method          PaymentMethod    `json:"method" db:"method"`
	Status          PaymentStatus    `json:"status" db:"status"`
	TransactionID   string           `json:"transaction_id" db:"transaction_id"`
	Card            *CardDetail      `json:"card,omitempty"`
	Insurance       *InsuranceDetail `json:"insurance,omitempty"`
	CoverageRef     string           `json:"coverage_ref,omitempty" db:"coverage_ref"`
	GatewayResponse string           `json:"gateway_response,omitempty" db:"gateway_response"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}
