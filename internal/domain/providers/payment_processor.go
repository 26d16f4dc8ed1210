package providers

import (
	"context"

	"github.com/zatekoja/hospital-booking-core/internal/domain/entities"
)

// CardInput carries the raw card details submitted with a booking
// request. It is validated and masked by the card processor and is never
// persisted as-is.
type CardInput struct {
	Number     string `json:"number"`
	Expiry     string `json:"expiry"` // MM/YY
	CVV        string `json:"cvv"`
	HolderName string `json:"holder_name"`
}

// InsuranceInput carries the insurance details submitted with a booking request
type InsuranceInput struct {
	Provider     string `json:"provider"`
	PolicyNumber string `json:"policy_number"`
}

// PaymentInput is the method-specific payment data for a booking request
type PaymentInput struct {
	Method    entities.PaymentMethod
	Card      *CardInput
	Insurance *InsuranceInput
}

// SettlementOutcome is the result of a successful settlement
type SettlementOutcome struct {
	Status          entities.PaymentStatus
	TransactionID   string
	Card            *entities.CardDetail
	Insurance       *entities.InsuranceDetail
	CoverageRef     string
	GatewayResponse string
}

// PaymentProcessor defines the interface for a payment method backend.
// Validate is a pure check on the input; Settle performs the settlement
// and must honor ctx cancellation.
type PaymentProcessor interface {
	// Method returns the payment method this processor handles
	Method() entities.PaymentMethod

	// Instant reports whether settlement is local and immediate. The
	// booking saga skips the timeout-guarded settlement step for instant
	// processors.
	Instant() bool

	// Validate checks method-specific input before any record is written
	Validate(input PaymentInput) error

	// Settle executes the settlement and returns its outcome. A decline
	// returns a Settlement error; the caller owns the audit record.
	Settle(ctx context.Context, amount float64, input PaymentInput) (*SettlementOutcome, error)
}

// ProcessorResolver resolves the processor for a payment method
type ProcessorResolver interface {
	// Resolve returns the processor for the method, or a Validation
	// error for unsupported methods
	Resolve(method entities.PaymentMethod) (PaymentProcessor, error)
}
