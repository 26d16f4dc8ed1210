package payments

import (
	"context"
	"fmt"

	"github.com/zatekoja/hospital-booking-core/internal/domain/entities"
	"github.com/zatekoja/hospital-booking-core/internal/domain/providers"
)

// CashProcessor handles pay-at-desk bookings. The money is collected in
// person later, so settlement records a pending payment with a CASH
// reference for the front desk to reconcile against.
type CashProcessor struct{}

// NewCashProcessor creates a new cash processor
func NewCashProcessor() *CashProcessor {
	return &CashProcessor{}
}

// Method returns the payment method this processor handles
func (p *CashProcessor) Method() entities.PaymentMethod {
	return entities.PaymentMethodCash
}

// Instant reports that settlement is local and immediate
func (p *CashProcessor) Instant() bool {
	return true
}

// Validate is a no-op: cash needs no caller-supplied detail
func (p *CashProcessor) Validate(input providers.PaymentInput) error {
	return nil
}

// Settle records the pending collection and returns a CASH reference
func (p *CashProcessor) Settle(ctx context.Context, amount float64, input providers.PaymentInput) (*providers.SettlementOutcome, error) {
	ref := NewReference(PrefixCash)
	return &providers.SettlementOutcome{
		Status:          entities.PaymentStatusPending,
		TransactionID:   ref,
		GatewayResponse: fmt.Sprintf(`{"collection":"at_desk","reference":"%s"}`, ref),
	}, nil
}
