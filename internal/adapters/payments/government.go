package payments

import (
	"context"
	"fmt"

	"github.com/zatekoja/hospital-booking-core/internal/domain/entities"
	"github.com/zatekoja/hospital-booking-core/internal/domain/providers"
)

// GovernmentProcessor settles appointments covered by the national
// coverage scheme. Settlement is local: eligibility was established
// upstream, so no gateway round trip happens here.
type GovernmentProcessor struct{}

// NewGovernmentProcessor creates a new government coverage processor
func NewGovernmentProcessor() *GovernmentProcessor {
	return &GovernmentProcessor{}
}

// Method returns the payment method this processor handles
func (p *GovernmentProcessor) Method() entities.PaymentMethod {
	return entities.PaymentMethodGovernment
}

// Instant reports that settlement is local and immediate
func (p *GovernmentProcessor) Instant() bool {
	return true
}

// Validate is a no-op: coverage needs no caller-supplied detail
func (p *GovernmentProcessor) Validate(input providers.PaymentInput) error {
	return nil
}

// Settle records the coverage and returns a GOV reference
func (p *GovernmentProcessor) Settle(ctx context.Context, amount float64, input providers.PaymentInput) (*providers.SettlementOutcome, error) {
	ref := NewReference(PrefixGovernment)
	return &providers.SettlementOutcome{
		Status:          entities.PaymentStatusCovered,
		TransactionID:   ref,
		CoverageRef:     ref,
		GatewayResponse: fmt.Sprintf(`{"scheme":"government","reference":"%s"}`, ref),
	}, nil
}
