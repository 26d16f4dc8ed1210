package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/zatekoja/hospital-booking-core/internal/domain/entities"
	"github.com/zatekoja/hospital-booking-core/internal/domain/providers"
	apperrors "github.com/zatekoja/hospital-booking-core/pkg/errors"
)

// InsuranceProcessor settles appointments covered by a patient's
// insurance policy against a simulated claims gateway.
type InsuranceProcessor struct{}

// NewInsuranceProcessor creates a new insurance processor
func NewInsuranceProcessor() *InsuranceProcessor {
	return &InsuranceProcessor{}
}

// Method returns the payment method this processor handles
func (p *InsuranceProcessor) Method() entities.PaymentMethod {
	return entities.PaymentMethodInsurance
}

// Instant reports that settlement goes through the claims gateway
func (p *InsuranceProcessor) Instant() bool {
	return false
}

// Validate requires a non-empty provider name and policy number
func (p *InsuranceProcessor) Validate(input providers.PaymentInput) error {
	if input.Insurance == nil {
		return apperrors.NewValidationError("insurance details are required")
	}
	if strings.TrimSpace(input.Insurance.Provider) == "" {
		return apperrors.NewValidationError("insurance provider is required")
	}
	if strings.TrimSpace(input.Insurance.PolicyNumber) == "" {
		return apperrors.NewValidationError("insurance policy number is required")
	}
	return nil
}

// Settle files the claim and returns an INS reference. The provider
// presence is re-checked here: validation and settlement are separate
// calls and the saga relies on settlement failing loudly, not silently.
func (p *InsuranceProcessor) Settle(ctx context.Context, amount float64, input providers.PaymentInput) (*providers.SettlementOutcome, error) {
	if input.Insurance == nil || strings.TrimSpace(input.Insurance.Provider) == "" {
		return nil, apperrors.NewSettlementError("insurance provider required", nil)
	}

	select {
	case <-ctx.Done():
		return nil, apperrors.NewSettlementError("insurance claim timed out", ctx.Err())
	default:
	}

	ref := NewReference(PrefixInsurance)
	return &providers.SettlementOutcome{
		Status:        entities.PaymentStatusCovered,
		TransactionID: ref,
		Insurance: &entities.InsuranceDetail{
			Provider:     input.Insurance.Provider,
			PolicyNumber: input.Insurance.PolicyNumber,
		},
		CoverageRef:     ref,
		GatewayResponse: fmt.Sprintf(`{"claim":"accepted","insurer":"%s","reference":"%s"}`, input.Insurance.Provider, ref),
	}, nil
}
