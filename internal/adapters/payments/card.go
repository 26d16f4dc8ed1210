package payments

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/hospital-booking-core/internal/domain/entities"
	"github.com/zatekoja/hospital-booking-core/internal/domain/providers"
	apperrors "github.com/zatekoja/hospital-booking-core/pkg/errors"
)

// DeclineDecider decides whether the simulated gateway declines a card
// that passed validation. Injectable so tests can force either branch.
type DeclineDecider func() bool

// RandomDecliner declines with the given probability, modeling the
// gateway's risk-based declines.
func RandomDecliner(rate float64) DeclineDecider {
	return func() bool {
		return rand.Float64() < rate
	}
}

// NeverDecline approves every valid card
func NeverDecline() bool { return false }

// AlwaysDecline declines every card
func AlwaysDecline() bool { return true }

var (
	cardDigitsRe = regexp.MustCompile(`^\d{16}$`)
	cvvRe        = regexp.MustCompile(`^\d{3,4}$`)
	expiryRe     = regexp.MustCompile(`^(\d{2})/(\d{2})$`)
)

// CardProcessor settles card payments against a simulated gateway
type CardProcessor struct {
	decline DeclineDecider
}

// NewCardProcessor creates a card processor with the given decline decider
func NewCardProcessor(decline DeclineDecider) *CardProcessor {
	if decline == nil {
		decline = NeverDecline
	}
	return &CardProcessor{decline: decline}
}

// Method returns the payment method this processor handles
func (p *CardProcessor) Method() entities.PaymentMethod {
	return entities.PaymentMethodCard
}

// Instant reports that settlement goes through the card gateway
func (p *CardProcessor) Instant() bool {
	return false
}

// Validate checks number, expiry, CVV and holder name
func (p *CardProcessor) Validate(input providers.PaymentInput) error {
	card := input.Card
	if card == nil {
		return apperrors.NewValidationError("card details are required")
	}

	number := stripSeparators(card.Number)
	if !cardDigitsRe.MatchString(number) {
		return apperrors.NewValidationError("card number must be 16 digits")
	}

	if err := validateExpiry(card.Expiry, time.Now()); err != nil {
		return err
	}

	if !cvvRe.MatchString(card.CVV) {
		return apperrors.NewValidationError("cvv must be 3 or 4 digits")
	}

	if len(strings.TrimSpace(card.HolderName)) < 2 {
		return apperrors.NewValidationError("cardholder name is required")
	}

	return nil
}

// Settle charges the card. Declines surface as Settlement errors even
// for valid cards; the decline decider controls that branch.
func (p *CardProcessor) Settle(ctx context.Context, amount float64, input providers.PaymentInput) (*providers.SettlementOutcome, error) {
	if input.Card == nil {
		return nil, apperrors.NewSettlementError("card details missing at settlement", nil)
	}

	// Expiry is re-checked against settlement time, not validation time.
	if err := validateExpiry(input.Card.Expiry, time.Now()); err != nil {
		return nil, apperrors.NewSettlementError("card expired", err)
	}

	select {
	case <-ctx.Done():
		return nil, apperrors.NewSettlementError("card settlement timed out", ctx.Err())
	default:
	}

	if p.decline() {
		return nil, apperrors.NewSettlementError("declined by issuer", nil)
	}

	number := stripSeparators(input.Card.Number)
	ref := NewReference(PrefixCard)
	return &providers.SettlementOutcome{
		Status:        entities.PaymentStatusPaid,
		TransactionID: ref,
		Card: &entities.CardDetail{
			Brand: InferBrand(number),
			Last4: number[len(number)-4:],
		},
		GatewayResponse: fmt.Sprintf(`{"result":"approved","reference":"%s"}`, ref),
	}, nil
}

// InferBrand infers the card brand from the leading digits
func InferBrand(number string) string {
	switch {
	case strings.HasPrefix(number, "4"):
		return "Visa"
	case len(number) >= 2 && number[0] == '5' && number[1] >= '1' && number[1] <= '5':
		return "MasterCard"
	case strings.HasPrefix(number, "34") || strings.HasPrefix(number, "37"):
		return "Amex"
	case strings.HasPrefix(number, "6011") || strings.HasPrefix(number, "65"):
		return "Discover"
	default:
		return "Unknown"
	}
}

func stripSeparators(number string) string {
	replacer := strings.NewReplacer(" ", "", "-", "")
	return replacer.Replace(number)
}

func validateExpiry(expiry string, now time.Time) error {
	match := expiryRe.FindStringSubmatch(expiry)
	if match == nil {
		return apperrors.NewValidationError("expiry must be in MM/YY format")
	}

	month, _ := strconv.Atoi(match[1])
	year, _ := strconv.Atoi(match[2])
	if month < 1 || month > 12 {
		return apperrors.NewValidationError("expiry month out of range")
	}

	// The card is valid through the last instant of its expiry month.
	expiresAt := time.Date(2000+year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	if !now.Before(expiresAt) {
		return apperrors.NewValidationError("card is expired")
	}

	return nil
}
