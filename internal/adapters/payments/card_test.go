package payments

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/hospital-booking-core/internal/domain/entities"
	"github.com/zatekoja/hospital-booking-core/internal/domain/providers"
	apperrors "github.com/zatekoja/hospital-booking-core/pkg/errors"
)

func validCard() *providers.CardInput {
	return &providers.CardInput{
		Number:     "4242424242424242",
		Expiry:     "12/99",
		CVV:        "123",
		HolderName: "Jane Doe",
	}
}

func TestCardProcessor_Validate(t *testing.T) {
	processor := NewCardProcessor(NeverDecline)

	tests := []struct {
		name    string
		mutate  func(c *providers.CardInput)
		wantErr string
	}{
		{
			name:   "valid card",
			mutate: func(c *providers.CardInput) {},
		},
		{
			name:   "number with spaces",
			mutate: func(c *providers.CardInput) { c.Number = "4242 4242 4242 4242" },
		},
		{
			name:   "number with dashes",
			mutate: func(c *providers.CardInput) { c.Number = "4242-4242-4242-4242" },
		},
		{
			name:    "number too short",
			mutate:  func(c *providers.CardInput) { c.Number = "424242424242" },
			wantErr: "card number must be 16 digits",
		},
		{
			name:    "number with letters",
			mutate:  func(c *providers.CardInput) { c.Number = "4242abcd42424242" },
			wantErr: "card number must be 16 digits",
		},
		{
			name:    "expiry wrong format",
			mutate:  func(c *providers.CardInput) { c.Expiry = "2030-12" },
			wantErr: "expiry must be in MM/YY format",
		},
		{
			name:    "expiry month out of range",
			mutate:  func(c *providers.CardInput) { c.Expiry = "13/99" },
			wantErr: "expiry month out of range",
		},
		{
			name:    "expired card",
			mutate:  func(c *providers.CardInput) { c.Expiry = "01/20" },
			wantErr: "card is expired",
		},
		{
			name:    "cvv too short",
			mutate:  func(c *providers.CardInput) { c.CVV = "12" },
			wantErr: "cvv must be 3 or 4 digits",
		},
		{
			name:    "cvv too long",
			mutate:  func(c *providers.CardInput) { c.CVV = "12345" },
			wantErr: "cvv must be 3 or 4 digits",
		},
		{
			name:    "holder name blank",
			mutate:  func(c *providers.CardInput) { c.HolderName = "  " },
			wantErr: "cardholder name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := validCard()
			tt.mutate(card)

			err := processor.Validate(providers.PaymentInput{
				Method: entities.PaymentMethodCard,
				Card:   card,
			})

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCardProcessor_Validate_MissingCard(t *testing.T) {
	processor := NewCardProcessor(NeverDecline)

	err := processor.Validate(providers.PaymentInput{Method: entities.PaymentMethodCard})

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestCardProcessor_Settle_Approved(t *testing.T) {
	processor := NewCardProcessor(NeverDecline)

	outcome, err := processor.Settle(context.Background(), 150.0, providers.PaymentInput{
		Method: entities.PaymentMethodCard,
		Card:   validCard(),
	})

	require.NoError(t, err)
	assert.Equal(t, entities.PaymentStatusPaid, outcome.Status)
	assert.True(t, strings.HasPrefix(outcome.TransactionID, "TXN-"))
	require.NotNil(t, outcome.Card)
	assert.Equal(t, "Visa", outcome.Card.Brand)
	assert.Equal(t, "4242", outcome.Card.Last4)
	assert.Contains(t, outcome.GatewayResponse, "approved")
}

func TestCardProcessor_Settle_MasksSpacedNumber(t *testing.T) {
	processor := NewCardProcessor(NeverDecline)
	card := validCard()
	card.Number = "5105 1051 0510 5100"

	outcome, err := processor.Settle(context.Background(), 80.0, providers.PaymentInput{
		Method: entities.PaymentMethodCard,
		Card:   card,
	})

	require.NoError(t, err)
	assert.Equal(t, "MasterCard", outcome.Card.Brand)
	assert.Equal(t, "5100", outcome.Card.Last4)
}

func TestCardProcessor_Settle_Declined(t *testing.T) {
	processor := NewCardProcessor(AlwaysDecline)

	outcome, err := processor.Settle(context.Background(), 150.0, providers.PaymentInput{
		Method: entities.PaymentMethodCard,
		Card:   validCard(),
	})

	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSettlement))
	assert.Contains(t, err.Error(), "declined by issuer")
}

func TestCardProcessor_Settle_ExpiredAtSettlement(t *testing.T) {
	processor := NewCardProcessor(NeverDecline)
	card := validCard()
	card.Expiry = "01/21"

	_, err := processor.Settle(context.Background(), 150.0, providers.PaymentInput{
		Method: entities.PaymentMethodCard,
		Card:   card,
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSettlement))
	assert.Contains(t, err.Error(), "card expired")
}

func TestCardProcessor_Settle_CancelledContext(t *testing.T) {
	processor := NewCardProcessor(NeverDecline)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := processor.Settle(ctx, 150.0, providers.PaymentInput{
		Method: entities.PaymentMethodCard,
		Card:   validCard(),
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSettlement))
}

func TestRandomDecliner_Extremes(t *testing.T) {
	never := RandomDecliner(0)
	always := RandomDecliner(1)

	for i := 0; i < 100; i++ {
		assert.False(t, never())
		assert.True(t, always())
	}
}

func TestInferBrand(t *testing.T) {
	tests := []struct {
		number string
		brand  string
	}{
		{"4242424242424242", "Visa"},
		{"5105105105105100", "MasterCard"},
		{"5505105105105100", "MasterCard"},
		{"5605105105105100", "Unknown"},
		{"341051051051051", "Amex"},
		{"371051051051051", "Amex"},
		{"6011105105105100", "Discover"},
		{"6505105105105100", "Discover"},
		{"9999999999999999", "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.brand, InferBrand(tt.number), "number %s", tt.number)
	}
}
