package payments

import (
	"fmt"

	"github.com/zatekoja/hospital-booking-core/internal/domain/entities"
	"github.com/zatekoja/hospital-booking-core/internal/domain/providers"
	apperrors "github.com/zatekoja/hospital-booking-core/pkg/errors"
)

// Registry resolves payment processors by method
type Registry struct {
	processors map[entities.PaymentMethod]providers.PaymentProcessor
}

// NewRegistry creates a registry over the given processors
func NewRegistry(procs ...providers.PaymentProcessor) *Registry {
	m := make(map[entities.PaymentMethod]providers.PaymentProcessor, len(procs))
	for _, p := range procs {
		m[p.Method()] = p
	}
	return &Registry{processors: m}
}

// NewDefaultRegistry creates a registry with all supported payment
// methods wired to their simulated gateways.
func NewDefaultRegistry(cardDeclineRate float64) *Registry {
	return NewRegistry(
		NewGovernmentProcessor(),
		NewInsuranceProcessor(),
		NewCashProcessor(),
		NewCardProcessor(RandomDecliner(cardDeclineRate)),
	)
}

// Resolve implements providers.ProcessorResolver
func (r *Registry) Resolve(method entities.PaymentMethod) (providers.PaymentProcessor, error) {
	p, ok := r.processors[method]
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported payment method: %s", method))
	}
	return p, nil
}
