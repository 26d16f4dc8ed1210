package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/hospital-booking-core/internal/domain/entities"
)

// RefundService defines the interface for refund operations
type RefundService interface {
	Refund(ctx context.Context, paymentID string) (*entities.Payment, error)
}

// RefundHandler handles payment refund requests
type RefundHandler struct {
	service RefundService
}

// NewRefundHandler creates a new refund handler
func NewRefundHandler(service RefundService) *RefundHandler {
	return &RefundHandler{
		service: service,
	}
}

// RefundPayment handles POST /api/payments/{id}/refund
func (h *RefundHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := r.PathValue("id")
	if paymentID == "" {
		respondWithError(w, http.StatusBadRequest, "payment ID is required")
		return
	}

	payment, err := h.service.Refund(r.Context(), paymentID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, payment)
}
