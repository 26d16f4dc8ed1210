package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

const defaultSlotDurationMinutes = 30

// SlotService defines the interface for slot availability queries
type SlotService interface {
	ListAvailableSlots(ctx context.Context, providerID string, date time.Time, durationMinutes int) ([]time.Time, error)
}

// SlotHandler handles slot availability requests
type SlotHandler struct {
	service SlotService
}

// NewSlotHandler creates a new slot handler
func NewSlotHandler(service SlotService) *SlotHandler {
	return &SlotHandler{
		service: service,
	}
}

// ListSlots handles GET /api/providers/{id}/slots?date=YYYY-MM-DD&duration=30
func (h *SlotHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if providerID == "" {
		respondWithError(w, http.StatusBadRequest, "provider ID is required")
		return
	}

	dateParam := r.URL.Query().Get("date")
	if dateParam == "" {
		respondWithError(w, http.StatusBadRequest, "date query parameter is required")
		return
	}
	date, err := time.Parse("2006-01-02", dateParam)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "date must be in YYYY-MM-DD format")
		return
	}

	durationMinutes := defaultSlotDurationMinutes
	if durationParam := r.URL.Query().Get("duration"); durationParam != "" {
		durationMinutes, err = strconv.Atoi(durationParam)
		if err != nil || durationMinutes <= 0 {
			respondWithError(w, http.StatusBadRequest, "duration must be a positive number of minutes")
			return
		}
	}

	slots, err := h.service.ListAvailableSlots(r.Context(), providerID, date, durationMinutes)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"providerId": providerID,
		"date":       dateParam,
		"duration":   durationMinutes,
		"slots":      slots,
	})
}
