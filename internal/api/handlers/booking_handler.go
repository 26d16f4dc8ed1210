package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/zatekoja/hospital-booking-core/internal/application/services"
	"github.com/zatekoja/hospital-booking-core/internal/domain/entities"
	"github.com/zatekoja/hospital-booking-core/internal/domain/providers"
	"github.com/zatekoja/hospital-booking-core/internal/domain/repositories"
)

// BookingService defines the interface for booking operations
type BookingService interface {
	Book(ctx context.Context, req *services.BookingRequest) (*services.BookingResult, error)
	Cancel(ctx context.Context, appointmentID string) (*entities.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*entities.Appointment, error)
	ListPatientAppointments(ctx context.Context, patientID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error)
}

// BookingHandler handles appointment booking requests
type BookingHandler struct {
	service BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(service BookingService) *BookingHandler {
	return &BookingHandler{
		service: service,
	}
}

type bookingRequestBody struct {
	PatientID        string                    `json:"patientId"`
	ProviderID       string                    `json:"providerId"`
	Department       string                    `json:"department"`
	StartTime        time.Time                 `json:"startTime"`
	DurationMinutes  int                       `json:"durationMinutes"`
	Reason           string                    `json:"reason"`
	PaymentMethod    string                    `json:"paymentMethod"`
	Amount           float64                   `json:"amount"`
	CardDetails      *providers.CardInput      `json:"cardDetails,omitempty"`
	InsuranceDetails *providers.InsuranceInput `json:"insuranceDetails,omitempty"`
}

// BookAppointment handles POST /api/appointments
func (h *BookingHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var body bookingRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.service.Book(r.Context(), &services.BookingRequest{
		PatientID:       body.PatientID,
		ProviderID:      body.ProviderID,
		Department:      body.Department,
		StartTime:       body.StartTime,
		DurationMinutes: body.DurationMinutes,
		Reason:          body.Reason,
		PaymentMethod:   entities.PaymentMethod(body.PaymentMethod),
		Amount:          body.Amount,
		Card:            body.CardDetails,
		Insurance:       body.InsuranceDetails,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, result)
}

// GetAppointment handles GET /api/appointments/{id}
func (h *BookingHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	appointment, err := h.service.GetAppointment(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, appointment)
}

// CancelAppointment handles POST /api/appointments/{id}/cancel
func (h *BookingHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	appointment, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, appointment)
}

// ListPatientAppointments handles GET /api/patients/{id}/appointments
func (h *BookingHandler) ListPatientAppointments(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	filter := repositories.AppointmentFilter{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = entities.AppointmentStatus(status)
	}

	appointments, err := h.service.ListPatientAppointments(r.Context(), patientID, filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": appointments,
	})
}
