package routes

import (
	"net/http"

	"github.com/zatekoja/hospital-booking-core/internal/api/handlers"
	"github.com/zatekoja/hospital-booking-core/internal/api/middleware"
	"github.com/zatekoja/hospital-booking-core/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	bookingHandler *handlers.BookingHandler
	slotHandler    *handlers.SlotHandler
	refundHandler  *handlers.RefundHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	bookingHandler *handlers.BookingHandler,
	slotHandler *handlers.SlotHandler,
	refundHandler *handlers.RefundHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		bookingHandler: bookingHandler,
		slotHandler:    slotHandler,
		refundHandler:  refundHandler,
		metrics:        metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Appointment endpoints
	r.mux.HandleFunc("POST /api/appointments", r.bookingHandler.BookAppointment)
	r.mux.HandleFunc("GET /api/appointments/{id}", r.bookingHandler.GetAppointment)
	r.mux.HandleFunc("POST /api/appointments/{id}/cancel", r.bookingHandler.CancelAppointment)
	r.mux.HandleFunc("GET /api/patients/{id}/appointments", r.bookingHandler.ListPatientAppointments)

	// Slot availability endpoints
	r.mux.HandleFunc("GET /api/providers/{id}/slots", r.slotHandler.ListSlots)

	// Payment endpoints
	r.mux.HandleFunc("POST /api/payments/{id}/refund", r.refundHandler.RefundPayment)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so headers are set on every response
	handler = middleware.CORSMiddleware(handler)

	return handler
}
