package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/event-registration/internal/auth"
	"github.com/Shivanand-hulikatti/event-registration/internal/model"
	"github.com/Shivanand-hulikatti/event-registration/internal/service"
)

// RegistrationHandler holds the HTTP handlers for registrations and payments.
type RegistrationHandler struct {
	registrations *service.RegistrationService
	payments      *service.PaymentService
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(registrations *service.RegistrationService, payments *service.PaymentService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, payments: payments}
}

// Register handles POST /events/{id}/registrations
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) (any, error) {
	var req model.RegistrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	details, err := h.registrations.Register(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		return nil, err
	}
	return Created(details), nil
}

// Validate handles POST /events/{id}/registrations/validate
// Runs every registration check without writing anything.
func (h *RegistrationHandler) Validate(w http.ResponseWriter, r *http.Request) (any, error) {
	var req model.RegistrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	return h.registrations.ValidateRegistration(r.Context(), chi.URLParam(r, "id"), req)
}

// ListByEvent handles GET /events/{id}/registrations
func (h *RegistrationHandler) ListByEvent(w http.ResponseWriter, r *http.Request) (any, error) {
	return h.registrations.ListRegistrations(r.Context(), auth.UserFrom(r.Context()), chi.URLParam(r, "id"))
}

// Get handles GET /registrations/{reservationId}
// Event managers may read any registration of their events; participants
// only their own.
func (h *RegistrationHandler) Get(w http.ResponseWriter, r *http.Request) (any, error) {
	return h.registrations.GetRegistration(r.Context(), auth.UserFrom(r.Context()), chi.URLParam(r, "reservationId"))
}

// ConfirmPayment handles POST /registrations/{reservationId}/payment
func (h *RegistrationHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) (any, error) {
	var req model.PaymentUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	return h.payments.ConfirmPayment(r.Context(), chi.URLParam(r, "reservationId"), req.Reference)
}
