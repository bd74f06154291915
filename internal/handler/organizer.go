package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/event-registration/internal/auth"
	"github.com/Shivanand-hulikatti/event-registration/internal/model"
	"github.com/Shivanand-hulikatti/event-registration/internal/service"
)

// OrganizerHandler holds the HTTP handlers for organizers.
type OrganizerHandler struct {
	svc *service.OrganizerService
}

func NewOrganizerHandler(svc *service.OrganizerService) *OrganizerHandler {
	return &OrganizerHandler{svc: svc}
}

// Create handles POST /organizers
func (h *OrganizerHandler) Create(w http.ResponseWriter, r *http.Request) (any, error) {
	var req model.CreateOrganizerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	org, err := h.svc.Create(r.Context(), auth.UserFrom(r.Context()), req)
	if err != nil {
		return nil, err
	}
	return Created(org), nil
}

// Mine handles GET /organizers/me
func (h *OrganizerHandler) Mine(w http.ResponseWriter, r *http.Request) (any, error) {
	return h.svc.GetMine(r.Context(), auth.UserFrom(r.Context()))
}

// Get handles GET /organizers/{organizerId}
func (h *OrganizerHandler) Get(w http.ResponseWriter, r *http.Request) (any, error) {
	return h.svc.Get(r.Context(), chi.URLParam(r, "organizerId"))
}

// Update handles PATCH /organizers/{organizerId}
func (h *OrganizerHandler) Update(w http.ResponseWriter, r *http.Request) (any, error) {
	var req model.UpdateOrganizerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	return h.svc.Update(r.Context(), auth.UserFrom(r.Context()), chi.URLParam(r, "organizerId"), req)
}

// Delete handles DELETE /organizers/{organizerId}
func (h *OrganizerHandler) Delete(w http.ResponseWriter, r *http.Request) (any, error) {
	organizerID := chi.URLParam(r, "organizerId")
	if err := h.svc.Delete(r.Context(), auth.UserFrom(r.Context()), organizerID); err != nil {
		return nil, err
	}
	return map[string]any{"id": organizerID, "deleted": true}, nil
}
