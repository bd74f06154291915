// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"

	"github.com/Shivanand-hulikatti/event-registration/internal/apperr"
	"github.com/Shivanand-hulikatti/event-registration/internal/auth"
	"github.com/Shivanand-hulikatti/event-registration/internal/model"
	"github.com/Shivanand-hulikatti/event-registration/internal/service"
)

// EventHandler holds the HTTP handlers for events.
type EventHandler struct {
	svc     *service.EventService
	decoder *schema.Decoder
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{svc: svc, decoder: newQueryDecoder()}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// pageQuery is the query string shared by paginated listings.
type pageQuery struct {
	Limit     *int   `schema:"limit"`
	NextToken string `schema:"nextToken"`
}

func decodeQuery(d *schema.Decoder, r *http.Request, dst any) error {
	if err := d.Decode(dst, r.URL.Query()); err != nil {
		return apperr.BadRequest("invalid query parameters").WithCause(err)
	}
	return nil
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) (any, error) {
	return map[string]string{"status": "ok"}, nil
}

// ListEvents handles GET /events
// Filters by type, else difficulty, else lists enabled events.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) (any, error) {
	var q service.ListEventsQuery
	if err := decodeQuery(h.decoder, r, &q); err != nil {
		return nil, err
	}
	return h.svc.ListEvents(r.Context(), q)
}

// ListFeatured handles GET /events/featured
func (h *EventHandler) ListFeatured(w http.ResponseWriter, r *http.Request) (any, error) {
	var q pageQuery
	if err := decodeQuery(h.decoder, r, &q); err != nil {
		return nil, err
	}
	return h.svc.ListFeatured(r.Context(), q.Limit, q.NextToken)
}

// GetEvent handles GET /events/{id}, where id is the event slug.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) (any, error) {
	return h.svc.GetEventBySlug(r.Context(), chi.URLParam(r, "id"))
}

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) (any, error) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	event, err := h.svc.CreateEvent(r.Context(), auth.UserFrom(r.Context()), req)
	if err != nil {
		return nil, err
	}
	return Created(event), nil
}

// UpdateEvent handles PATCH /events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) (any, error) {
	var req model.UpdateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	return h.svc.UpdateEvent(r.Context(), auth.UserFrom(r.Context()), chi.URLParam(r, "id"), req)
}

// DisableEvent handles DELETE /events/{id}. Events are soft-disabled, never removed.
func (h *EventHandler) DisableEvent(w http.ResponseWriter, r *http.Request) (any, error) {
	return h.svc.SetEnabled(r.Context(), auth.UserFrom(r.Context()), chi.URLParam(r, "id"), false)
}

// MyEvents handles GET /me/events
func (h *EventHandler) MyEvents(w http.ResponseWriter, r *http.Request) (any, error) {
	var q pageQuery
	if err := decodeQuery(h.decoder, r, &q); err != nil {
		return nil, err
	}
	user := auth.UserFrom(r.Context())
	if user == nil {
		return nil, apperr.Authentication("no authentication token provided")
	}
	return h.svc.ListByCreator(r.Context(), user.ID, q.Limit, q.NextToken)
}

// OrganizerEvents handles GET /organizers/{organizerId}/events
func (h *EventHandler) OrganizerEvents(w http.ResponseWriter, r *http.Request) (any, error) {
	var q pageQuery
	if err := decodeQuery(h.decoder, r, &q); err != nil {
		return nil, err
	}
	return h.svc.ListByOrganizer(r.Context(), chi.URLParam(r, "organizerId"), q.Limit, q.NextToken)
}
