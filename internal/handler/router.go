package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Shivanand-hulikatti/event-registration/internal/apperr"
	"github.com/Shivanand-hulikatti/event-registration/internal/auth"
)

// Per-fingerprint budgets for the write endpoints open to the public.
var (
	CreateEventLimit = auth.RateRule{MaxAttempts: 20, Window: time.Minute}
	RegisterLimit    = auth.RateRule{MaxAttempts: 10, Window: time.Minute}
	ValidateLimit    = auth.RateRule{MaxAttempts: 30, Window: time.Minute}
)

// RouterConfig holds everything NewRouter mounts.
type RouterConfig struct {
	Responder     *Responder
	Auth          *Authenticator
	Events        *EventHandler
	Organizers    *OrganizerHandler
	Registrations *RegistrationHandler
	// Metrics is served at /metrics when set.
	Metrics http.Handler
}

// NewRouter builds the chi router for the API.
func NewRouter(cfg RouterConfig) http.Handler {
	rs := cfg.Responder
	guard := cfg.Auth.Middleware
	wrap := rs.Wrap

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logger)
	r.Use(rs.CORS)

	r.NotFound(wrap(func(w http.ResponseWriter, r *http.Request) (any, error) {
		return nil, apperr.NotFound("route not found")
	}))
	r.MethodNotAllowed(wrap(func(w http.ResponseWriter, r *http.Request) (any, error) {
		return nil, apperr.New(apperr.KindBadRequest, "method not allowed")
	}, OverrideStatus(apperr.KindBadRequest, http.StatusMethodNotAllowed)))

	r.Get("/health", wrap(Health))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/events", func(r chi.Router) {
		r.Get("/", wrap(cfg.Events.ListEvents))
		r.Get("/featured", wrap(cfg.Events.ListFeatured))
		r.With(guard(RouteAuth{
			Required:  true,
			Policy:    &auth.Policy{Roles: []auth.Role{auth.RoleOrganizer, auth.RoleAdmin}, Permissions: []auth.Permission{auth.PermEventsCreate}, RequireAll: true},
			RateLimit: &CreateEventLimit,
			Scope:     "events:create",
		})).Post("/", wrap(cfg.Events.CreateEvent))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", wrap(cfg.Events.GetEvent))

			editor := guard(RouteAuth{Required: true, Policy: &auth.Policy{Permissions: []auth.Permission{auth.PermEventsUpdate}}})
			r.With(editor).Patch("/", wrap(cfg.Events.UpdateEvent))
			r.With(editor).Delete("/", wrap(cfg.Events.DisableEvent))

			r.With(guard(RouteAuth{RateLimit: &RegisterLimit, Scope: "registrations:create"})).
				Post("/registrations", wrap(cfg.Registrations.Register))
			r.With(guard(RouteAuth{RateLimit: &ValidateLimit, Scope: "registrations:validate"})).
				Post("/registrations/validate", wrap(cfg.Registrations.Validate))
			r.With(guard(RouteAuth{Required: true, Policy: &auth.Policy{Permissions: []auth.Permission{auth.PermRegistrationsRead}}})).
				Get("/registrations", wrap(cfg.Registrations.ListByEvent))
		})
	})

	r.Route("/registrations/{reservationId}", func(r chi.Router) {
		r.With(guard(RouteAuth{Required: true})).Get("/", wrap(cfg.Registrations.Get))
		r.With(guard(RouteAuth{Required: true, Policy: &auth.Policy{Permissions: []auth.Permission{auth.PermPaymentsUpdate}}})).
			Post("/payment", wrap(cfg.Registrations.ConfirmPayment))
	})

	r.Route("/organizers", func(r chi.Router) {
		signedIn := guard(RouteAuth{Required: true})
		r.With(signedIn).Post("/", wrap(cfg.Organizers.Create))
		r.With(signedIn).Get("/me", wrap(cfg.Organizers.Mine))
		r.Get("/{organizerId}", wrap(cfg.Organizers.Get))
		r.Get("/{organizerId}/events", wrap(cfg.Events.OrganizerEvents))
		r.With(signedIn).Patch("/{organizerId}", wrap(cfg.Organizers.Update))
		r.With(signedIn).Delete("/{organizerId}", wrap(cfg.Organizers.Delete))
	})

	r.With(guard(RouteAuth{Required: true})).Get("/me/events", wrap(cfg.Events.MyEvents))

	return r
}
