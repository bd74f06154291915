package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Shivanand-hulikatti/event-registration/internal/apperr"
	"github.com/Shivanand-hulikatti/event-registration/internal/auth"
)

// RouteAuth configures authentication for one route.
type RouteAuth struct {
	// Required rejects requests without a token. Optional routes still
	// reject invalid tokens.
	Required bool
	// Roles lists the roles allowed on single-role routes.
	Roles  []auth.Role
	Policy *auth.Policy
	// RateLimit throttles clients by fingerprint. Scope names the counter;
	// routes sharing a scope share a budget.
	RateLimit *auth.RateRule
	Scope     string
}

// Authenticator runs rate limiting, session validation and access checks.
type Authenticator struct {
	sessions  auth.SessionValidator
	limiter   auth.RateLimiter
	responder *Responder
}

// NewAuthenticator constructs an Authenticator. limiter may be nil.
func NewAuthenticator(sessions auth.SessionValidator, limiter auth.RateLimiter, responder *Responder) *Authenticator {
	return &Authenticator{sessions: sessions, limiter: limiter, responder: responder}
}

// Middleware returns the chi middleware enforcing cfg.
func (a *Authenticator) Middleware(cfg RouteAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := a.authenticate(r, cfg)
			if err != nil {
				a.responder.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a *Authenticator) authenticate(r *http.Request, cfg RouteAuth) (context.Context, error) {
	ctx := r.Context()

	if cfg.RateLimit != nil && a.limiter != nil {
		scope := cfg.Scope
		if scope == "" {
			scope = r.Method + " " + r.URL.Path
		}
		allowed, err := a.limiter.Allow(ctx, scope+":"+auth.Fingerprint(r), *cfg.RateLimit)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable, allowing request")
		case !allowed:
			return nil, apperr.RateLimited("too many requests, try again later").WithDetails(map[string]any{
				"maxAttempts":   cfg.RateLimit.MaxAttempts,
				"windowSeconds": int64(cfg.RateLimit.Window.Seconds()),
			})
		}
	}

	needsUser := cfg.Required || len(cfg.Roles) > 0 || cfg.Policy != nil
	token := auth.ExtractBearerToken(r.Header)
	if token == "" {
		if needsUser {
			return nil, apperr.Authentication("no authentication token provided")
		}
		return ctx, nil
	}

	res, err := a.sessions.ValidateSession(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("validate session: %w", err)
	}
	if !res.Valid || res.User == nil {
		reason := res.Reason
		if reason == "" {
			reason = "invalid session"
		}
		return nil, apperr.Authentication(reason)
	}

	if len(cfg.Roles) > 0 {
		if err := auth.RequireRole(res.User, cfg.Roles...); err != nil {
			return nil, err
		}
	}
	if cfg.Policy != nil {
		if err := auth.Evaluate(res.User, *cfg.Policy); err != nil {
			return nil, err
		}
	}

	return auth.WithIdentity(ctx, auth.Identity{User: res.User, Session: res.Session}), nil
}
