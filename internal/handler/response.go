package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Shivanand-hulikatti/event-registration/internal/apperr"
	"github.com/Shivanand-hulikatti/event-registration/internal/model"
)

// APIFunc is a route handler whose result is rendered by Responder.Wrap.
type APIFunc func(w http.ResponseWriter, r *http.Request) (any, error)

type envelope struct {
	Success bool                 `json:"success"`
	Data    any                  `json:"data"`
	Error   *model.ErrorResponse `json:"error,omitempty"`
}

type statusResult struct {
	status int
	data   any
}

// Created marks v as a 201 response.
func Created(v any) any { return statusResult{status: http.StatusCreated, data: v} }

// WithStatus marks v as a response with an explicit status code.
func WithStatus(code int, v any) any { return statusResult{status: code, data: v} }

// WrapOption customizes one wrapped route.
type WrapOption func(*wrapConfig)

type wrapConfig struct {
	overrides map[apperr.Kind]int
}

// OverrideStatus maps errors of kind to code on this route only.
func OverrideStatus(kind apperr.Kind, code int) WrapOption {
	return func(c *wrapConfig) {
		if c.overrides == nil {
			c.overrides = make(map[apperr.Kind]int)
		}
		c.overrides[kind] = code
	}
}

const fallbackBody = `{"success":false,"error":{"message":"Internal server error","code":"INTERNAL_ERROR"},"data":null}`

// Responder renders every API response in the standard envelope.
type Responder struct {
	Production bool
	CORSOrigin string
}

// Wrap adapts fn into an http.HandlerFunc. Errors are mapped to a status by
// kind, panics become 500 responses, and CORS headers are always set.
func (rs *Responder) Wrap(fn APIFunc, opts ...WrapOption) http.HandlerFunc {
	var cfg wrapConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		rs.setCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				log.Error().
					Str("request_id", middleware.GetReqID(r.Context())).
					Interface("panic", p).
					Msg("handler panicked")
				rs.writeError(w, r, cfg, fmt.Errorf("panic: %v", p))
			}
		}()

		data, err := fn(w, r)
		if err != nil {
			rs.writeError(w, r, cfg, err)
			return
		}

		status := http.StatusOK
		if res, ok := data.(statusResult); ok {
			status, data = res.status, res.data
		}
		if status == http.StatusNoContent {
			w.WriteHeader(status)
			return
		}
		rs.write(w, status, envelope{Success: true, Data: data})
	}
}

// Error renders err in the error envelope. Middleware uses it to fail
// requests before they reach a wrapped handler.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	rs.setCORS(w)
	rs.writeError(w, r, wrapConfig{}, err)
}

func (rs *Responder) writeError(w http.ResponseWriter, r *http.Request, cfg wrapConfig, err error) {
	kind := apperr.KindOf(err)
	status := kind.Status()
	if code, ok := cfg.overrides[kind]; ok {
		status = code
	}

	resp := &model.ErrorResponse{Code: kind.String(), Message: err.Error()}
	if appErr, ok := apperr.As(err); ok {
		resp.Message = appErr.Message
		resp.Code = appErr.Code
		resp.Details = appErr.Details
		if appErr.Cause != nil {
			log.Debug().Err(appErr.Cause).Str("code", appErr.Code).Msg("request failed")
		}
	} else {
		log.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("unhandled error")
		if rs.Production {
			resp.Message = "Internal server error"
		}
	}
	rs.write(w, status, envelope{Success: false, Data: nil, Error: resp})
}

func (rs *Responder) write(w http.ResponseWriter, status int, body envelope) {
	data, err := json.Marshal(body)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		log.Error().Err(err).Msg("encode response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, fallbackBody)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (rs *Responder) setCORS(w http.ResponseWriter) {
	origin := rs.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
	h.Set("Access-Control-Max-Age", "600")
}

// CORS answers preflight requests for every route, including unmatched ones.
func (rs *Responder) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.setCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.BadRequest("request body too large")
		}
		return apperr.BadRequest("invalid request body: " + err.Error())
	}
	return nil
}
