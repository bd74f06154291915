// Package apperr defines the typed failures surfaced to API clients. Each
// failure carries a Kind that fixes its default HTTP status, a stable
// machine-readable code and optional structured details.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	KindUnknown Kind = iota
	KindBadRequest
	KindValidation
	KindNotFound
	KindConflict
	KindAuthentication
	KindAuthorization
	KindRateLimited
)

var kindNames = map[Kind]string{
	KindUnknown:        "INTERNAL_ERROR",
	KindBadRequest:     "BAD_REQUEST",
	KindValidation:     "VALIDATION_ERROR",
	KindNotFound:       "NOT_FOUND",
	KindConflict:       "CONFLICT",
	KindAuthentication: "AUTHENTICATION_ERROR",
	KindAuthorization:  "FORBIDDEN",
	KindRateLimited:    "RATE_LIMITED",
}

var kindStatus = map[Kind]int{
	KindBadRequest:     http.StatusBadRequest,
	KindValidation:     http.StatusUnprocessableEntity,
	KindNotFound:       http.StatusNotFound,
	KindConflict:       http.StatusConflict,
	KindAuthentication: http.StatusUnauthorized,
	KindAuthorization:  http.StatusForbidden,
	KindRateLimited:    http.StatusTooManyRequests,
}

// String returns the default machine code for the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Status returns the default HTTP status for the kind.
func (k Kind) Status() int {
	if status, ok := kindStatus[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is the application error type.
type Error struct {
	Kind    Kind
	Code    string         // Machine-readable code, defaults to Kind.String()
	Message string         // Client-facing message
	Details map[string]any // Optional structured context
	Cause   error          // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by kind and code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// Status returns the default HTTP status of the error.
func (e *Error) Status() int {
	return e.Kind.Status()
}

// WithDetails returns a copy of e carrying the given details.
func (e *Error) WithDetails(details map[string]any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// WithCode returns a copy of e with a specific machine code.
func (e *Error) WithCode(code string) *Error {
	cp := *e
	cp.Code = code
	return &cp
}

// WithCause returns a copy of e wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Code: kind.String(), Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

func BadRequest(message string) *Error     { return New(KindBadRequest, message) }
func NotFound(message string) *Error       { return New(KindNotFound, message) }
func Conflict(message string) *Error       { return New(KindConflict, message) }
func Authentication(message string) *Error { return New(KindAuthentication, message) }
func Authorization(message string) *Error  { return New(KindAuthorization, message) }
func RateLimited(message string) *Error    { return New(KindRateLimited, message) }

// Validation creates a validation error with optional details.
func Validation(message string, details map[string]any) *Error {
	e := New(KindValidation, message)
	e.Details = details
	return e
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindUnknown for errors outside the taxonomy.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindUnknown
}

// StatusOf returns the default HTTP status for err.
func StatusOf(err error) int {
	return KindOf(err).Status()
}
