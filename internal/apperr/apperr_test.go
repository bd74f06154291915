package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
		code   string
	}{
		{KindBadRequest, http.StatusBadRequest, "BAD_REQUEST"},
		{KindValidation, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{KindNotFound, http.StatusNotFound, "NOT_FOUND"},
		{KindConflict, http.StatusConflict, "CONFLICT"},
		{KindAuthentication, http.StatusUnauthorized, "AUTHENTICATION_ERROR"},
		{KindAuthorization, http.StatusForbidden, "FORBIDDEN"},
		{KindRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{KindUnknown, http.StatusInternalServerError, "INTERNAL_ERROR"},
		{Kind(99), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.kind.Status())
			assert.Equal(t, tt.code, tt.kind.String())
		})
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	base := Conflict("event is fully booked")
	wrapped := fmt.Errorf("register: %w", base)

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, http.StatusConflict, StatusOf(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("boom")))
}

func TestErrorCopies(t *testing.T) {
	base := NotFound("event not found")
	detailed := base.WithDetails(map[string]any{"eventId": "x"}).WithCode("EVENT_NOT_FOUND")

	assert.Nil(t, base.Details)
	assert.Equal(t, "NOT_FOUND", base.Code)
	assert.Equal(t, "EVENT_NOT_FOUND", detailed.Code)
	assert.Equal(t, "x", detailed.Details["eventId"])
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := BadRequest("invalid token").WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "invalid token: connection reset", err.Error())

	got, ok := As(fmt.Errorf("outer: %w", err))
	require.True(t, ok)
	assert.Equal(t, "invalid token", got.Message)
}

func TestErrorIsMatchesKindAndCode(t *testing.T) {
	err := Conflict("a")
	assert.True(t, errors.Is(err, Conflict("b")))
	assert.False(t, errors.Is(err, NotFound("a")))
	assert.False(t, errors.Is(err, Conflict("a").WithCode("EVENT_FULL")))
}
