package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-registration/internal/apperr"
	"github.com/Shivanand-hulikatti/event-registration/internal/auth"
	"github.com/Shivanand-hulikatti/event-registration/internal/id"
	"github.com/Shivanand-hulikatti/event-registration/internal/model"
)

func TestOrganizerLifecycle(t *testing.T) {
	user := &auth.User{ID: "acct-1", Role: auth.RoleOrganizer}
	events := newFakeEvents()
	svc := NewOrganizerService(newFakeOrganizers(), events)
	ctx := context.Background()

	org, err := svc.Create(ctx, user, model.CreateOrganizerRequest{Name: " Trail Club ", Contact: "club@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Trail Club", org.Name)
	assert.Equal(t, user.ID, org.AccountID)

	_, err = svc.Create(ctx, user, model.CreateOrganizerRequest{Name: "Again", Contact: "x"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	mine, err := svc.GetMine(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, org.ID, mine.ID)

	updated, err := svc.Update(ctx, user, org.ID, model.UpdateOrganizerRequest{Website: strPtr("https://trail.example.com")})
	require.NoError(t, err)
	assert.Equal(t, "https://trail.example.com", updated.Website)

	_, err = svc.Update(ctx, &auth.User{ID: "acct-2", Role: auth.RoleOrganizer}, org.ID, model.UpdateOrganizerRequest{Name: strPtr("x")})
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	event := individualEvent(10, 0)
	event.OrganizerID = org.ID
	require.NoError(t, events.Create(ctx, &event))
	err = svc.Delete(ctx, user, org.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	delete(events.events, event.ID)
	require.NoError(t, svc.Delete(ctx, user, org.ID))

	_, err = svc.Get(ctx, org.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestOrganizerValidation(t *testing.T) {
	svc := NewOrganizerService(newFakeOrganizers(), newFakeEvents())
	ctx := context.Background()

	_, err := svc.Create(ctx, &auth.User{ID: "a"}, model.CreateOrganizerRequest{Name: "", Contact: "c"})
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Equal(t, []string{"name"}, appErr.Details["fields"])

	_, err = svc.Get(ctx, "bad")
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	_, err = svc.GetMine(ctx, &auth.User{ID: "nobody"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	err = svc.Delete(ctx, &auth.User{ID: "a", Role: auth.RoleAdmin}, id.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
