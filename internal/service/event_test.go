package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-registration/internal/apperr"
	"github.com/Shivanand-hulikatti/event-registration/internal/auth"
	"github.com/Shivanand-hulikatti/event-registration/internal/id"
	"github.com/Shivanand-hulikatti/event-registration/internal/model"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func seededEvents(n int) []model.Event {
	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	events := make([]model.Event, n)
	for i := range events {
		events[i] = model.Event{
			ID:                   id.New(),
			Title:                "Event",
			Type:                 "running",
			Difficulty:           "advanced",
			Date:                 base.Add(time.Duration(i) * 24 * time.Hour),
			IsEnabled:            true,
			RequiredParticipants: 1,
			MaxParticipants:      100,
		}
	}
	return events
}

func TestListEventsFilterPriority(t *testing.T) {
	tests := []struct {
		name  string
		query ListEventsQuery
		call  string
	}{
		{"type wins over difficulty", ListEventsQuery{Type: "running", Difficulty: "advanced"}, "type:running"},
		{"difficulty alone", ListEventsQuery{Difficulty: "advanced"}, "difficulty:advanced"},
		{"no filter lists enabled", ListEventsQuery{}, "enabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := newFakeEvents(seededEvents(3)...)
			svc := NewEventService(events, newFakeOrganizers())

			page, err := svc.ListEvents(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Len(t, page.Items, 3)
			assert.Equal(t, []string{tt.call}, events.calls)
		})
	}
}

func TestListEventsWalksPages(t *testing.T) {
	seeded := seededEvents(5)
	svc := NewEventService(newFakeEvents(seeded...), newFakeOrganizers())
	ctx := context.Background()

	var (
		seen  []string
		token string
	)
	for i := 0; i < 10; i++ {
		page, err := svc.ListEvents(ctx, ListEventsQuery{Limit: intPtr(2), NextToken: token})
		require.NoError(t, err)
		for _, e := range page.Items {
			seen = append(seen, e.ID)
		}
		if !page.HasNextPage {
			assert.Nil(t, page.NextToken)
			break
		}
		require.NotNil(t, page.NextToken)
		token = *page.NextToken
	}

	want := make([]string, len(seeded))
	for i, e := range seeded {
		want[i] = e.ID
	}
	assert.Equal(t, want, seen)
}

func TestListFeaturedDefaultsToTen(t *testing.T) {
	seeded := seededEvents(12)
	for i := range seeded {
		seeded[i].IsFeatured = true
	}
	svc := NewEventService(newFakeEvents(seeded...), newFakeOrganizers())

	page, err := svc.ListFeatured(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.True(t, page.HasNextPage)
}

func TestListEventsRejectsBadInput(t *testing.T) {
	svc := NewEventService(newFakeEvents(), newFakeOrganizers())
	ctx := context.Background()

	_, err := svc.ListEvents(ctx, ListEventsQuery{Limit: intPtr(-1)})
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	_, err = svc.ListEvents(ctx, ListEventsQuery{NextToken: "%%%"})
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func createRequest(organizerID string) model.CreateEventRequest {
	return model.CreateEventRequest{
		OrganizerID:     organizerID,
		Title:           "Café Crème 10K",
		Type:            "Running",
		Date:            time.Date(2026, 10, 4, 9, 0, 0, 0, time.UTC),
		MaxParticipants: 200,
		RegistrationFee: 19.999,
	}
}

func TestCreateEvent(t *testing.T) {
	owner := &auth.User{ID: "acct-1", Role: auth.RoleOrganizer}
	org := model.Organizer{ID: id.New(), AccountID: owner.ID, Name: "Runners Club"}
	events := newFakeEvents()
	svc := NewEventService(events, newFakeOrganizers(org))
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, owner, createRequest(org.ID))
	require.NoError(t, err)
	assert.True(t, id.IsValid(event.ID))
	assert.Equal(t, owner.ID, event.CreatorID)
	assert.Equal(t, "running", event.Type)
	assert.True(t, event.IsEnabled)
	assert.Equal(t, 1, event.RequiredParticipants)
	assert.Equal(t, 20.0, event.RegistrationFee)
	assert.Regexp(t, `^cafe-creme-10k-[0-9a-z]{6}$`, event.Slug)

	got, err := svc.GetEventBySlug(ctx, event.Slug)
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)
}

func TestCreateEventRejections(t *testing.T) {
	owner := &auth.User{ID: "acct-1", Role: auth.RoleOrganizer}
	stranger := &auth.User{ID: "acct-2", Role: auth.RoleOrganizer}
	org := model.Organizer{ID: id.New(), AccountID: owner.ID}
	svc := NewEventService(newFakeEvents(), newFakeOrganizers(org))
	ctx := context.Background()

	featured := createRequest(org.ID)
	featured.IsFeatured = true
	team := createRequest(org.ID)
	team.IsTeamEvent = true
	team.RequiredParticipants = 1
	missingTitle := createRequest(org.ID)
	missingTitle.Title = "  "

	tests := []struct {
		name string
		user *auth.User
		req  model.CreateEventRequest
		kind apperr.Kind
	}{
		{"anonymous", nil, createRequest(org.ID), apperr.KindAuthentication},
		{"not the organizer", stranger, createRequest(org.ID), apperr.KindAuthorization},
		{"featured by non-admin", owner, featured, apperr.KindAuthorization},
		{"team of one", owner, team, apperr.KindValidation},
		{"missing title", owner, missingTitle, apperr.KindValidation},
		{"unknown organizer", owner, createRequest(id.New()), apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateEvent(ctx, tt.user, tt.req)
			assert.Equal(t, tt.kind, apperr.KindOf(err), "got %v", err)
		})
	}
}

func TestUpdateEvent(t *testing.T) {
	owner := &auth.User{ID: "acct-1", Role: auth.RoleOrganizer}
	admin := &auth.User{ID: "root", Role: auth.RoleAdmin}
	other := &auth.User{ID: "acct-2", Role: auth.RoleOrganizer}
	org := model.Organizer{ID: id.New(), AccountID: owner.ID}
	event := individualEvent(50, 10)
	event.OrganizerID = org.ID
	event.CreatorID = "someone-else"
	event.Slug = "harbor-5k-abcdef"

	events := newFakeEvents(event)
	svc := NewEventService(events, newFakeOrganizers(org))
	ctx := context.Background()

	t.Run("owner via organizer", func(t *testing.T) {
		updated, err := svc.UpdateEvent(ctx, owner, event.ID, model.UpdateEventRequest{Title: strPtr("Harbor 10K")})
		require.NoError(t, err)
		assert.Equal(t, "Harbor 10K", updated.Title)
		assert.Equal(t, "harbor-5k-abcdef", events.get(event.ID).Slug)
	})

	t.Run("slug is immutable", func(t *testing.T) {
		_, err := svc.UpdateEvent(ctx, admin, event.ID, model.UpdateEventRequest{Slug: strPtr("new")})
		appErr, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, apperr.KindValidation, appErr.Kind)
		assert.Equal(t, []string{"slug"}, appErr.Details["fields"])
	})

	t.Run("team flag is immutable", func(t *testing.T) {
		yes := true
		_, err := svc.UpdateEvent(ctx, admin, event.ID, model.UpdateEventRequest{IsTeamEvent: &yes})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("featuring needs admin", func(t *testing.T) {
		yes := true
		_, err := svc.UpdateEvent(ctx, owner, event.ID, model.UpdateEventRequest{IsFeatured: &yes})
		assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

		updated, err := svc.UpdateEvent(ctx, admin, event.ID, model.UpdateEventRequest{IsFeatured: &yes})
		require.NoError(t, err)
		assert.True(t, updated.IsFeatured)
	})

	t.Run("stranger is denied", func(t *testing.T) {
		_, err := svc.UpdateEvent(ctx, other, event.ID, model.UpdateEventRequest{Title: strPtr("Mine")})
		assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
	})

	t.Run("capacity below registrations", func(t *testing.T) {
		_, err := svc.UpdateEvent(ctx, owner, event.ID, model.UpdateEventRequest{MaxParticipants: intPtr(5)})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("soft disable", func(t *testing.T) {
		updated, err := svc.SetEnabled(ctx, owner, event.ID, false)
		require.NoError(t, err)
		assert.False(t, updated.IsEnabled)
		assert.False(t, events.get(event.ID).IsEnabled)
	})
}

func TestSlugify(t *testing.T) {
	eventID := "01J0000000000000000000ABCD"
	tests := []struct {
		title string
		want  string
	}{
		{"Spring 5K", "spring-5k-00abcd"},
		{"  Über  Trail -- Run!! ", "uber-trail-run-00abcd"},
		{"???", "event-00abcd"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.title, eventID))
	}
}
