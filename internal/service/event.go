package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Shivanand-hulikatti/event-registration/internal/apperr"
	"github.com/Shivanand-hulikatti/event-registration/internal/auth"
	"github.com/Shivanand-hulikatti/event-registration/internal/id"
	"github.com/Shivanand-hulikatti/event-registration/internal/model"
	"github.com/Shivanand-hulikatti/event-registration/internal/pagination"
	"github.com/Shivanand-hulikatti/event-registration/internal/repository"
)

// EventService orchestrates event-related business operations.
type EventService struct {
	events     EventStore
	organizers OrganizerStore
	now        func() time.Time
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events EventStore, organizers OrganizerStore) *EventService {
	return &EventService{events: events, organizers: organizers, now: time.Now}
}

// ListEventsQuery is the query string of GET /events.
type ListEventsQuery struct {
	Type       string `schema:"type"`
	Difficulty string `schema:"difficulty"`
	Limit      *int   `schema:"limit"`
	NextToken  string `schema:"nextToken"`
}

// EventPage is one page of events.
type EventPage = pagination.Page[model.Event]

func eventKey(e model.Event) pagination.Cursor {
	return pagination.Cursor{After: e.Date, ID: e.ID}
}

func pageLimit(limit *int, def int) (int, error) {
	if limit == nil {
		return def, nil
	}
	if *limit < 0 {
		return 0, apperr.BadRequest("limit must not be negative")
	}
	return min(*limit, pagination.MaxLimit), nil
}

// ListEvents filters by type, else by difficulty, else lists enabled
// events. Only one filter applies.
func (s *EventService) ListEvents(ctx context.Context, q ListEventsQuery) (EventPage, error) {
	limit, err := pageLimit(q.Limit, pagination.DefaultLimit)
	if err != nil {
		return EventPage{}, err
	}

	var fetch pagination.FetchFunc[model.Event]
	switch eventType, difficulty := strings.TrimSpace(q.Type), strings.TrimSpace(q.Difficulty); {
	case eventType != "":
		fetch = func(ctx context.Context, n int, after *pagination.Cursor) ([]model.Event, error) {
			return s.events.ListByType(ctx, eventType, n, after)
		}
	case difficulty != "":
		fetch = func(ctx context.Context, n int, after *pagination.Cursor) ([]model.Event, error) {
			return s.events.ListByDifficulty(ctx, difficulty, n, after)
		}
	default:
		fetch = s.events.ListEnabled
	}
	return pagination.Paginate(ctx, limit, q.NextToken, fetch, eventKey)
}

// ListFeatured returns featured enabled events.
func (s *EventService) ListFeatured(ctx context.Context, limit *int, token string) (EventPage, error) {
	n, err := pageLimit(limit, pagination.FeaturedLimit)
	if err != nil {
		return EventPage{}, err
	}
	return pagination.Paginate(ctx, n, token, s.events.ListFeatured, eventKey)
}

// ListByCreator returns events created by an account.
func (s *EventService) ListByCreator(ctx context.Context, creatorID string, limit *int, token string) (EventPage, error) {
	n, err := pageLimit(limit, pagination.DefaultLimit)
	if err != nil {
		return EventPage{}, err
	}
	fetch := func(ctx context.Context, n int, after *pagination.Cursor) ([]model.Event, error) {
		return s.events.ListByCreator(ctx, creatorID, n, after)
	}
	return pagination.Paginate(ctx, n, token, fetch, eventKey)
}

// ListByOrganizer returns events owned by an organizer.
func (s *EventService) ListByOrganizer(ctx context.Context, organizerID string, limit *int, token string) (EventPage, error) {
	if err := requireID(organizerID, "organizer"); err != nil {
		return EventPage{}, err
	}
	n, err := pageLimit(limit, pagination.DefaultLimit)
	if err != nil {
		return EventPage{}, err
	}
	fetch := func(ctx context.Context, n int, after *pagination.Cursor) ([]model.Event, error) {
		return s.events.ListByOrganizer(ctx, organizerID, n, after)
	}
	return pagination.Paginate(ctx, n, token, fetch, eventKey)
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	if err := requireID(eventID, "event"); err != nil {
		return nil, err
	}
	return loadEvent(ctx, s.events, eventID)
}

// GetEventBySlug returns a single event by slug.
func (s *EventService) GetEventBySlug(ctx context.Context, slug string) (*model.Event, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, apperr.BadRequest("slug is required")
	}
	event, err := s.events.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("event not found").WithDetails(map[string]any{"slug": slug})
		}
		return nil, fmt.Errorf("get event by slug: %w", err)
	}
	return event, nil
}

// CreateEvent validates the request and stores a new enabled event owned by
// user.
func (s *EventService) CreateEvent(ctx context.Context, user *auth.User, req model.CreateEventRequest) (*model.Event, error) {
	if user == nil {
		return nil, apperr.Authentication("authentication required")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Type = strings.TrimSpace(req.Type)
	if err := validateStruct(&req, "invalid event"); err != nil {
		return nil, err
	}
	if req.RequiredParticipants == 0 {
		req.RequiredParticipants = 1
	}
	if err := checkEventShape(req.IsTeamEvent, req.RequiredParticipants, req.MaxParticipants, req.Date, req.RegistrationDeadline); err != nil {
		return nil, err
	}
	if req.IsFeatured && user.Role != auth.RoleAdmin {
		return nil, apperr.Authorization("only admins can feature events")
	}
	if err := requireID(req.OrganizerID, "organizer"); err != nil {
		return nil, err
	}
	organizer, err := s.loadOrganizer(ctx, req.OrganizerID)
	if err != nil {
		return nil, err
	}
	if organizer.AccountID != user.ID && user.Role != auth.RoleAdmin {
		return nil, apperr.Authorization("you do not manage this organizer")
	}

	now := s.now().UTC()
	eventID := id.New()
	event := &model.Event{
		ID:                   eventID,
		CreatorID:            user.ID,
		OrganizerID:          organizer.ID,
		Title:                req.Title,
		Type:                 strings.ToLower(req.Type),
		Date:                 req.Date.UTC(),
		IsFeatured:           req.IsFeatured,
		IsTeamEvent:          req.IsTeamEvent,
		IsRelay:              req.IsRelay,
		IsEnabled:            true,
		RequiredParticipants: req.RequiredParticipants,
		MaxParticipants:      req.MaxParticipants,
		Location:             req.Location,
		Description:          req.Description,
		Distance:             req.Distance,
		RegistrationFee:      roundCents(req.RegistrationFee),
		RegistrationDeadline: req.RegistrationDeadline,
		Image:                req.Image,
		Difficulty:           strings.ToLower(strings.TrimSpace(req.Difficulty)),
		Tags:                 req.Tags,
		Slug:                 Slugify(req.Title, eventID),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if event.Tags == nil {
		event.Tags = []string{}
	}

	if err := s.events.Create(ctx, event); err != nil {
		if errors.Is(err, repository.ErrSlugTaken) {
			return nil, apperr.Conflict("event slug already exists").WithDetails(map[string]any{"slug": event.Slug})
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	log.Info().Str("event_id", event.ID).Str("slug", event.Slug).Msg("event created")
	return event, nil
}

// UpdateEvent applies a partial update. Slug and team mode never change and
// only admins may toggle featuring.
func (s *EventService) UpdateEvent(ctx context.Context, user *auth.User, eventID string, req model.UpdateEventRequest) (*model.Event, error) {
	if user == nil {
		return nil, apperr.Authentication("authentication required")
	}
	if err := requireID(eventID, "event"); err != nil {
		return nil, err
	}

	var immutable []string
	if req.Slug != nil {
		immutable = append(immutable, "slug")
	}
	if req.IsTeamEvent != nil {
		immutable = append(immutable, "isTeamEvent")
	}
	if len(immutable) > 0 {
		return nil, apperr.Validation("fields cannot be changed after creation", map[string]any{"fields": immutable})
	}
	if err := validateStruct(&req, "invalid event update"); err != nil {
		return nil, err
	}

	event, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeEvent(ctx, user, event); err != nil {
		return nil, err
	}
	if req.IsFeatured != nil && *req.IsFeatured != event.IsFeatured && user.Role != auth.RoleAdmin {
		return nil, apperr.Authorization("only admins can change isFeatured")
	}

	applyEventUpdate(event, req)
	if err := checkEventShape(event.IsTeamEvent, event.RequiredParticipants, event.MaxParticipants, event.Date, event.RegistrationDeadline); err != nil {
		return nil, err
	}
	if event.MaxParticipants < event.CurrentParticipants {
		return nil, apperr.Validation("maxParticipants cannot be below current registrations", map[string]any{
			"fields":              []string{"maxParticipants"},
			"currentParticipants": event.CurrentParticipants,
		})
	}

	event.UpdatedAt = s.now().UTC()
	if err := s.events.Update(ctx, event); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("event not found")
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

// SetEnabled soft-enables or soft-disables an event.
func (s *EventService) SetEnabled(ctx context.Context, user *auth.User, eventID string, enabled bool) (*model.Event, error) {
	return s.UpdateEvent(ctx, user, eventID, model.UpdateEventRequest{IsEnabled: &enabled})
}

func (s *EventService) authorizeEvent(ctx context.Context, user *auth.User, event *model.Event) error {
	ok, err := managesEvent(ctx, s.organizers, user, event)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Authorization("you cannot modify this event")
	}
	return nil
}

func (s *EventService) loadOrganizer(ctx context.Context, organizerID string) (*model.Organizer, error) {
	organizer, err := s.organizers.GetByID(ctx, organizerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("organizer not found").WithDetails(map[string]any{"organizerId": organizerID})
		}
		return nil, fmt.Errorf("get organizer: %w", err)
	}
	return organizer, nil
}

func applyEventUpdate(e *model.Event, req model.UpdateEventRequest) {
	if req.Title != nil {
		e.Title = strings.TrimSpace(*req.Title)
	}
	if req.Type != nil {
		e.Type = strings.ToLower(strings.TrimSpace(*req.Type))
	}
	if req.Date != nil {
		e.Date = req.Date.UTC()
	}
	if req.IsFeatured != nil {
		e.IsFeatured = *req.IsFeatured
	}
	if req.IsRelay != nil {
		e.IsRelay = *req.IsRelay
	}
	if req.IsEnabled != nil {
		e.IsEnabled = *req.IsEnabled
	}
	if req.RequiredParticipants != nil {
		e.RequiredParticipants = *req.RequiredParticipants
	}
	if req.MaxParticipants != nil {
		e.MaxParticipants = *req.MaxParticipants
	}
	if req.Location != nil {
		e.Location = *req.Location
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Distance != nil {
		e.Distance = *req.Distance
	}
	if req.RegistrationFee != nil {
		e.RegistrationFee = roundCents(*req.RegistrationFee)
	}
	if req.RegistrationDeadline != nil {
		e.RegistrationDeadline = req.RegistrationDeadline
	}
	if req.Image != nil {
		e.Image = *req.Image
	}
	if req.Difficulty != nil {
		e.Difficulty = strings.ToLower(strings.TrimSpace(*req.Difficulty))
	}
	if req.Tags != nil {
		e.Tags = req.Tags
	}
}

func checkEventShape(team bool, required, max int, date time.Time, deadline *time.Time) error {
	switch {
	case team && required < 2:
		return apperr.Validation("team events need at least 2 participants per team", map[string]any{"fields": []string{"requiredParticipants"}})
	case !team && required != 1:
		return apperr.Validation("individual events take exactly 1 participant per registration", map[string]any{"fields": []string{"requiredParticipants"}})
	case max < required:
		return apperr.Validation("maxParticipants must be at least requiredParticipants", map[string]any{"fields": []string{"maxParticipants"}})
	case deadline != nil && deadline.After(date):
		return apperr.Validation("registrationDeadline must not be after the event date", map[string]any{"fields": []string{"registrationDeadline"}})
	}
	return nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify builds a URL slug from a title, suffixed with the tail of the
// event id so slugs stay unique. Accents are stripped.
func Slugify(title, eventID string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, title)
	if err != nil {
		plain = title
	}
	base := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(plain), "-"), "-")
	if len(base) > 60 {
		base = strings.TrimRight(base[:60], "-")
	}
	suffix := strings.ToLower(eventID)
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	if base == "" {
		return "event-" + suffix
	}
	return base + "-" + suffix
}
