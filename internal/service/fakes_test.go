package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-registration/internal/model"
	"github.com/Shivanand-hulikatti/event-registration/internal/pagination"
	"github.com/Shivanand-hulikatti/event-registration/internal/repository"
)

type fakeEvents struct {
	mu     sync.Mutex
	events map[string]*model.Event
	calls  []string
}

func newFakeEvents(events ...model.Event) *fakeEvents {
	f := &fakeEvents{events: map[string]*model.Event{}}
	for i := range events {
		e := events[i]
		f.events[e.ID] = &e
	}
	return f
}

func (f *fakeEvents) get(id string) model.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.events[id]
}

func (f *fakeEvents) Create(_ context.Context, e *model.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.events {
		if existing.Slug == e.Slug {
			return repository.ErrSlugTaken
		}
	}
	cp := *e
	f.events[e.ID] = &cp
	return nil
}

func (f *fakeEvents) GetByID(_ context.Context, id string) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEvents) GetBySlug(_ context.Context, slug string) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.Slug == slug {
			cp := *e
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeEvents) list(call string, match func(*model.Event) bool, limit int, after *pagination.Cursor) []model.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)

	var out []model.Event
	for _, e := range f.events {
		if match(e) {
			out = append(out, *e)
		}
	}
	slices.SortFunc(out, func(a, b model.Event) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if after != nil {
		out = slices.DeleteFunc(out, func(e model.Event) bool {
			c := e.Date.Compare(after.After)
			return c < 0 || (c == 0 && e.ID <= after.ID)
		})
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *fakeEvents) ListByType(_ context.Context, t string, limit int, after *pagination.Cursor) ([]model.Event, error) {
	return f.list("type:"+t, func(e *model.Event) bool { return e.Type == t }, limit, after), nil
}

func (f *fakeEvents) ListByDifficulty(_ context.Context, d string, limit int, after *pagination.Cursor) ([]model.Event, error) {
	return f.list("difficulty:"+d, func(e *model.Event) bool { return e.Difficulty == d }, limit, after), nil
}

func (f *fakeEvents) ListEnabled(_ context.Context, limit int, after *pagination.Cursor) ([]model.Event, error) {
	return f.list("enabled", func(e *model.Event) bool { return e.IsEnabled }, limit, after), nil
}

func (f *fakeEvents) ListFeatured(_ context.Context, limit int, after *pagination.Cursor) ([]model.Event, error) {
	return f.list("featured", func(e *model.Event) bool { return e.IsFeatured && e.IsEnabled }, limit, after), nil
}

func (f *fakeEvents) ListByCreator(_ context.Context, creatorID string, limit int, after *pagination.Cursor) ([]model.Event, error) {
	return f.list("creator:"+creatorID, func(e *model.Event) bool { return e.CreatorID == creatorID }, limit, after), nil
}

func (f *fakeEvents) ListByOrganizer(_ context.Context, organizerID string, limit int, after *pagination.Cursor) ([]model.Event, error) {
	return f.list("organizer:"+organizerID, func(e *model.Event) bool { return e.OrganizerID == organizerID }, limit, after), nil
}

func (f *fakeEvents) Update(_ context.Context, e *model.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.events[e.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *e
	cp.Slug = existing.Slug
	cp.IsTeamEvent = existing.IsTeamEvent
	cp.CurrentParticipants = existing.CurrentParticipants
	f.events[e.ID] = &cp
	return nil
}

func (f *fakeEvents) CountByOrganizer(_ context.Context, organizerID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.OrganizerID == organizerID {
			n++
		}
	}
	return n, nil
}

type fakeOrganizers struct {
	mu         sync.Mutex
	organizers map[string]*model.Organizer
}

func newFakeOrganizers(orgs ...model.Organizer) *fakeOrganizers {
	f := &fakeOrganizers{organizers: map[string]*model.Organizer{}}
	for i := range orgs {
		o := orgs[i]
		f.organizers[o.ID] = &o
	}
	return f
}

func (f *fakeOrganizers) Create(_ context.Context, o *model.Organizer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.organizers {
		if existing.AccountID == o.AccountID {
			return repository.ErrOrganizerExists
		}
	}
	cp := *o
	f.organizers[o.ID] = &cp
	return nil
}

func (f *fakeOrganizers) GetByID(_ context.Context, id string) (*model.Organizer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.organizers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrganizers) GetByAccount(_ context.Context, accountID string) (*model.Organizer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.organizers {
		if o.AccountID == accountID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeOrganizers) Update(_ context.Context, o *model.Organizer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.organizers[o.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *o
	f.organizers[o.ID] = &cp
	return nil
}

func (f *fakeOrganizers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.organizers[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.organizers, id)
	return nil
}

// fakeRegistrations mirrors the transactional store: the increment is
// conditional and nothing is written when any step fails.
type fakeRegistrations struct {
	mu           sync.Mutex
	events       *fakeEvents
	reservations map[string]*model.Reservation
	participants []model.Participant
	writes       int
	createErr    error
}

func newFakeRegistrations(events *fakeEvents) *fakeRegistrations {
	return &fakeRegistrations{events: events, reservations: map[string]*model.Reservation{}}
}

func (f *fakeRegistrations) CreateRegistration(_ context.Context, res *model.Reservation, participants []model.Participant) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.events.mu.Lock()
	defer f.events.mu.Unlock()
	f.mu.Lock()
	defer f.mu.Unlock()

	event, ok := f.events.events[res.EventID]
	if !ok {
		return repository.ErrNotFound
	}
	if event.CurrentParticipants+len(participants) > event.MaxParticipants {
		return repository.ErrEventFull
	}
	for _, p := range participants {
		for _, existing := range f.participants {
			if existing.EventID == p.EventID && strings.EqualFold(existing.Email, p.Email) {
				return repository.ErrAlreadyRegistered
			}
		}
	}

	event.CurrentParticipants += len(participants)
	cp := *res
	f.reservations[res.ID] = &cp
	f.participants = append(f.participants, participants...)
	f.writes++
	return nil
}

func (f *fakeRegistrations) GetReservation(_ context.Context, id string) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (f *fakeRegistrations) ListByEvent(_ context.Context, eventID string) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Reservation
	for _, res := range f.reservations {
		if res.EventID == eventID {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (f *fakeRegistrations) MarkPaid(_ context.Context, id, reference string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return repository.ErrNotFound
	}
	if res.PaymentStatus {
		return repository.ErrAlreadyPaid
	}
	res.PaymentStatus = true
	res.PaymentReference = reference
	res.UpdatedAt = at
	return nil
}

func (f *fakeRegistrations) ListParticipants(_ context.Context, reservationID string) ([]model.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Participant
	for _, p := range f.participants {
		if p.ReservationID == reservationID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRegistrations) FindExistingEmails(_ context.Context, eventID string, emails []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, p := range f.participants {
		if p.EventID == eventID && slices.Contains(emails, strings.ToLower(p.Email)) && !slices.Contains(out, strings.ToLower(p.Email)) {
			out = append(out, strings.ToLower(p.Email))
		}
	}
	return out, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	bodies [][]byte
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, body []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.bodies = append(f.bodies, body)
	return "msg-1", nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bodies)
}

var errStoreDown = errors.New("store unavailable")
