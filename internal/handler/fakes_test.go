package handler

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-registration/internal/model"
	"github.com/Shivanand-hulikatti/event-registration/internal/pagination"
	"github.com/Shivanand-hulikatti/event-registration/internal/repository"
)

// memStore is an in-memory event and registration store.
type memStore struct {
	mu           sync.Mutex
	events       map[string]*model.Event
	reservations map[string]*model.Reservation
	participants []model.Participant
	calls        []string
}

func newMemStore(events ...model.Event) *memStore {
	s := &memStore{events: map[string]*model.Event{}, reservations: map[string]*model.Reservation{}}
	for i := range events {
		e := events[i]
		s.events[e.ID] = &e
	}
	return s
}

func (s *memStore) Create(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.events[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) GetBySlug(_ context.Context, slug string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.Slug == slug {
			cp := *e
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) list(call string, match func(*model.Event) bool, limit int) []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	var out []model.Event
	for _, e := range s.events {
		if match(e) {
			out = append(out, *e)
		}
	}
	slices.SortFunc(out, func(a, b model.Event) int { return strings.Compare(a.ID, b.ID) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *memStore) ListByType(_ context.Context, t string, limit int, _ *pagination.Cursor) ([]model.Event, error) {
	return s.list("type:"+t, func(e *model.Event) bool { return e.Type == t }, limit), nil
}

func (s *memStore) ListByDifficulty(_ context.Context, d string, limit int, _ *pagination.Cursor) ([]model.Event, error) {
	return s.list("difficulty:"+d, func(e *model.Event) bool { return e.Difficulty == d }, limit), nil
}

func (s *memStore) ListEnabled(_ context.Context, limit int, _ *pagination.Cursor) ([]model.Event, error) {
	return s.list("enabled", func(e *model.Event) bool { return e.IsEnabled }, limit), nil
}

func (s *memStore) ListFeatured(_ context.Context, limit int, _ *pagination.Cursor) ([]model.Event, error) {
	return s.list("featured", func(e *model.Event) bool { return e.IsFeatured }, limit), nil
}

func (s *memStore) ListByCreator(_ context.Context, creatorID string, limit int, _ *pagination.Cursor) ([]model.Event, error) {
	return s.list("creator:"+creatorID, func(e *model.Event) bool { return e.CreatorID == creatorID }, limit), nil
}

func (s *memStore) ListByOrganizer(_ context.Context, organizerID string, limit int, _ *pagination.Cursor) ([]model.Event, error) {
	return s.list("organizer:"+organizerID, func(e *model.Event) bool { return e.OrganizerID == organizerID }, limit), nil
}

func (s *memStore) Update(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s *memStore) CountByOrganizer(_ context.Context, organizerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.OrganizerID == organizerID {
			n++
		}
	}
	return n, nil
}

func (s *memStore) callLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

func (s *memStore) reservationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reservations)
}

func (s *memStore) CreateRegistration(_ context.Context, res *model.Reservation, participants []model.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[res.EventID]
	if !ok {
		return repository.ErrNotFound
	}
	if event.CurrentParticipants+len(participants) > event.MaxParticipants {
		return repository.ErrEventFull
	}
	event.CurrentParticipants += len(participants)
	cp := *res
	s.reservations[res.ID] = &cp
	s.participants = append(s.participants, participants...)
	return nil
}

func (s *memStore) GetReservation(_ context.Context, id string) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res, ok := s.reservations[id]; ok {
		cp := *res
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) ListByEvent(_ context.Context, eventID string) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, res := range s.reservations {
		if res.EventID == eventID {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (s *memStore) MarkPaid(_ context.Context, id, reference string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
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

func (s *memStore) ListParticipants(_ context.Context, reservationID string) ([]model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Participant
	for _, p := range s.participants {
		if p.ReservationID == reservationID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) FindExistingEmails(_ context.Context, eventID string, emails []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, p := range s.participants {
		email := strings.ToLower(p.Email)
		if p.EventID == eventID && slices.Contains(emails, email) && !slices.Contains(out, email) {
			out = append(out, email)
		}
	}
	return out, nil
}

type memOrganizers struct {
	mu         sync.Mutex
	organizers map[string]*model.Organizer
}

func newMemOrganizers(orgs ...model.Organizer) *memOrganizers {
	m := &memOrganizers{organizers: map[string]*model.Organizer{}}
	for i := range orgs {
		o := orgs[i]
		m.organizers[o.ID] = &o
	}
	return m
}

func (m *memOrganizers) Create(_ context.Context, o *model.Organizer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.organizers {
		if existing.AccountID == o.AccountID {
			return repository.ErrOrganizerExists
		}
	}
	cp := *o
	m.organizers[o.ID] = &cp
	return nil
}

func (m *memOrganizers) GetByID(_ context.Context, id string) (*model.Organizer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.organizers[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memOrganizers) GetByAccount(_ context.Context, accountID string) (*model.Organizer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.organizers {
		if o.AccountID == accountID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memOrganizers) Update(_ context.Context, o *model.Organizer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.organizers[o.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *o
	m.organizers[o.ID] = &cp
	return nil
}

func (m *memOrganizers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.organizers[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.organizers, id)
	return nil
}

type memPublisher struct {
	mu     sync.Mutex
	bodies [][]byte
}

func (p *memPublisher) Publish(_ context.Context, body []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bodies = append(p.bodies, body)
	return "msg", nil
}

func (p *memPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.bodies)
}
