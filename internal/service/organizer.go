package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Shivanand-hulikatti/event-registration/internal/apperr"
	"github.com/Shivanand-hulikatti/event-registration/internal/auth"
	"github.com/Shivanand-hulikatti/event-registration/internal/id"
	"github.com/Shivanand-hulikatti/event-registration/internal/model"
	"github.com/Shivanand-hulikatti/event-registration/internal/repository"
)

// OrganizerService manages organizer profiles. Each account owns at most one.
type OrganizerService struct {
	organizers OrganizerStore
	events     EventStore
	now        func() time.Time
}

// NewOrganizerService constructs an OrganizerService.
func NewOrganizerService(organizers OrganizerStore, events EventStore) *OrganizerService {
	return &OrganizerService{organizers: organizers, events: events, now: time.Now}
}

// Create registers the caller's organizer profile.
func (s *OrganizerService) Create(ctx context.Context, user *auth.User, req model.CreateOrganizerRequest) (*model.Organizer, error) {
	if user == nil {
		return nil, apperr.Authentication("authentication required")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Contact = strings.TrimSpace(req.Contact)
	if err := validateStruct(&req, "invalid organizer"); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	o := &model.Organizer{
		ID:          id.New(),
		AccountID:   user.ID,
		Name:        req.Name,
		Contact:     req.Contact,
		Website:     req.Website,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.organizers.Create(ctx, o); err != nil {
		if errors.Is(err, repository.ErrOrganizerExists) {
			return nil, apperr.Conflict("organizer already exists for this account")
		}
		return nil, fmt.Errorf("create organizer: %w", err)
	}
	log.Info().Str("organizer_id", o.ID).Str("account_id", o.AccountID).Msg("organizer created")
	return o, nil
}

// GetMine returns the caller's organizer profile.
func (s *OrganizerService) GetMine(ctx context.Context, user *auth.User) (*model.Organizer, error) {
	if user == nil {
		return nil, apperr.Authentication("authentication required")
	}
	o, err := s.organizers.GetByAccount(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("no organizer for this account")
		}
		return nil, fmt.Errorf("get organizer: %w", err)
	}
	return o, nil
}

// Get returns an organizer by id.
func (s *OrganizerService) Get(ctx context.Context, organizerID string) (*model.Organizer, error) {
	if err := requireID(organizerID, "organizer"); err != nil {
		return nil, err
	}
	o, err := s.organizers.GetByID(ctx, organizerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("organizer not found")
		}
		return nil, fmt.Errorf("get organizer: %w", err)
	}
	return o, nil
}

// Update applies a partial update. Only the owner or an admin may update.
func (s *OrganizerService) Update(ctx context.Context, user *auth.User, organizerID string, req model.UpdateOrganizerRequest) (*model.Organizer, error) {
	o, err := s.owned(ctx, user, organizerID)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(&req, "invalid organizer update"); err != nil {
		return nil, err
	}

	if req.Name != nil {
		o.Name = strings.TrimSpace(*req.Name)
	}
	if req.Contact != nil {
		o.Contact = strings.TrimSpace(*req.Contact)
	}
	if req.Website != nil {
		o.Website = *req.Website
	}
	if req.Description != nil {
		o.Description = *req.Description
	}
	o.UpdatedAt = s.now().UTC()

	if err := s.organizers.Update(ctx, o); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("organizer not found")
		}
		return nil, fmt.Errorf("update organizer: %w", err)
	}
	return o, nil
}

// Delete removes an organizer that no longer owns any events.
func (s *OrganizerService) Delete(ctx context.Context, user *auth.User, organizerID string) error {
	o, err := s.owned(ctx, user, organizerID)
	if err != nil {
		return err
	}
	n, err := s.events.CountByOrganizer(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("count organizer events: %w", err)
	}
	if n > 0 {
		return apperr.Conflict("organizer still has events").WithDetails(map[string]any{"eventCount": n})
	}
	if err := s.organizers.Delete(ctx, o.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("organizer not found")
		}
		return fmt.Errorf("delete organizer: %w", err)
	}
	log.Info().Str("organizer_id", o.ID).Msg("organizer deleted")
	return nil
}

func (s *OrganizerService) owned(ctx context.Context, user *auth.User, organizerID string) (*model.Organizer, error) {
	if user == nil {
		return nil, apperr.Authentication("authentication required")
	}
	o, err := s.Get(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	if o.AccountID != user.ID && user.Role != auth.RoleAdmin {
		return nil, apperr.Authorization("access denied")
	}
	return o, nil
}
