package service

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/event-registration/internal/apperr"
	"github.com/Shivanand-hulikatti/event-registration/internal/model"
)

// CapacityResult describes whether an event can take the requested spots.
type CapacityResult struct {
	IsValid             bool `json:"isValid"`
	AvailableSpots      int  `json:"availableSpots"`
	RequestedSpots      int  `json:"requestedSpots"`
	MaxParticipants     int  `json:"maxParticipants"`
	CurrentParticipants int  `json:"currentParticipants"`
}

func (r CapacityResult) details() map[string]any {
	return map[string]any{
		"availableSpots":      r.AvailableSpots,
		"requestedSpots":      r.RequestedSpots,
		"maxParticipants":     r.MaxParticipants,
		"currentParticipants": r.CurrentParticipants,
	}
}

// CapacityService checks remaining event capacity.
type CapacityService struct {
	events EventStore
}

// NewCapacityService constructs a CapacityService.
func NewCapacityService(events EventStore) *CapacityService {
	return &CapacityService{events: events}
}

// ValidateCapacity reports whether requested spots fit. A non-positive
// request is a caller bug and returns a plain error.
func (s *CapacityService) ValidateCapacity(ctx context.Context, eventID string, requested int) (CapacityResult, error) {
	if requested <= 0 {
		return CapacityResult{}, fmt.Errorf("requested spots must be positive, got %d", requested)
	}
	event, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return CapacityResult{}, err
	}
	return capacityFor(event, requested), nil
}

// ValidateIndividualRegistration fails with Conflict when the event is full.
func (s *CapacityService) ValidateIndividualRegistration(ctx context.Context, eventID string) (CapacityResult, error) {
	res, err := s.ValidateCapacity(ctx, eventID, 1)
	if err != nil {
		return res, err
	}
	if !res.IsValid {
		return res, fullError(res)
	}
	return res, nil
}

// ValidateTeamRegistration requires teamSize to equal the event's required
// participants and to fit in the remaining capacity.
func (s *CapacityService) ValidateTeamRegistration(ctx context.Context, eventID string, teamSize int) (CapacityResult, error) {
	if teamSize <= 0 {
		return CapacityResult{}, fmt.Errorf("team size must be positive, got %d", teamSize)
	}
	event, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return CapacityResult{}, err
	}
	return checkTeam(event, teamSize)
}

func capacityFor(event *model.Event, requested int) CapacityResult {
	available := event.Remaining()
	return CapacityResult{
		IsValid:             available >= requested,
		AvailableSpots:      available,
		RequestedSpots:      requested,
		MaxParticipants:     event.MaxParticipants,
		CurrentParticipants: event.CurrentParticipants,
	}
}

func checkIndividual(event *model.Event) (CapacityResult, error) {
	res := capacityFor(event, 1)
	if !res.IsValid {
		return res, fullError(res)
	}
	return res, nil
}

func checkTeam(event *model.Event, teamSize int) (CapacityResult, error) {
	if teamSize != event.RequiredParticipants {
		return CapacityResult{}, apperr.Conflict(
			fmt.Sprintf("team must have exactly %d participants", event.RequiredParticipants),
		).WithDetails(map[string]any{
			"requiredParticipants": event.RequiredParticipants,
			"providedParticipants": teamSize,
		})
	}
	res := capacityFor(event, teamSize)
	if !res.IsValid {
		return res, fullError(res)
	}
	return res, nil
}

func fullError(res CapacityResult) error {
	if res.AvailableSpots <= 0 {
		return apperr.Conflict("event is fully booked").WithDetails(res.details())
	}
	return apperr.Conflict(
		fmt.Sprintf("only %d spots left, %d requested", res.AvailableSpots, res.RequestedSpots),
	).WithDetails(res.details())
}
