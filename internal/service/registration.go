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
	"github.com/Shivanand-hulikatti/event-registration/internal/metrics"
	"github.com/Shivanand-hulikatti/event-registration/internal/model"
	"github.com/Shivanand-hulikatti/event-registration/internal/notification"
	"github.com/Shivanand-hulikatti/event-registration/internal/repository"
)

// RegistrationService orchestrates individual and team registrations.
type RegistrationService struct {
	events        EventStore
	organizers    OrganizerStore
	registrations RegistrationStore
	emails        *EmailValidator
	notifier      notifier
	now           func() time.Time
}

// NewRegistrationService constructs a RegistrationService. publisher may be
// nil, in which case no notifications are sent.
func NewRegistrationService(
	events EventStore,
	organizers OrganizerStore,
	registrations RegistrationStore,
	participants ParticipantStore,
	publisher Publisher,
) *RegistrationService {
	return &RegistrationService{
		events:        events,
		organizers:    organizers,
		registrations: registrations,
		emails:        NewEmailValidator(participants),
		notifier:      notifier{publisher: publisher},
		now:           time.Now,
	}
}

// ValidationResult is the outcome of a dry-run registration.
type ValidationResult struct {
	EventID          string                 `json:"eventId"`
	Type             model.RegistrationType `json:"type"`
	ParticipantCount int                    `json:"participantCount"`
	RegistrationFee  float64                `json:"registrationFee"`
	Capacity         CapacityResult         `json:"capacity"`
}

// registrationPlan is a request that passed every check up to capacity.
type registrationPlan struct {
	event        *model.Event
	regType      model.RegistrationType
	teamName     string
	participants []model.ParticipantInput
	emails       []string
	capacity     CapacityResult
}

// Register dispatches on req.Type.
func (s *RegistrationService) Register(ctx context.Context, eventID string, req model.RegistrationRequest) (*model.RegistrationDetails, error) {
	regType, inputs, err := splitRequest(req)
	if err != nil {
		return nil, err
	}
	if regType == model.RegistrationTeam {
		return s.RegisterTeam(ctx, eventID, req.TeamName, inputs)
	}
	return s.RegisterIndividual(ctx, eventID, inputs[0])
}

// RegisterIndividual registers one participant.
func (s *RegistrationService) RegisterIndividual(ctx context.Context, eventID string, input model.ParticipantInput) (*model.RegistrationDetails, error) {
	plan, err := s.plan(ctx, eventID, model.RegistrationIndividual, "", []model.ParticipantInput{input})
	if err != nil {
		return nil, err
	}
	return s.create(ctx, plan)
}

// RegisterTeam registers a whole team in one reservation.
func (s *RegistrationService) RegisterTeam(ctx context.Context, eventID, teamName string, inputs []model.ParticipantInput) (*model.RegistrationDetails, error) {
	plan, err := s.plan(ctx, eventID, model.RegistrationTeam, teamName, inputs)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, plan)
}

// ValidateRegistration runs every check of Register without writing.
func (s *RegistrationService) ValidateRegistration(ctx context.Context, eventID string, req model.RegistrationRequest) (*ValidationResult, error) {
	regType, inputs, err := splitRequest(req)
	if err != nil {
		return nil, err
	}
	plan, err := s.plan(ctx, eventID, regType, req.TeamName, inputs)
	if err != nil {
		return nil, err
	}
	return &ValidationResult{
		EventID:          plan.event.ID,
		Type:             plan.regType,
		ParticipantCount: len(plan.participants),
		RegistrationFee:  roundCents(plan.event.RegistrationFee * float64(len(plan.participants))),
		Capacity:         plan.capacity,
	}, nil
}

// GetRegistration returns a reservation with its participants. Event
// managers see every reservation; anyone else only reservations listing
// their email. Hidden reservations are reported as not found.
func (s *RegistrationService) GetRegistration(ctx context.Context, user *auth.User, reservationID string) (*model.RegistrationDetails, error) {
	if user == nil {
		return nil, apperr.Authentication("authentication required")
	}
	if err := requireID(reservationID, "reservation"); err != nil {
		return nil, err
	}
	res, err := s.registrations.GetReservation(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("registration not found")
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	participants, err := s.registrations.ListParticipants(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	details := &model.RegistrationDetails{Reservation: *res, Participants: participants}

	if isParticipant(user, participants) {
		return details, nil
	}
	event, err := s.events.GetByID(ctx, res.EventID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event != nil {
		ok, err := managesEvent(ctx, s.organizers, user, event)
		if err != nil {
			return nil, err
		}
		if ok {
			return details, nil
		}
	}
	return nil, apperr.NotFound("registration not found")
}

// ListRegistrations returns all reservations for an event. Only the
// event's managers may list them.
func (s *RegistrationService) ListRegistrations(ctx context.Context, user *auth.User, eventID string) ([]model.Reservation, error) {
	if user == nil {
		return nil, apperr.Authentication("authentication required")
	}
	if err := requireID(eventID, "event"); err != nil {
		return nil, err
	}
	event, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return nil, err
	}
	ok, err := managesEvent(ctx, s.organizers, user, event)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Authorization("you cannot view registrations for this event")
	}
	reservations, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	return reservations, nil
}

func isParticipant(user *auth.User, participants []model.Participant) bool {
	if user.Email == "" {
		return false
	}
	for _, p := range participants {
		if strings.EqualFold(p.Email, user.Email) {
			return true
		}
	}
	return false
}

func splitRequest(req model.RegistrationRequest) (model.RegistrationType, []model.ParticipantInput, error) {
	switch req.Type {
	case model.RegistrationIndividual:
		if req.Participant != nil {
			return req.Type, []model.ParticipantInput{*req.Participant}, nil
		}
		if len(req.Participants) == 1 {
			return req.Type, req.Participants, nil
		}
		return "", nil, apperr.Validation("participant is required", map[string]any{"fields": []string{"participant"}})
	case model.RegistrationTeam:
		return req.Type, req.Participants, nil
	default:
		return "", nil, apperr.BadRequest("type must be individual or team")
	}
}

// plan runs the read-only part of a registration: input validation, event
// lookup, type match, email checks and capacity.
func (s *RegistrationService) plan(
	ctx context.Context,
	eventID string,
	regType model.RegistrationType,
	teamName string,
	inputs []model.ParticipantInput,
) (*registrationPlan, error) {
	if err := requireID(eventID, "event"); err != nil {
		return nil, err
	}
	teamName = strings.TrimSpace(teamName)
	if err := validateParticipants(regType, teamName, inputs); err != nil {
		return nil, err
	}

	event, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return nil, err
	}
	if want := event.RegistrationType(); want != regType {
		return nil, apperr.Conflict(
			fmt.Sprintf("event accepts %s registrations only", want),
		).WithDetails(map[string]any{"expected": want, "requested": regType})
	}
	if err := checkOpen(event, s.now()); err != nil {
		return nil, err
	}

	raw := make([]string, len(inputs))
	for i, in := range inputs {
		raw[i] = in.Email
	}
	emails, err := s.emails.ValidateTeamEmails(ctx, event.ID, raw)
	if err != nil {
		return nil, err
	}

	var capacity CapacityResult
	if regType == model.RegistrationTeam {
		capacity, err = checkTeam(event, len(inputs))
	} else {
		capacity, err = checkIndividual(event)
	}
	if err != nil {
		return nil, err
	}

	return &registrationPlan{
		event:        event,
		regType:      regType,
		teamName:     teamName,
		participants: inputs,
		emails:       emails,
		capacity:     capacity,
	}, nil
}

func validateParticipants(regType model.RegistrationType, teamName string, inputs []model.ParticipantInput) error {
	if len(inputs) == 0 {
		return apperr.Validation("at least one participant is required", map[string]any{"fields": []string{"participants"}})
	}
	if regType == model.RegistrationTeam && teamName == "" {
		return apperr.Validation("teamName is required", map[string]any{"fields": []string{"teamName"}})
	}
	for i := range inputs {
		fields, err := invalidFields(&inputs[i])
		if err != nil {
			return err
		}
		if len(fields) > 0 {
			return apperr.Validation(
				fmt.Sprintf("participant at index %d is invalid", i),
				map[string]any{"index": i, "fields": fields},
			)
		}
	}

	if regType == model.RegistrationTeam {
		captains := 0
		for _, in := range inputs {
			if in.Role == model.TeamRoleCaptain {
				captains++
			}
		}
		if captains > 1 {
			return apperr.Validation("a team can have only one captain", map[string]any{"fields": []string{"role"}})
		}
	}
	return nil
}

func checkOpen(event *model.Event, now time.Time) error {
	if !event.IsEnabled {
		return apperr.Conflict("event is not accepting registrations")
	}
	if !event.RegistrationOpen(now) {
		return apperr.Conflict("registration deadline has passed").
			WithDetails(map[string]any{"registrationDeadline": event.RegistrationDeadline})
	}
	return nil
}

func (s *RegistrationService) create(ctx context.Context, plan *registrationPlan) (*model.RegistrationDetails, error) {
	now := s.now().UTC()
	count := len(plan.participants)
	res := model.Reservation{
		ID:               id.New(),
		EventID:          plan.event.ID,
		Type:             plan.regType,
		TeamName:         plan.teamName,
		PaymentStatus:    false,
		ParticipantCount: count,
		RegistrationFee:  roundCents(plan.event.RegistrationFee * float64(count)),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	participants := buildParticipants(res, plan, now)

	logger := log.With().Str("event_id", res.EventID).Str("reservation_id", res.ID).Logger()

	if err := s.registrations.CreateRegistration(ctx, &res, participants); err != nil {
		switch {
		case errors.Is(err, repository.ErrEventFull):
			return nil, apperr.Conflict("event is fully booked").WithCause(err)
		case errors.Is(err, repository.ErrAlreadyRegistered):
			return nil, apperr.Conflict("email already registered for this event").WithCause(err)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("event not found")
		}
		return nil, fmt.Errorf("create registration: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues(string(res.Type)).Inc()
	metrics.ParticipantsRegistered.Add(float64(count))
	logger.Info().Str("type", string(res.Type)).Int("participants", count).Msg("registration created")

	event := *plan.event
	event.CurrentParticipants += count
	s.notifier.publish(ctx, notification.NewRegistrationSuccess(res, event, participants, now))

	return &model.RegistrationDetails{Reservation: res, Participants: participants}, nil
}

func buildParticipants(res model.Reservation, plan *registrationPlan, now time.Time) []model.Participant {
	hasCaptain := false
	for _, in := range plan.participants {
		if in.Role == model.TeamRoleCaptain {
			hasCaptain = true
		}
	}

	out := make([]model.Participant, len(plan.participants))
	for i, in := range plan.participants {
		p := model.Participant{
			ID:                    id.New(),
			ReservationID:         res.ID,
			EventID:               res.EventID,
			Email:                 plan.emails[i],
			FirstName:             strings.TrimSpace(in.FirstName),
			LastName:              strings.TrimSpace(in.LastName),
			Waiver:                *in.Waiver,
			NewsletterPromotional: *in.NewsletterPromotional,
			Details:               in.Details,
			CreatedAt:             now,
		}
		if res.Type == model.RegistrationTeam {
			p.Role = in.Role
			if p.Role == "" {
				p.Role = model.TeamRoleMember
				if !hasCaptain && i == 0 {
					p.Role = model.TeamRoleCaptain
				}
			}
		}
		out[i] = p
	}
	return out
}
