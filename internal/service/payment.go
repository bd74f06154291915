package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Shivanand-hulikatti/event-registration/internal/apperr"
	"github.com/Shivanand-hulikatti/event-registration/internal/model"
	"github.com/Shivanand-hulikatti/event-registration/internal/notification"
	"github.com/Shivanand-hulikatti/event-registration/internal/repository"
)

// PaymentService records payments against reservations.
type PaymentService struct {
	events        EventStore
	registrations RegistrationStore
	notifier      notifier
	now           func() time.Time
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(events EventStore, registrations RegistrationStore, publisher Publisher) *PaymentService {
	return &PaymentService{
		events:        events,
		registrations: registrations,
		notifier:      notifier{publisher: publisher},
		now:           time.Now,
	}
}

// ConfirmPayment marks a reservation paid and queues the confirmation email.
// Confirming twice is a Conflict.
func (s *PaymentService) ConfirmPayment(ctx context.Context, reservationID, reference string) (*model.Reservation, error) {
	if err := requireID(reservationID, "reservation"); err != nil {
		return nil, err
	}
	reference = strings.TrimSpace(reference)
	if err := validateStruct(&model.PaymentUpdateRequest{Reference: reference}, "invalid payment"); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.registrations.MarkPaid(ctx, reservationID, reference, now); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("registration not found")
		case errors.Is(err, repository.ErrAlreadyPaid):
			return nil, apperr.Conflict("registration is already paid")
		}
		return nil, fmt.Errorf("mark paid: %w", err)
	}

	res, err := s.registrations.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("reload registration: %w", err)
	}
	log.Info().Str("reservation_id", res.ID).Str("event_id", res.EventID).Msg("payment confirmed")

	event, err := s.events.GetByID(ctx, res.EventID)
	if err != nil {
		log.Error().Err(err).Str("reservation_id", res.ID).Msg("load event for payment notification")
		return res, nil
	}
	participants, err := s.registrations.ListParticipants(ctx, res.ID)
	if err != nil {
		log.Error().Err(err).Str("reservation_id", res.ID).Msg("load participants for payment notification")
		return res, nil
	}
	s.notifier.publish(ctx, notification.NewPaymentConfirmed(*res, *event, participants, now))
	return res, nil
}
