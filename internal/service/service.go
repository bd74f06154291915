// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/Shivanand-hulikatti/event-registration/internal/apperr"
	"github.com/Shivanand-hulikatti/event-registration/internal/auth"
	"github.com/Shivanand-hulikatti/event-registration/internal/id"
	"github.com/Shivanand-hulikatti/event-registration/internal/metrics"
	"github.com/Shivanand-hulikatti/event-registration/internal/model"
	"github.com/Shivanand-hulikatti/event-registration/internal/notification"
	"github.com/Shivanand-hulikatti/event-registration/internal/pagination"
	"github.com/Shivanand-hulikatti/event-registration/internal/repository"
)

// EventStore is the event persistence used by the services.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	GetBySlug(ctx context.Context, slug string) (*model.Event, error)
	ListByType(ctx context.Context, eventType string, limit int, after *pagination.Cursor) ([]model.Event, error)
	ListByDifficulty(ctx context.Context, difficulty string, limit int, after *pagination.Cursor) ([]model.Event, error)
	ListEnabled(ctx context.Context, limit int, after *pagination.Cursor) ([]model.Event, error)
	ListFeatured(ctx context.Context, limit int, after *pagination.Cursor) ([]model.Event, error)
	ListByCreator(ctx context.Context, creatorID string, limit int, after *pagination.Cursor) ([]model.Event, error)
	ListByOrganizer(ctx context.Context, organizerID string, limit int, after *pagination.Cursor) ([]model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	CountByOrganizer(ctx context.Context, organizerID string) (int, error)
}

// OrganizerStore is the organizer persistence used by the services.
type OrganizerStore interface {
	Create(ctx context.Context, o *model.Organizer) error
	GetByID(ctx context.Context, id string) (*model.Organizer, error)
	GetByAccount(ctx context.Context, accountID string) (*model.Organizer, error)
	Update(ctx context.Context, o *model.Organizer) error
	Delete(ctx context.Context, id string) error
}

// RegistrationStore persists reservations together with their participants.
type RegistrationStore interface {
	CreateRegistration(ctx context.Context, res *model.Reservation, participants []model.Participant) error
	GetReservation(ctx context.Context, id string) (*model.Reservation, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Reservation, error)
	MarkPaid(ctx context.Context, id, reference string, at time.Time) error
	ListParticipants(ctx context.Context, reservationID string) ([]model.Participant, error)
}

// ParticipantStore answers email lookups for an event.
type ParticipantStore interface {
	FindExistingEmails(ctx context.Context, eventID string, emails []string) ([]string, error)
}

// Publisher enqueues notification messages.
type Publisher interface {
	Publish(ctx context.Context, body []byte) (string, error)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct converts validator failures into a Validation error
// listing the offending JSON fields.
func validateStruct(v any, message string) error {
	fields, err := invalidFields(v)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	return apperr.Validation(message, map[string]any{"fields": fields})
}

func invalidFields(v any) ([]string, error) {
	err := validate.Struct(v)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("validate: %w", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		fields = append(fields, ns)
	}
	return fields, nil
}

func requireID(value, what string) error {
	if !id.IsValid(value) {
		return apperr.BadRequest(fmt.Sprintf("invalid %s id", what)).WithDetails(map[string]any{"id": value})
	}
	return nil
}

func loadEvent(ctx context.Context, events EventStore, eventID string) (*model.Event, error) {
	event, err := events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("event not found").WithDetails(map[string]any{"eventId": eventID})
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// managesEvent reports whether user administers event: admins, the
// account that created it and the account owning its organizer.
func managesEvent(ctx context.Context, organizers OrganizerStore, user *auth.User, event *model.Event) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.Role == auth.RoleAdmin || event.CreatorID == user.ID {
		return true, nil
	}
	if event.OrganizerID == "" {
		return false, nil
	}
	organizer, err := organizers.GetByID(ctx, event.OrganizerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get organizer: %w", err)
	}
	return organizer.AccountID == user.ID, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// notifier publishes notification messages. A failed publish never fails
// the operation that produced the message.
type notifier struct {
	publisher Publisher
}

func (n notifier) publish(ctx context.Context, msg notification.Message) {
	if n.publisher == nil {
		return
	}
	logger := log.With().
		Str("type", string(msg.Type)).
		Str("reservation_id", msg.ReservationID).
		Logger()

	body, err := json.Marshal(msg)
	if err != nil {
		metrics.NotificationsPublished.WithLabelValues(string(msg.Type), "error").Inc()
		logger.Error().Err(err).Msg("encode notification")
		return
	}
	messageID, err := n.publisher.Publish(ctx, body)
	if err != nil {
		metrics.NotificationsPublished.WithLabelValues(string(msg.Type), "error").Inc()
		logger.Error().Err(err).Msg("publish notification")
		return
	}
	metrics.NotificationsPublished.WithLabelValues(string(msg.Type), "ok").Inc()
	logger.Debug().Str("message_id", messageID).Msg("notification published")
}
