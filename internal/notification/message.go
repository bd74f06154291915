// Package notification defines the messages queued after registrations and
// payments, and maps them onto email template data.
package notification

import (
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-registration/internal/model"
)

// MessageType discriminates queued notification messages.
type MessageType string

const (
	TypeRegistrationSuccess MessageType = "registration_success"
	TypePaymentConfirmed    MessageType = "payment_confirmed"
)

// Message is a queued notification. Team is set only for team registrations.
type Message struct {
	Type             MessageType            `json:"type"`
	RegistrationType model.RegistrationType `json:"registrationType,omitempty"`
	ReservationID    string                 `json:"reservationId"`
	Participant      *ParticipantInfo       `json:"participant"`
	Event            *EventInfo             `json:"event"`
	Payment          *PaymentInfo           `json:"payment"`
	Team             *TeamInfo              `json:"team,omitempty"`
	CreatedAt        time.Time              `json:"createdAt"`
}

// ParticipantInfo identifies the email recipient.
type ParticipantInfo struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"`
}

// EventInfo is the event as displayed in emails.
type EventInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required"`
	Date     string `json:"date" validate:"required"`
	Time     string `json:"time" validate:"required"`
	Location string `json:"location" validate:"required"`
	Distance string `json:"distance,omitempty"`
}

// PaymentInfo carries the amount due or paid and its reference.
type PaymentInfo struct {
	Amount    *float64 `json:"amount" validate:"required,gte=0"`
	Reference string   `json:"reference" validate:"required"`
}

// TeamInfo lists the members of a team registration.
type TeamInfo struct {
	Name    string       `json:"name" validate:"required"`
	Members []TeamMember `json:"members" validate:"required,min=1,dive"`
}

// TeamMember is one member of a registered team.
type TeamMember struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	IsCaptain *bool  `json:"isCaptain" validate:"required"`
}

// NewRegistrationSuccess builds the message sent after a registration
// commits. The first captain, or the first participant, receives the email.
func NewRegistrationSuccess(res model.Reservation, event model.Event, participants []model.Participant, now time.Time) Message {
	msg := baseMessage(TypeRegistrationSuccess, res, event, participants, now)
	msg.RegistrationType = res.Type
	msg.Payment = &PaymentInfo{Amount: ptr(res.RegistrationFee), Reference: res.ID}
	if res.Type == model.RegistrationTeam {
		team := &TeamInfo{Name: res.TeamName, Members: make([]TeamMember, len(participants))}
		for i, p := range participants {
			team.Members[i] = TeamMember{
				Name:      p.FullName(),
				Email:     p.Email,
				IsCaptain: ptr(p.Role == model.TeamRoleCaptain),
			}
		}
		msg.Team = team
	}
	return msg
}

// NewPaymentConfirmed builds the message sent after a payment is recorded.
func NewPaymentConfirmed(res model.Reservation, event model.Event, participants []model.Participant, now time.Time) Message {
	msg := baseMessage(TypePaymentConfirmed, res, event, participants, now)
	msg.RegistrationType = res.Type
	msg.Payment = &PaymentInfo{Amount: ptr(res.RegistrationFee), Reference: res.PaymentReference}
	return msg
}

func baseMessage(t MessageType, res model.Reservation, event model.Event, participants []model.Participant, now time.Time) Message {
	msg := Message{
		Type:          t,
		ReservationID: res.ID,
		Event: &EventInfo{
			ID:       event.ID,
			Name:     event.Title,
			Date:     event.Date.Format("2006-01-02"),
			Time:     event.Date.Format("15:04"),
			Location: orDefault(event.Location, "TBD"),
			Distance: event.Distance,
		},
		CreatedAt: now.UTC(),
	}
	if p := recipient(participants); p != nil {
		msg.Participant = &ParticipantInfo{Email: p.Email, FirstName: p.FirstName, LastName: p.LastName}
	}
	return msg
}

func recipient(participants []model.Participant) *model.Participant {
	for i := range participants {
		if participants[i].Role == model.TeamRoleCaptain {
			return &participants[i]
		}
	}
	if len(participants) > 0 {
		return &participants[0]
	}
	return nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func ptr[T any](v T) *T { return &v }
