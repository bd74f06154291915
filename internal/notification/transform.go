package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-registration/internal/model"
)

// TemplateKind selects the email template.
type TemplateKind string

const (
	TemplateIndividual   TemplateKind = "individual"
	TemplateTeam         TemplateKind = "team"
	TemplateConfirmation TemplateKind = "confirmation"
)

// Template is a rendered notification ready for the email sender.
type Template struct {
	Kind    TemplateKind
	To      string
	Subject string
	Data    any
}

// IndividualTemplateData feeds the individual registration email.
type IndividualTemplateData struct {
	ParticipantName  string  `json:"participantName"`
	ParticipantEmail string  `json:"participantEmail"`
	EventName        string  `json:"eventName"`
	EventDate        string  `json:"eventDate"`
	EventTime        string  `json:"eventTime"`
	EventLocation    string  `json:"eventLocation"`
	EventDistance    string  `json:"eventDistance"`
	ReservationID    string  `json:"reservationId"`
	Amount           float64 `json:"amount"`
	PaymentReference string  `json:"paymentReference"`
}

// TeamMemberData is one row of the team email's member table.
type TeamMemberData struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	IsCaptain bool   `json:"isCaptain"`
}

// TeamTemplateData feeds the team registration email.
type TeamTemplateData struct {
	CaptainName      string           `json:"captainName"`
	CaptainEmail     string           `json:"captainEmail"`
	TeamName         string           `json:"teamName"`
	Members          []TeamMemberData `json:"members"`
	MemberCount      int              `json:"memberCount"`
	EventName        string           `json:"eventName"`
	EventDate        string           `json:"eventDate"`
	EventTime        string           `json:"eventTime"`
	EventLocation    string           `json:"eventLocation"`
	EventDistance    string           `json:"eventDistance"`
	ReservationID    string           `json:"reservationId"`
	Amount           float64          `json:"amount"`
	PaymentReference string           `json:"paymentReference"`
}

// ConfirmationTemplateData feeds the payment confirmation email.
type ConfirmationTemplateData struct {
	ParticipantName  string  `json:"participantName"`
	EventName        string  `json:"eventName"`
	EventDate        string  `json:"eventDate"`
	EventTime        string  `json:"eventTime"`
	EventLocation    string  `json:"eventLocation"`
	ReservationID    string  `json:"reservationId"`
	Amount           float64 `json:"amount"`
	PaymentReference string  `json:"paymentReference"`
	ConfirmedAt      string  `json:"confirmedAt"`
}

// Transform maps a validated message onto its template. Display fields fall
// back to "TBD", "N/A" or 0; recipient and reservation fields never do.
func Transform(msg *Message) (Template, error) {
	if msg == nil {
		return Template{}, &ValidationError{Reason: "message is nil"}
	}
	if err := Validate(msg); err != nil {
		return Template{}, err
	}

	switch {
	case msg.Type == TypePaymentConfirmed:
		return confirmationTemplate(msg), nil
	case msg.RegistrationType == model.RegistrationTeam:
		return teamTemplate(msg), nil
	default:
		return individualTemplate(msg), nil
	}
}

func individualTemplate(msg *Message) Template {
	data := IndividualTemplateData{
		ParticipantName:  fullName(msg.Participant),
		ParticipantEmail: msg.Participant.Email,
		EventName:        msg.Event.Name,
		EventDate:        orDefault(msg.Event.Date, "TBD"),
		EventTime:        orDefault(msg.Event.Time, "TBD"),
		EventLocation:    orDefault(msg.Event.Location, "TBD"),
		EventDistance:    orDefault(msg.Event.Distance, "N/A"),
		ReservationID:    msg.ReservationID,
		Amount:           amount(msg.Payment),
		PaymentReference: orDefault(msg.Payment.Reference, "N/A"),
	}
	return Template{
		Kind:    TemplateIndividual,
		To:      msg.Participant.Email,
		Subject: fmt.Sprintf("You're registered for %s", msg.Event.Name),
		Data:    data,
	}
}

func teamTemplate(msg *Message) Template {
	members := make([]TeamMemberData, len(msg.Team.Members))
	captainName, captainEmail := fullName(msg.Participant), msg.Participant.Email
	for i, m := range msg.Team.Members {
		isCaptain := m.IsCaptain != nil && *m.IsCaptain
		members[i] = TeamMemberData{Name: orDefault(m.Name, "TBD"), Email: m.Email, IsCaptain: isCaptain}
		if isCaptain {
			captainName, captainEmail = m.Name, m.Email
		}
	}
	data := TeamTemplateData{
		CaptainName:      captainName,
		CaptainEmail:     captainEmail,
		TeamName:         msg.Team.Name,
		Members:          members,
		MemberCount:      len(members),
		EventName:        msg.Event.Name,
		EventDate:        orDefault(msg.Event.Date, "TBD"),
		EventTime:        orDefault(msg.Event.Time, "TBD"),
		EventLocation:    orDefault(msg.Event.Location, "TBD"),
		EventDistance:    orDefault(msg.Event.Distance, "N/A"),
		ReservationID:    msg.ReservationID,
		Amount:           amount(msg.Payment),
		PaymentReference: orDefault(msg.Payment.Reference, "N/A"),
	}
	return Template{
		Kind:    TemplateTeam,
		To:      msg.Participant.Email,
		Subject: fmt.Sprintf("Team %s is registered for %s", msg.Team.Name, msg.Event.Name),
		Data:    data,
	}
}

func confirmationTemplate(msg *Message) Template {
	confirmedAt := "N/A"
	if !msg.CreatedAt.IsZero() {
		confirmedAt = msg.CreatedAt.UTC().Format(time.RFC3339)
	}
	data := ConfirmationTemplateData{
		ParticipantName:  fullName(msg.Participant),
		EventName:        msg.Event.Name,
		EventDate:        orDefault(msg.Event.Date, "TBD"),
		EventTime:        orDefault(msg.Event.Time, "TBD"),
		EventLocation:    orDefault(msg.Event.Location, "TBD"),
		ReservationID:    msg.ReservationID,
		Amount:           amount(msg.Payment),
		PaymentReference: msg.Payment.Reference,
		ConfirmedAt:      confirmedAt,
	}
	return Template{
		Kind:    TemplateConfirmation,
		To:      msg.Participant.Email,
		Subject: fmt.Sprintf("Payment confirmed for %s", msg.Event.Name),
		Data:    data,
	}
}

func fullName(p *ParticipantInfo) string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func amount(p *PaymentInfo) float64 {
	if p == nil || p.Amount == nil {
		return 0
	}
	return *p.Amount
}
