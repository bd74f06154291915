// Package model defines the core domain types for the event registration platform.
package model

import (
	"strings"
	"time"
)

// RegistrationType distinguishes single-person and team reservations.
type RegistrationType string

const (
	RegistrationIndividual RegistrationType = "individual"
	RegistrationTeam       RegistrationType = "team"
)

// Valid reports whether t is a known registration type.
func (t RegistrationType) Valid() bool {
	return t == RegistrationIndividual || t == RegistrationTeam
}

// Event represents a race or activity published by an organizer.
type Event struct {
	ID                   string     `json:"id"`
	CreatorID            string     `json:"creatorId"`
	OrganizerID          string     `json:"organizerId"`
	Title                string     `json:"title"`
	Type                 string     `json:"type"`
	Date                 time.Time  `json:"date"`
	IsFeatured           bool       `json:"isFeatured"`
	IsTeamEvent          bool       `json:"isTeamEvent"`
	IsRelay              bool       `json:"isRelay"`
	IsEnabled            bool       `json:"isEnabled"`
	RequiredParticipants int        `json:"requiredParticipants"`
	MaxParticipants      int        `json:"maxParticipants"`
	CurrentParticipants  int        `json:"currentParticipants"`
	Location             string     `json:"location"`
	Description          string     `json:"description"`
	Distance             string     `json:"distance"`
	RegistrationFee      float64    `json:"registrationFee"`
	RegistrationDeadline *time.Time `json:"registrationDeadline,omitempty"`
	Image                string     `json:"image"`
	Difficulty           string     `json:"difficulty"`
	Tags                 []string   `json:"tags"`
	Slug                 string     `json:"slug"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// Remaining returns the number of available spots.
func (e *Event) Remaining() int {
	return e.MaxParticipants - e.CurrentParticipants
}

// IsFull returns true when no spots remain.
func (e *Event) IsFull() bool {
	return e.CurrentParticipants >= e.MaxParticipants
}

// RegistrationType returns the registration path the event accepts.
func (e *Event) RegistrationType() RegistrationType {
	if e.IsTeamEvent {
		return RegistrationTeam
	}
	return RegistrationIndividual
}

// RegistrationOpen reports whether registrations are still accepted at now.
func (e *Event) RegistrationOpen(now time.Time) bool {
	if !e.IsEnabled {
		return false
	}
	return e.RegistrationDeadline == nil || !now.After(*e.RegistrationDeadline)
}

// Organizer is the person or company that owns and publishes events.
type Organizer struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"accountId"`
	Name        string    `json:"name"`
	Contact     string    `json:"contact"`
	Website     string    `json:"website,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Reservation is one registration covering one or more participants.
type Reservation struct {
	ID               string           `json:"id"`
	EventID          string           `json:"eventId"`
	Type             RegistrationType `json:"type"`
	TeamName         string           `json:"teamName,omitempty"`
	PaymentStatus    bool             `json:"paymentStatus"`
	PaymentReference string           `json:"paymentReference,omitempty"`
	ParticipantCount int              `json:"participantCount"`
	RegistrationFee  float64          `json:"registrationFee"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// TeamRole is the role a participant plays within a team.
type TeamRole string

const (
	TeamRoleCaptain TeamRole = "captain"
	TeamRoleMember  TeamRole = "member"
)

// ParticipantDetails holds the optional personal, medical and emergency
// contact fields collected at registration.
type ParticipantDetails struct {
	Phone                 string `json:"phone,omitempty"`
	DateOfBirth           string `json:"dateOfBirth,omitempty"`
	Gender                string `json:"gender,omitempty"`
	Address               string `json:"address,omitempty"`
	City                  string `json:"city,omitempty"`
	State                 string `json:"state,omitempty"`
	ZipCode               string `json:"zipCode,omitempty"`
	Country               string `json:"country,omitempty"`
	ShirtSize             string `json:"shirtSize,omitempty"`
	EmergencyName         string `json:"emergencyName,omitempty"`
	EmergencyPhone        string `json:"emergencyPhone,omitempty"`
	EmergencyRelationship string `json:"emergencyRelationship,omitempty"`
	MedicalConditions     string `json:"medicalConditions,omitempty"`
	Allergies             string `json:"allergies,omitempty"`
	Medications           string `json:"medications,omitempty"`
	BloodType             string `json:"bloodType,omitempty"`
}

// Participant is one registered person tied to a reservation and event.
type Participant struct {
	ID                    string             `json:"id"`
	ReservationID         string             `json:"reservationId"`
	EventID               string             `json:"eventId"`
	Email                 string             `json:"email"`
	FirstName             string             `json:"firstName"`
	LastName              string             `json:"lastName"`
	Waiver                bool               `json:"waiver"`
	NewsletterPromotional bool               `json:"newsletterPromotional"`
	Role                  TeamRole           `json:"role,omitempty"`
	Details               ParticipantDetails `json:"details"`
	CreatedAt             time.Time          `json:"createdAt"`
}

// FullName returns the participant's display name.
func (p *Participant) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// RegistrationDetails is a reservation together with its participants.
type RegistrationDetails struct {
	Reservation  Reservation   `json:"reservation"`
	Participants []Participant `json:"participants"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	OrganizerID          string     `json:"organizerId" validate:"required"`
	Title                string     `json:"title" validate:"required,max=200"`
	Type                 string     `json:"type" validate:"required,max=50"`
	Date                 time.Time  `json:"date" validate:"required"`
	IsTeamEvent          bool       `json:"isTeamEvent"`
	IsRelay              bool       `json:"isRelay"`
	IsFeatured           bool       `json:"isFeatured"`
	RequiredParticipants int        `json:"requiredParticipants" validate:"omitempty,gte=1,lte=100"`
	MaxParticipants      int        `json:"maxParticipants" validate:"gte=1,lte=100000"`
	Location             string     `json:"location" validate:"max=300"`
	Description          string     `json:"description"`
	Distance             string     `json:"distance" validate:"max=50"`
	RegistrationFee      float64    `json:"registrationFee" validate:"gte=0"`
	RegistrationDeadline *time.Time `json:"registrationDeadline"`
	Image                string     `json:"image" validate:"omitempty,url"`
	Difficulty           string     `json:"difficulty" validate:"max=50"`
	Tags                 []string   `json:"tags" validate:"max=20,dive,max=40"`
}

// UpdateEventRequest carries a partial update; nil fields are left unchanged.
// Slug and IsTeamEvent are accepted only so that attempts to change them can
// be rejected explicitly.
type UpdateEventRequest struct {
	Title                *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Type                 *string    `json:"type" validate:"omitempty,min=1,max=50"`
	Date                 *time.Time `json:"date"`
	IsFeatured           *bool      `json:"isFeatured"`
	IsRelay              *bool      `json:"isRelay"`
	IsEnabled            *bool      `json:"isEnabled"`
	IsTeamEvent          *bool      `json:"isTeamEvent"`
	Slug                 *string    `json:"slug"`
	RequiredParticipants *int       `json:"requiredParticipants" validate:"omitempty,gte=1,lte=100"`
	MaxParticipants      *int       `json:"maxParticipants" validate:"omitempty,gte=1,lte=100000"`
	Location             *string    `json:"location" validate:"omitempty,max=300"`
	Description          *string    `json:"description"`
	Distance             *string    `json:"distance" validate:"omitempty,max=50"`
	RegistrationFee      *float64   `json:"registrationFee" validate:"omitempty,gte=0"`
	RegistrationDeadline *time.Time `json:"registrationDeadline"`
	Image                *string    `json:"image" validate:"omitempty,url"`
	Difficulty           *string    `json:"difficulty" validate:"omitempty,max=50"`
	Tags                 []string   `json:"tags" validate:"omitempty,max=20,dive,max=40"`
}

// CreateOrganizerRequest is the payload for creating an organizer.
type CreateOrganizerRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Contact     string `json:"contact" validate:"required,max=200"`
	Website     string `json:"website" validate:"omitempty,url"`
	Description string `json:"description" validate:"max=2000"`
}

// UpdateOrganizerRequest carries a partial organizer update.
type UpdateOrganizerRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Contact     *string `json:"contact" validate:"omitempty,min=1,max=200"`
	Website     *string `json:"website" validate:"omitempty,url"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// ParticipantInput is one participant as submitted by a client.
type ParticipantInput struct {
	Email                 string             `json:"email" validate:"required,email"`
	FirstName             string             `json:"firstName" validate:"required,max=100"`
	LastName              string             `json:"lastName" validate:"required,max=100"`
	Waiver                *bool              `json:"waiver" validate:"required"`
	NewsletterPromotional *bool              `json:"newsletterPromotional" validate:"required"`
	Role                  TeamRole           `json:"role" validate:"omitempty,oneof=captain member"`
	Details               ParticipantDetails `json:"details"`
}

// RegistrationRequest is the body of POST /events/{id}/registrations.
type RegistrationRequest struct {
	Type         RegistrationType   `json:"type"`
	TeamName     string             `json:"teamName"`
	Participant  *ParticipantInput  `json:"participant"`
	Participants []ParticipantInput `json:"participants"`
}

// PaymentUpdateRequest confirms payment of a reservation.
type PaymentUpdateRequest struct {
	Reference string `json:"reference" validate:"required,max=200"`
}

// ErrorResponse is the error part of the standard JSON envelope.
type ErrorResponse struct {
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}
