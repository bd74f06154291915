package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Shivanand-hulikatti/event-registration/internal/model"
)

// ValidationError reports a malformed message. Such messages are never
// retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid notification message: " + e.Reason
	}
	return fmt.Sprintf("invalid notification message: %s %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseAndValidate decodes a queued message body and checks every field the
// selected template depends on.
func ParseAndValidate(body []byte) (*Message, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, &ValidationError{Reason: "empty body"}
	}
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, &ValidationError{Reason: "malformed JSON: " + err.Error()}
	}
	if err := Validate(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Validate checks a decoded message.
func Validate(msg *Message) error {
	switch msg.Type {
	case TypeRegistrationSuccess, TypePaymentConfirmed:
	case "":
		return &ValidationError{Field: "type", Reason: "is required"}
	default:
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("%q is not supported", msg.Type)}
	}

	if strings.TrimSpace(msg.ReservationID) == "" {
		return &ValidationError{Field: "reservationId", Reason: "is required"}
	}
	if err := validateSection("participant", msg.Participant); err != nil {
		return err
	}
	if err := validateSection("event", msg.Event); err != nil {
		return err
	}
	if err := validateSection("payment", msg.Payment); err != nil {
		return err
	}

	if msg.Type != TypeRegistrationSuccess {
		return nil
	}
	switch msg.RegistrationType {
	case model.RegistrationIndividual:
		return nil
	case model.RegistrationTeam:
		return validateSection("team", msg.Team)
	case "":
		return &ValidationError{Field: "registrationType", Reason: "is required"}
	default:
		return &ValidationError{Field: "registrationType", Reason: fmt.Sprintf("%q is not supported", msg.RegistrationType)}
	}
}

func validateSection[T any](name string, section *T) error {
	if section == nil {
		return &ValidationError{Field: name, Reason: "is required"}
	}
	err := validate.Struct(section)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: name, Reason: err.Error()}
	}
	fe := verrs[0]
	return &ValidationError{Field: name + "." + fieldPath(fe), Reason: reason(fe)}
}

// fieldPath turns "TeamInfo.Members[0].Email" into "members[0].email".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	parts := strings.Split(ns, ".")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must not be empty"
	case "email":
		return "must be a valid email"
	case "gte":
		return "must not be negative"
	default:
		return "failed " + fe.Tag()
	}
}
