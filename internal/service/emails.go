package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Shivanand-hulikatti/event-registration/internal/apperr"
)

// EmailValidator rejects emails that repeat within a submission or are
// already registered for the event. Comparison is case-insensitive.
type EmailValidator struct {
	participants ParticipantStore
}

// NewEmailValidator constructs an EmailValidator.
func NewEmailValidator(participants ParticipantStore) *EmailValidator {
	return &EmailValidator{participants: participants}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateTeamEmails returns the normalized emails in submission order.
func (v *EmailValidator) ValidateTeamEmails(ctx context.Context, eventID string, emails []string) ([]string, error) {
	normalized := make([]string, len(emails))
	for i, e := range emails {
		normalized[i] = NormalizeEmail(e)
	}
	if err := checkDuplicates(normalized); err != nil {
		return nil, err
	}

	existing, err := v.participants.FindExistingEmails(ctx, eventID, normalized)
	if err != nil {
		return nil, fmt.Errorf("find existing emails: %w", err)
	}
	if len(existing) > 0 {
		slices.Sort(existing)
		msg := "email already registered for this event"
		if len(existing) > 1 {
			msg = "emails already registered for this event"
		}
		return nil, apperr.Conflict(msg).WithDetails(map[string]any{"existingEmails": existing})
	}
	return normalized, nil
}

// ValidateIndividualEmail is the single-participant form of ValidateTeamEmails.
func (v *EmailValidator) ValidateIndividualEmail(ctx context.Context, eventID, email string) (string, error) {
	normalized, err := v.ValidateTeamEmails(ctx, eventID, []string{email})
	if err != nil {
		return "", err
	}
	return normalized[0], nil
}

func checkDuplicates(emails []string) error {
	positions := make(map[string][]int, len(emails))
	var order []string
	for i, e := range emails {
		if _, seen := positions[e]; !seen {
			order = append(order, e)
		}
		positions[e] = append(positions[e], i)
	}

	var (
		duplicates []string
		indexes    []int
	)
	for _, e := range order {
		if len(positions[e]) > 1 {
			duplicates = append(duplicates, e)
			indexes = append(indexes, positions[e]...)
		}
	}
	if len(duplicates) == 0 {
		return nil
	}
	slices.Sort(indexes)
	return apperr.Conflict("duplicate emails in submission").WithDetails(map[string]any{
		"duplicateEmails": duplicates,
		"indexes":         indexes,
	})
}
