// Package repository implements all database queries for the registration platform.
// It uses pgx directly (no ORM) for transparency and performance.
package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Shivanand-hulikatti/event-registration/internal/pagination"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrEventFull is returned when an event cannot take the requested number of participants.
var ErrEventFull = errors.New("event is fully booked")

// ErrAlreadyRegistered is returned when an email is already registered for the event.
var ErrAlreadyRegistered = errors.New("email already registered for this event")

// ErrSlugTaken is returned when an event slug collides with an existing one.
var ErrSlugTaken = errors.New("event slug already exists")

// ErrOrganizerExists is returned when an account already owns an organizer.
var ErrOrganizerExists = errors.New("organizer already exists for this account")

// ErrAlreadyPaid is returned when a reservation's payment was already confirmed.
var ErrAlreadyPaid = errors.New("reservation is already paid")

const uniqueViolation = "23505"

// uniqueConstraint returns the name of the violated unique constraint, if any.
func uniqueConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// keyset appends a (date, id) > (after) predicate and the ordering clause.
func keyset(query string, args []any, limit int, after *pagination.Cursor) (string, []any) {
	if after != nil {
		args = append(args, after.After, after.ID)
		query += fmt.Sprintf(" AND (date, id) > ($%d, $%d)", len(args)-1, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY date ASC, id ASC LIMIT $%d", len(args))
	return query, args
}
