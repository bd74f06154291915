package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/event-registration/internal/model"
)

const reservationColumns = `id, event_id, type, team_name, payment_status, payment_reference,
	participant_count, registration_fee, created_at, updated_at`

const participantColumns = `id, reservation_id, event_id, email, first_name, last_name, waiver,
	newsletter_promotional, role, details, created_at`

// RegistrationRepository handles persistence for reservations and participants.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// CreateRegistration writes a reservation, its participants and the event
// count increment in one transaction.
//
// The increment is conditional on remaining capacity, so two concurrent
// registrations that both passed the service-level capacity check cannot
// push current_participants past max_participants: the second UPDATE waits
// on the first one's row lock, re-evaluates the predicate and matches no row.
// The unique index on (event_id, lower(email)) plays the same role for
// duplicate emails.
func (r *RegistrationRepository) CreateRegistration(ctx context.Context, res *model.Reservation, participants []model.Participant) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE events
		 SET current_participants = current_participants + $2, updated_at = $3
		 WHERE id = $1 AND current_participants + $2 <= max_participants`,
		res.EventID, len(participants), res.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("increment current_participants: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, res.EventID).Scan(&exists); err != nil {
			return fmt.Errorf("check event: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrEventFull
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO reservations (`+reservationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		res.ID, res.EventID, res.Type, res.TeamName, res.PaymentStatus, res.PaymentReference,
		res.ParticipantCount, res.RegistrationFee, res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}

	batch := &pgx.Batch{}
	for _, p := range participants {
		batch.Queue(
			`INSERT INTO participants (`+participantColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			p.ID, p.ReservationID, p.EventID, p.Email, p.FirstName, p.LastName, p.Waiver,
			p.NewsletterPromotional, string(p.Role), p.Details, p.CreatedAt,
		)
	}
	br := tx.SendBatch(ctx, batch)
	for range participants {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			if _, ok := uniqueConstraint(err); ok {
				return ErrAlreadyRegistered
			}
			return fmt.Errorf("insert participant: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close participant batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func scanReservation(row pgx.Row) (model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(
		&res.ID, &res.EventID, &res.Type, &res.TeamName, &res.PaymentStatus, &res.PaymentReference,
		&res.ParticipantCount, &res.RegistrationFee, &res.CreatedAt, &res.UpdatedAt,
	)
	return res, err
}

// GetReservation returns a single reservation or ErrNotFound.
func (r *RegistrationRepository) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return &res, nil
}

// ListByEvent returns all reservations for a given event.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Reservation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE event_id = $1 ORDER BY created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	reservations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Reservation, error) {
		return scanReservation(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan reservations: %w", err)
	}
	return reservations, nil
}

// MarkPaid flips a reservation's payment status. It returns ErrAlreadyPaid
// if the reservation was paid before.
func (r *RegistrationRepository) MarkPaid(ctx context.Context, id, reference string, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE reservations SET payment_status = TRUE, payment_reference = $2, updated_at = $3
		 WHERE id = $1 AND payment_status = FALSE`,
		id, reference, at,
	)
	if err != nil {
		return fmt.Errorf("mark reservation paid: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if _, err := r.GetReservation(ctx, id); err != nil {
		return err
	}
	return ErrAlreadyPaid
}

// ListParticipants returns the participants of one reservation.
func (r *RegistrationRepository) ListParticipants(ctx context.Context, reservationID string) ([]model.Participant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE reservation_id = $1 ORDER BY created_at ASC, id ASC`,
		reservationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	participants, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Participant, error) {
		var p model.Participant
		var role string
		err := row.Scan(
			&p.ID, &p.ReservationID, &p.EventID, &p.Email, &p.FirstName, &p.LastName, &p.Waiver,
			&p.NewsletterPromotional, &role, &p.Details, &p.CreatedAt,
		)
		p.Role = model.TeamRole(role)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan participants: %w", err)
	}
	return participants, nil
}

// FindExistingEmails returns which of the given lower-cased emails are
// already registered for the event.
func (r *RegistrationRepository) FindExistingEmails(ctx context.Context, eventID string, emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT lower(email) FROM participants WHERE event_id = $1 AND lower(email) = ANY($2)`,
		eventID, emails,
	)
	if err != nil {
		return nil, fmt.Errorf("find existing emails: %w", err)
	}
	existing, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan existing emails: %w", err)
	}
	return existing, nil
}
