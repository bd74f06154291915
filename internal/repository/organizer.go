package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/event-registration/internal/model"
)

const organizerColumns = `id, account_id, name, contact, website, description, created_at, updated_at`

// OrganizerRepository handles persistence for organizers.
type OrganizerRepository struct {
	db *pgxpool.Pool
}

// NewOrganizerRepository constructs an OrganizerRepository.
func NewOrganizerRepository(db *pgxpool.Pool) *OrganizerRepository {
	return &OrganizerRepository{db: db}
}

// Create inserts a new organizer.
func (r *OrganizerRepository) Create(ctx context.Context, o *model.Organizer) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO organizers (`+organizerColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.AccountID, o.Name, o.Contact, o.Website, o.Description, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return ErrOrganizerExists
		}
		return fmt.Errorf("insert organizer: %w", err)
	}
	return nil
}

// GetByID returns a single organizer or ErrNotFound.
func (r *OrganizerRepository) GetByID(ctx context.Context, id string) (*model.Organizer, error) {
	return r.getOne(ctx, `SELECT `+organizerColumns+` FROM organizers WHERE id = $1`, id)
}

// GetByAccount returns the organizer owned by an external account or ErrNotFound.
func (r *OrganizerRepository) GetByAccount(ctx context.Context, accountID string) (*model.Organizer, error) {
	return r.getOne(ctx, `SELECT `+organizerColumns+` FROM organizers WHERE account_id = $1`, accountID)
}

func (r *OrganizerRepository) getOne(ctx context.Context, query string, arg any) (*model.Organizer, error) {
	var o model.Organizer
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&o.ID, &o.AccountID, &o.Name, &o.Contact, &o.Website, &o.Description, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get organizer: %w", err)
	}
	return &o, nil
}

// Update writes the mutable organizer columns.
func (r *OrganizerRepository) Update(ctx context.Context, o *model.Organizer) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE organizers SET name = $2, contact = $3, website = $4, description = $5, updated_at = $6
		 WHERE id = $1`,
		o.ID, o.Name, o.Contact, o.Website, o.Description, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update organizer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an organizer.
func (r *OrganizerRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM organizers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete organizer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
