package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/event-registration/internal/model"
	"github.com/Shivanand-hulikatti/event-registration/internal/pagination"
)

const eventColumns = `id, creator_id, organizer_id, title, type, date, is_featured, is_team_event,
	is_relay, is_enabled, required_participants, max_participants, current_participants,
	location, description, distance, registration_fee, registration_deadline, image,
	difficulty, tags, slug, created_at, updated_at`

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

func scanEvent(row pgx.Row) (model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.CreatorID, &e.OrganizerID, &e.Title, &e.Type, &e.Date, &e.IsFeatured, &e.IsTeamEvent,
		&e.IsRelay, &e.IsEnabled, &e.RequiredParticipants, &e.MaxParticipants, &e.CurrentParticipants,
		&e.Location, &e.Description, &e.Distance, &e.RegistrationFee, &e.RegistrationDeadline, &e.Image,
		&e.Difficulty, &e.Tags, &e.Slug, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`,
		e.ID, e.CreatorID, e.OrganizerID, e.Title, e.Type, e.Date, e.IsFeatured, e.IsTeamEvent,
		e.IsRelay, e.IsEnabled, e.RequiredParticipants, e.MaxParticipants, e.CurrentParticipants,
		e.Location, e.Description, e.Distance, e.RegistrationFee, e.RegistrationDeadline, e.Image,
		e.Difficulty, tags, e.Slug, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return ErrSlugTaken
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	return r.getOne(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

// GetBySlug returns the event with the given slug or ErrNotFound.
func (r *EventRepository) GetBySlug(ctx context.Context, slug string) (*model.Event, error) {
	return r.getOne(ctx, `SELECT `+eventColumns+` FROM events WHERE slug = $1`, slug)
}

func (r *EventRepository) getOne(ctx context.Context, query string, arg any) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

// ListByType returns events of one type ordered by date.
func (r *EventRepository) ListByType(ctx context.Context, eventType string, limit int, after *pagination.Cursor) ([]model.Event, error) {
	return r.list(ctx, "type = $1", []any{eventType}, limit, after)
}

// ListByDifficulty returns events of one difficulty ordered by date.
func (r *EventRepository) ListByDifficulty(ctx context.Context, difficulty string, limit int, after *pagination.Cursor) ([]model.Event, error) {
	return r.list(ctx, "difficulty = $1", []any{difficulty}, limit, after)
}

// ListEnabled returns enabled events ordered by date.
func (r *EventRepository) ListEnabled(ctx context.Context, limit int, after *pagination.Cursor) ([]model.Event, error) {
	return r.list(ctx, "is_enabled = $1", []any{true}, limit, after)
}

// ListFeatured returns enabled, featured events ordered by date.
func (r *EventRepository) ListFeatured(ctx context.Context, limit int, after *pagination.Cursor) ([]model.Event, error) {
	return r.list(ctx, "is_featured = $1 AND is_enabled = $1", []any{true}, limit, after)
}

// ListByCreator returns events created by one account.
func (r *EventRepository) ListByCreator(ctx context.Context, creatorID string, limit int, after *pagination.Cursor) ([]model.Event, error) {
	return r.list(ctx, "creator_id = $1", []any{creatorID}, limit, after)
}

// ListByOrganizer returns events published by one organizer.
func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID string, limit int, after *pagination.Cursor) ([]model.Event, error) {
	return r.list(ctx, "organizer_id = $1", []any{organizerID}, limit, after)
}

func (r *EventRepository) list(ctx context.Context, where string, args []any, limit int, after *pagination.Cursor) ([]model.Event, error) {
	query, args := keyset(`SELECT `+eventColumns+` FROM events WHERE `+where, args, limit, after)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Event, error) {
		return scanEvent(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return events, nil
}

// Update writes the mutable columns of e. Slug, team flag and participant
// count are never written here.
func (r *EventRepository) Update(ctx context.Context, e *model.Event) error {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE events SET title = $2, type = $3, date = $4, is_featured = $5, is_relay = $6,
			is_enabled = $7, required_participants = $8, max_participants = $9, location = $10,
			description = $11, distance = $12, registration_fee = $13, registration_deadline = $14,
			image = $15, difficulty = $16, tags = $17, updated_at = $18
		 WHERE id = $1`,
		e.ID, e.Title, e.Type, e.Date, e.IsFeatured, e.IsRelay,
		e.IsEnabled, e.RequiredParticipants, e.MaxParticipants, e.Location,
		e.Description, e.Distance, e.RegistrationFee, e.RegistrationDeadline,
		e.Image, e.Difficulty, tags, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByOrganizer returns the number of events owned by an organizer.
func (r *EventRepository) CountByOrganizer(ctx context.Context, organizerID string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM events WHERE organizer_id = $1`, organizerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
