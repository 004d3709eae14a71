package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gatherhub/internal/domain"
)

const eventColumns = `
	id, team_id, created_by, title, description, start_date, end_date,
	location_address, location_venue, location_lat, location_lng,
	capacity, slug, status, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (
			team_id, created_by, title, description, start_date, end_date,
			location_address, location_venue, location_lat, location_lng,
			capacity, slug, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`
	var venue sql.NullString
	if e.Location.Venue != "" {
		venue = sql.NullString{String: e.Location.Venue, Valid: true}
	}
	err := r.DB.QueryRowContext(ctx, query,
		e.TeamID, e.CreatedBy, e.Title, e.Description, e.StartDate, e.EndDate,
		e.Location.Address, venue, e.Location.Lat, e.Location.Lng,
		e.Capacity, e.Slug, string(e.Status), e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(r.DB.QueryRowContext(ctx, query, id))
}

func (r *eventRepository) GetByTeamAndSlug(ctx context.Context, teamID, slug string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE team_id = $1 AND slug = $2`
	return scanEvent(r.DB.QueryRowContext(ctx, query, teamID, slug))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var venue sql.NullString
	var lat, lng sql.NullFloat64
	var capacity sql.NullInt64
	var status string
	err := row.Scan(
		&e.ID, &e.TeamID, &e.CreatedBy, &e.Title, &e.Description, &e.StartDate, &e.EndDate,
		&e.Location.Address, &venue, &lat, &lng,
		&capacity, &e.Slug, &status, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	e.Location.Venue = venue.String
	if lat.Valid {
		e.Location.Lat = &lat.Float64
	}
	if lng.Valid {
		e.Location.Lng = &lng.Float64
	}
	if capacity.Valid {
		c := int(capacity.Int64)
		e.Capacity = &c
	}
	e.Status = domain.EventStatus(status)
	return e, nil
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events SET
			title = $1, description = $2, start_date = $3, end_date = $4,
			location_address = $5, location_venue = $6, location_lat = $7, location_lng = $8,
			capacity = $9, slug = $10, status = $11, updated_at = $12
		WHERE id = $13
	`
	var venue sql.NullString
	if e.Location.Venue != "" {
		venue = sql.NullString{String: e.Location.Venue, Valid: true}
	}
	result, err := r.DB.ExecContext(ctx, query,
		e.Title, e.Description, e.StartDate, e.EndDate,
		e.Location.Address, venue, e.Location.Lat, e.Location.Lng,
		e.Capacity, e.Slug, string(e.Status), e.UpdatedAt, e.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) ListByTeamID(ctx context.Context, teamID string, status *domain.EventStatus) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE team_id = $1`
	args := []any{teamID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}
	query += ` ORDER BY start_date DESC`
	return r.list(ctx, query, args...)
}

func (r *eventRepository) ListPublished(ctx context.Context, search string, limit int) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE status = 'published' AND start_date > NOW()
		AND ($1 = ''
			OR title ILIKE '%' || $1 || '%'
			OR description ILIKE '%' || $1 || '%'
			OR location_venue ILIKE '%' || $1 || '%'
			OR location_address ILIKE '%' || $1 || '%')
		ORDER BY start_date ASC
		LIMIT $2`
	return r.list(ctx, query, search, limit)
}

func (r *eventRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) ExistsByTeamAndSlug(ctx context.Context, teamID, slug, excludeID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM events WHERE team_id = $1 AND slug = $2 AND id::text <> $3)`
	if err := r.DB.QueryRowContext(ctx, query, teamID, slug, excludeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
