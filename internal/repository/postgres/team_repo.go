package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"gatherhub/internal/domain"
)

// uniqueViolation is the Postgres error code for unique constraint failures.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

type teamRepository struct {
	DB *sql.DB
}

func NewTeamRepository(db *sql.DB) domain.TeamRepository {
	return &teamRepository{
		DB: db,
	}
}

func (r *teamRepository) Create(ctx context.Context, t *domain.Team) error {
	query := `
		INSERT INTO teams (name, description, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, t.Name, t.Description, t.Slug, t.CreatedAt, t.UpdatedAt).
		Scan(&t.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	query := `
		SELECT id, name, description, slug, created_at, updated_at
		FROM teams
		WHERE id = $1
	`
	return r.scanTeam(r.DB.QueryRowContext(ctx, query, id))
}

func (r *teamRepository) GetBySlug(ctx context.Context, slug string) (*domain.Team, error) {
	query := `
		SELECT id, name, description, slug, created_at, updated_at
		FROM teams
		WHERE slug = $1
	`
	return r.scanTeam(r.DB.QueryRowContext(ctx, query, slug))
}

func (r *teamRepository) scanTeam(row *sql.Row) (*domain.Team, error) {
	t := &domain.Team{}
	var descNull sql.NullString
	err := row.Scan(&t.ID, &t.Name, &descNull, &t.Slug, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	t.Description = descNull.String
	return t, nil
}

func (r *teamRepository) Update(ctx context.Context, t *domain.Team) error {
	query := `
		UPDATE teams
		SET name = $1, description = $2, slug = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := r.DB.ExecContext(ctx, query, t.Name, t.Description, t.Slug, t.UpdatedAt, t.ID)
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

func (r *teamRepository) ListFeatured(ctx context.Context, now, since time.Time, limit int) ([]*domain.FeaturedTeam, error) {
	// The inner join keeps only teams with a published event after since, so
	// every row has recent >= 1.
	query := `
		SELECT t.id, t.name, t.description, t.slug, t.created_at, t.updated_at,
			COUNT(*) FILTER (WHERE e.start_date > $1) AS upcoming,
			COUNT(*) AS recent,
			(SELECT COUNT(*) FROM team_members m WHERE m.team_id = t.id) AS member_count
		FROM teams t
		JOIN events e ON e.team_id = t.id AND e.status = 'published' AND e.start_date > $2
		GROUP BY t.id, t.name, t.description, t.slug, t.created_at, t.updated_at
		ORDER BY COUNT(*) + COUNT(*) FILTER (WHERE e.start_date > $1) DESC, t.created_at ASC
		LIMIT $3
	`
	rows, err := r.DB.QueryContext(ctx, query, now, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	featured := make([]*domain.FeaturedTeam, 0)
	for rows.Next() {
		t := &domain.Team{}
		ft := &domain.FeaturedTeam{Team: t}
		var descNull sql.NullString
		err := rows.Scan(&t.ID, &t.Name, &descNull, &t.Slug, &t.CreatedAt, &t.UpdatedAt,
			&ft.UpcomingEvents, &ft.RecentEvents, &ft.MemberCount)
		if err != nil {
			return nil, err
		}
		t.Description = descNull.String
		featured = append(featured, ft)
	}
	return featured, rows.Err()
}

func (r *teamRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM teams WHERE slug = $1)`
	if err := r.DB.QueryRowContext(ctx, query, slug).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
