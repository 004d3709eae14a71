package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"gatherhub/internal/domain"
)

type inviteRepository struct {
	DB *sql.DB
}

func NewInviteRepository(db *sql.DB) domain.InviteRepository {
	return &inviteRepository{
		DB: db,
	}
}

// Create inserts the invite. An expired row still holding the same code is
// reclaimed first so expired codes count as free; the code's unique
// constraint then arbitrates races between live allocators.
func (r *inviteRepository) Create(ctx context.Context, inv *domain.Invite) error {
	reclaim := `DELETE FROM team_invites WHERE code = $1 AND expires_at <= NOW()`
	if _, err := r.DB.ExecContext(ctx, reclaim, inv.Code); err != nil {
		return err
	}
	query := `
		INSERT INTO team_invites (team_id, email, role, code, invited_by, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		inv.TeamID, inv.Email, string(inv.Role), inv.Code, inv.InvitedBy, inv.ExpiresAt, inv.CreatedAt,
	).Scan(&inv.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *inviteRepository) GetByID(ctx context.Context, id string) (*domain.Invite, error) {
	query := `
		SELECT id, team_id, email, role, code, invited_by, expires_at, created_at
		FROM team_invites
		WHERE id = $1
	`
	return scanInvite(r.DB.QueryRowContext(ctx, query, id))
}

func (r *inviteRepository) GetByCode(ctx context.Context, code string) (*domain.Invite, error) {
	query := `
		SELECT id, team_id, email, role, code, invited_by, expires_at, created_at
		FROM team_invites
		WHERE code = $1
	`
	return scanInvite(r.DB.QueryRowContext(ctx, query, code))
}

func (r *inviteRepository) GetByTeamAndEmail(ctx context.Context, teamID, email string) (*domain.Invite, error) {
	query := `
		SELECT id, team_id, email, role, code, invited_by, expires_at, created_at
		FROM team_invites
		WHERE team_id = $1 AND email = $2
	`
	return scanInvite(r.DB.QueryRowContext(ctx, query, teamID, strings.ToLower(email)))
}

func scanInvite(row rowScanner) (*domain.Invite, error) {
	inv := &domain.Invite{}
	var role string
	err := row.Scan(&inv.ID, &inv.TeamID, &inv.Email, &role, &inv.Code,
		&inv.InvitedBy, &inv.ExpiresAt, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	inv.Role = domain.Role(role)
	return inv, nil
}

func (r *inviteRepository) ListByTeamID(ctx context.Context, teamID string) ([]*domain.Invite, error) {
	query := `
		SELECT id, team_id, email, role, code, invited_by, expires_at, created_at
		FROM team_invites
		WHERE team_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	invites := make([]*domain.Invite, 0)
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

func (r *inviteRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM team_invites WHERE id = $1`
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

func (r *inviteRepository) CodeInUse(ctx context.Context, code string, now time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM team_invites WHERE code = $1 AND expires_at > $2)`
	if err := r.DB.QueryRowContext(ctx, query, code, now).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
