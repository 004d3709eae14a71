package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gatherhub/internal/domain"
)

type teamMemberRepository struct {
	DB *sql.DB
}

func NewTeamMemberRepository(db *sql.DB) domain.TeamMemberRepository {
	return &teamMemberRepository{
		DB: db,
	}
}

func (r *teamMemberRepository) Add(ctx context.Context, teamID, userID string, role domain.Role, joinedAt time.Time) error {
	query := `
		INSERT INTO team_members (team_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.DB.ExecContext(ctx, query, teamID, userID, string(role), joinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyMember
		}
		return err
	}
	return nil
}

func (r *teamMemberRepository) GetRole(ctx context.Context, teamID, userID string) (domain.Role, error) {
	var role string
	query := `SELECT role FROM team_members WHERE team_id = $1 AND user_id = $2`
	err := r.DB.QueryRowContext(ctx, query, teamID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return domain.Role(role), nil
}

func (r *teamMemberRepository) UpdateRole(ctx context.Context, teamID, userID string, role domain.Role) error {
	query := `UPDATE team_members SET role = $1 WHERE team_id = $2 AND user_id = $3`
	result, err := r.DB.ExecContext(ctx, query, string(role), teamID, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *teamMemberRepository) Remove(ctx context.Context, teamID, userID string) error {
	query := `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`
	result, err := r.DB.ExecContext(ctx, query, teamID, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *teamMemberRepository) ListByTeamID(ctx context.Context, teamID string) ([]*domain.TeamMember, error) {
	query := `
		SELECT m.team_id, m.user_id, u.name, u.email, m.role, m.joined_at
		FROM team_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.team_id = $1
		ORDER BY m.joined_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	members := make([]*domain.TeamMember, 0)
	for rows.Next() {
		m := &domain.TeamMember{}
		var role string
		var name sql.NullString
		if err := rows.Scan(&m.TeamID, &m.UserID, &name, &m.Email, &role, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.Name = name.String
		m.Role = domain.Role(role)
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *teamMemberRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.TeamMember, error) {
	query := `
		SELECT team_id, user_id, role, joined_at
		FROM team_members
		WHERE user_id = $1
		ORDER BY joined_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	members := make([]*domain.TeamMember, 0)
	for rows.Next() {
		m := &domain.TeamMember{}
		var role string
		if err := rows.Scan(&m.TeamID, &m.UserID, &role, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.Role = domain.Role(role)
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *teamMemberRepository) CountByTeamAndRole(ctx context.Context, teamID string, role domain.Role) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM team_members WHERE team_id = $1 AND role = $2`
	if err := r.DB.QueryRowContext(ctx, query, teamID, string(role)).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
