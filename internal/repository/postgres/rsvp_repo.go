package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gatherhub/internal/domain"
)

type rsvpRepository struct {
	DB *sql.DB
}

func NewRSVPRepository(db *sql.DB) domain.RSVPRepository {
	return &rsvpRepository{
		DB: db,
	}
}

// Create inserts the registration and fills in ID and Seq. The unique index
// on (event_id, attendee_email) is the duplicate-admission backstop; seq is a
// BIGSERIAL used as the tie-break for fairness ordering.
func (r *rsvpRepository) Create(ctx context.Context, rsvp *domain.RSVP) error {
	query := `
		INSERT INTO rsvps (event_id, attendee_name, attendee_email, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, seq
	`
	err := r.DB.QueryRowContext(ctx, query,
		rsvp.EventID, rsvp.AttendeeName, rsvp.AttendeeEmail, rsvp.Message,
		string(rsvp.Status), rsvp.CreatedAt,
	).Scan(&rsvp.ID, &rsvp.Seq)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateRSVP
		}
		return err
	}
	return nil
}

func (r *rsvpRepository) GetByID(ctx context.Context, id string) (*domain.RSVP, error) {
	query := `
		SELECT id, event_id, attendee_name, attendee_email, message, status, created_at, seq
		FROM rsvps
		WHERE id = $1
	`
	return scanRSVP(r.DB.QueryRowContext(ctx, query, id))
}

func (r *rsvpRepository) GetByEventAndEmail(ctx context.Context, eventID, email string) (*domain.RSVP, error) {
	query := `
		SELECT id, event_id, attendee_name, attendee_email, message, status, created_at, seq
		FROM rsvps
		WHERE event_id = $1 AND attendee_email = $2
	`
	return scanRSVP(r.DB.QueryRowContext(ctx, query, eventID, strings.ToLower(email)))
}

func scanRSVP(row rowScanner) (*domain.RSVP, error) {
	rsvp := &domain.RSVP{}
	var message sql.NullString
	var status string
	err := row.Scan(&rsvp.ID, &rsvp.EventID, &rsvp.AttendeeName, &rsvp.AttendeeEmail,
		&message, &status, &rsvp.CreatedAt, &rsvp.Seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	rsvp.Message = message.String
	rsvp.Status = domain.RSVPStatus(status)
	return rsvp, nil
}

func (r *rsvpRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.RSVP, error) {
	query := `
		SELECT id, event_id, attendee_name, attendee_email, message, status, created_at, seq
		FROM rsvps
		WHERE event_id = $1
		ORDER BY created_at ASC, seq ASC
	`
	return r.list(ctx, query, eventID)
}

// ListByEventAndStatus returns registrations in admission order: creation
// time ascending, with the insertion sequence breaking timestamp ties so the
// order is total and stable.
func (r *rsvpRepository) ListByEventAndStatus(ctx context.Context, eventID string, status domain.RSVPStatus) ([]*domain.RSVP, error) {
	query := `
		SELECT id, event_id, attendee_name, attendee_email, message, status, created_at, seq
		FROM rsvps
		WHERE event_id = $1 AND status = $2
		ORDER BY created_at ASC, seq ASC
	`
	return r.list(ctx, query, eventID, string(status))
}

func (r *rsvpRepository) list(ctx context.Context, query string, args ...any) ([]*domain.RSVP, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rsvps := make([]*domain.RSVP, 0)
	for rows.Next() {
		rsvp, err := scanRSVP(rows)
		if err != nil {
			return nil, err
		}
		rsvps = append(rsvps, rsvp)
	}
	return rsvps, rows.Err()
}

func (r *rsvpRepository) UpdateStatus(ctx context.Context, id string, status domain.RSVPStatus) error {
	query := `UPDATE rsvps SET status = $1 WHERE id = $2`
	result, err := r.DB.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *rsvpRepository) UpdateDetails(ctx context.Context, id string, name, message *string) (*domain.RSVP, error) {
	setClauses := []string{}
	args := []any{}
	n := 1
	if name != nil {
		setClauses = append(setClauses, fmt.Sprintf("attendee_name = $%d", n))
		args = append(args, *name)
		n++
	}
	if message != nil {
		setClauses = append(setClauses, fmt.Sprintf("message = $%d", n))
		args = append(args, *message)
		n++
	}
	if n == 1 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE rsvps SET %s
		WHERE id = $%d
		RETURNING id, event_id, attendee_name, attendee_email, message, status, created_at, seq
	`, strings.Join(setClauses, ", "), n)
	return scanRSVP(r.DB.QueryRowContext(ctx, query, args...))
}

func (r *rsvpRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM rsvps WHERE id = $1`
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

func (r *rsvpRepository) DeleteByEventID(ctx context.Context, eventID string) error {
	query := `DELETE FROM rsvps WHERE event_id = $1`
	_, err := r.DB.ExecContext(ctx, query, eventID)
	return err
}
