package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"gatherhub/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestRSVPRepository_Create(t *testing.T) {
	ctx := context.Background()
	createdAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		rsvp        *domain.RSVP
		mock        func(mock sqlmock.Sqlmock)
		wantID      string
		wantSeq     int64
		wantErr     bool
		isDuplicate bool
	}{
		{
			name: "success",
			rsvp: &domain.RSVP{
				EventID:       "ev-1",
				AttendeeName:  "Alice",
				AttendeeEmail: "alice@example.com",
				Status:        domain.RSVPConfirmed,
				CreatedAt:     createdAt,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO rsvps \(event_id, attendee_name, attendee_email, message, status, created_at\)`).
					WithArgs("ev-1", "Alice", "alice@example.com", "", "confirmed", createdAt).
					WillReturnRows(sqlmock.NewRows([]string{"id", "seq"}).AddRow("rsvp-uuid-1", int64(7)))
			},
			wantID:  "rsvp-uuid-1",
			wantSeq: 7,
		},
		{
			name: "duplicate email",
			rsvp: &domain.RSVP{
				EventID:       "ev-1",
				AttendeeName:  "Alice",
				AttendeeEmail: "alice@example.com",
				Status:        domain.RSVPConfirmed,
				CreatedAt:     createdAt,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO rsvps`).
					WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr:     true,
			isDuplicate: true,
		},
		{
			name: "db error",
			rsvp: &domain.RSVP{
				EventID:       "ev-1",
				AttendeeName:  "Alice",
				AttendeeEmail: "alice@example.com",
				Status:        domain.RSVPConfirmed,
				CreatedAt:     createdAt,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO rsvps`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewRSVPRepository(db)
			err = repo.Create(ctx, tt.rsvp)
			if tt.wantErr {
				require.Error(t, err)
				if tt.isDuplicate {
					require.True(t, errors.Is(err, domain.ErrDuplicateRSVP))
				}
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, tt.rsvp.ID)
			require.Equal(t, tt.wantSeq, tt.rsvp.Seq)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRSVPRepository_GetByEventAndEmail(t *testing.T) {
	ctx := context.Background()
	createdAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("lowercases email", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, event_id, attendee_name, attendee_email, message, status, created_at, seq`).
			WithArgs("ev-1", "alice@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "attendee_name", "attendee_email", "message", "status", "created_at", "seq"}).
				AddRow("rsvp-1", "ev-1", "Alice", "alice@example.com", nil, "waitlist", createdAt, int64(3)))

		repo := NewRSVPRepository(db)
		got, err := repo.GetByEventAndEmail(ctx, "ev-1", "ALICE@Example.com")
		require.NoError(t, err)
		require.Equal(t, "rsvp-1", got.ID)
		require.Equal(t, domain.RSVPWaitlisted, got.Status)
		require.Equal(t, "", got.Message)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, event_id, attendee_name, attendee_email, message, status, created_at, seq`).
			WithArgs("ev-1", "nobody@example.com").
			WillReturnError(sql.ErrNoRows)

		repo := NewRSVPRepository(db)
		got, err := repo.GetByEventAndEmail(ctx, "ev-1", "nobody@example.com")
		require.True(t, errors.Is(err, domain.ErrNotFound))
		require.Nil(t, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRSVPRepository_ListByEventAndStatus(t *testing.T) {
	ctx := context.Background()
	createdAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "event_id", "attendee_name", "attendee_email", "message", "status", "created_at", "seq"}).
		AddRow("rsvp-1", "ev-1", "Alice", "alice@example.com", nil, "confirmed", createdAt, int64(1)).
		AddRow("rsvp-2", "ev-1", "Bob", "bob@example.com", "see you there", "confirmed", createdAt, int64(2))
	mock.ExpectQuery(`ORDER BY created_at ASC, seq ASC`).
		WithArgs("ev-1", "confirmed").
		WillReturnRows(rows)

	repo := NewRSVPRepository(db)
	got, err := repo.ListByEventAndStatus(ctx, "ev-1", domain.RSVPConfirmed)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "rsvp-1", got[0].ID)
	require.Equal(t, int64(2), got[1].Seq)
	require.Equal(t, "see you there", got[1].Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRSVPRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE rsvps SET status = \$1 WHERE id = \$2`).
			WithArgs("confirmed", "rsvp-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewRSVPRepository(db)
		require.NoError(t, repo.UpdateStatus(ctx, "rsvp-1", domain.RSVPConfirmed))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE rsvps SET status = \$1 WHERE id = \$2`).
			WithArgs("confirmed", "rsvp-missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewRSVPRepository(db)
		err = repo.UpdateStatus(ctx, "rsvp-missing", domain.RSVPConfirmed)
		require.True(t, errors.Is(err, domain.ErrNotFound))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRSVPRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM rsvps WHERE id = \$1`).
			WithArgs("rsvp-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewRSVPRepository(db)
		require.NoError(t, repo.Delete(ctx, "rsvp-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM rsvps WHERE id = \$1`).
			WithArgs("rsvp-missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewRSVPRepository(db)
		err = repo.Delete(ctx, "rsvp-missing")
		require.True(t, errors.Is(err, domain.ErrNotFound))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
