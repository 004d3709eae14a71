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

func TestTeamRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		team       *domain.Team
		mock       func(mock sqlmock.Sqlmock)
		wantID     string
		wantErr    bool
		isConflict bool
	}{
		{
			name: "success",
			team: &domain.Team{Name: "Makers Guild", Slug: "makers-guild", CreatedAt: now, UpdatedAt: now},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO teams \(name, description, slug, created_at, updated_at\)`).
					WithArgs("Makers Guild", "", "makers-guild", now, now).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("team-uuid-1"))
			},
			wantID: "team-uuid-1",
		},
		{
			name: "slug taken",
			team: &domain.Team{Name: "Makers Guild", Slug: "makers-guild", CreatedAt: now, UpdatedAt: now},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO teams`).
					WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr:    true,
			isConflict: true,
		},
		{
			name: "db error",
			team: &domain.Team{Name: "Makers Guild", Slug: "makers-guild", CreatedAt: now, UpdatedAt: now},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO teams`).
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
			repo := NewTeamRepository(db)
			err = repo.Create(ctx, tt.team)
			if tt.wantErr {
				require.Error(t, err)
				if tt.isConflict {
					require.True(t, errors.Is(err, domain.ErrConflict))
				}
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, tt.team.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTeamRepository_GetBySlug(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, name, description, slug, created_at, updated_at`).
			WithArgs("makers-guild").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "slug", "created_at", "updated_at"}).
				AddRow("team-1", "Makers Guild", nil, "makers-guild", now, now))

		repo := NewTeamRepository(db)
		got, err := repo.GetBySlug(ctx, "makers-guild")
		require.NoError(t, err)
		require.Equal(t, "team-1", got.ID)
		require.Equal(t, "", got.Description)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, name, description, slug, created_at, updated_at`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		repo := NewTeamRepository(db)
		got, err := repo.GetBySlug(ctx, "missing")
		require.True(t, errors.Is(err, domain.ErrNotFound))
		require.Nil(t, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTeamRepository_ExistsBySlug(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		want bool
	}{
		{"taken", true},
		{"free", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM teams WHERE slug = \$1\)`).
				WithArgs("makers-guild").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.want))

			repo := NewTeamRepository(db)
			got, err := repo.ExistsBySlug(ctx, "makers-guild")
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTeamRepository_Update(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	team := &domain.Team{ID: "team-1", Name: "Makers Guild", Slug: "makers-guild", UpdatedAt: now}

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE teams`).
			WithArgs("Makers Guild", "", "makers-guild", now, "team-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewTeamRepository(db)
		err = repo.Update(ctx, team)
		require.True(t, errors.Is(err, domain.ErrNotFound))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("slug taken", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE teams`).
			WillReturnError(&pq.Error{Code: "23505"})

		repo := NewTeamRepository(db)
		err = repo.Update(ctx, team)
		require.True(t, errors.Is(err, domain.ErrConflict))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTeamRepository_ListFeatured(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	since := now.AddDate(0, 0, -30)

	t.Run("ranked rows", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		cols := []string{"id", "name", "description", "slug", "created_at", "updated_at", "upcoming", "recent", "member_count"}
		mock.ExpectQuery(`SELECT t.id, t.name, t.description, t.slug, t.created_at, t.updated_at`).
			WithArgs(now, since, 6).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("team-1", "Makers Guild", nil, "makers-guild", now, now, 3, 5, 12).
				AddRow("team-2", "Book Club", "monthly reads", "book-club", now, now, 1, 2, 4))

		repo := NewTeamRepository(db)
		got, err := repo.ListFeatured(ctx, now, since, 6)
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, "makers-guild", got[0].Team.Slug)
		require.Equal(t, 3, got[0].UpcomingEvents)
		require.Equal(t, 5, got[0].RecentEvents)
		require.Equal(t, 12, got[0].MemberCount)
		require.Equal(t, "monthly reads", got[1].Team.Description)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no active teams", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT t.id, t.name, t.description, t.slug, t.created_at, t.updated_at`).
			WithArgs(now, since, 6).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "slug", "created_at", "updated_at", "upcoming", "recent", "member_count"}))

		repo := NewTeamRepository(db)
		got, err := repo.ListFeatured(ctx, now, since, 6)
		require.NoError(t, err)
		require.Empty(t, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
