package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"gatherhub/internal/domain"
)

var inviteCodeRegexp = regexp.MustCompile(`^[ABCDEFGHJKMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789]{8}$`)

func newInviteFixture(t *testing.T) (*inviteService, *fakeInviteRepo, *fakeTeamRepo, *fakeTeamMemberRepo, *fakeUserRepo, *recordingEmailService) {
	t.Helper()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	inviteRepo := newFakeInviteRepo()
	teamRepo := newFakeTeamRepo()
	memberRepo := newFakeTeamMemberRepo()
	userRepo := newFakeUserRepo()
	emails := &recordingEmailService{}
	svc := &inviteService{
		inviteRepo:     inviteRepo,
		teamRepo:       teamRepo,
		teamMemberRepo: memberRepo,
		userRepo:       userRepo,
		emailService:   emails,
		clock:          &fixedClock{now: now},
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		contextTimeout: time.Second,
	}
	return svc, inviteRepo, teamRepo, memberRepo, userRepo, emails
}

func TestInviteService_CreateInvite(t *testing.T) {
	svc, _, teamRepo, memberRepo, userRepo, emails := newInviteFixture(t)
	ctx := context.Background()
	team := seedTeam(t, teamRepo, memberRepo, "makers-guild", "owner")
	userRepo.users["owner"] = &domain.User{ID: "owner", Name: "Olivia", Email: "olivia@x.com"}

	inv, err := svc.CreateInvite(ctx, "owner", team.ID, "New.Member@Example.com", domain.RoleMember)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}
	if !inviteCodeRegexp.MatchString(inv.Code) {
		t.Fatalf("code %q does not match expected shape", inv.Code)
	}
	if inv.Email != "new.member@example.com" {
		t.Fatalf("email = %q, want normalized lowercase", inv.Email)
	}
	wantExpiry := svc.clock.Now().Add(7 * 24 * time.Hour)
	if !inv.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expires at %v, want %v", inv.ExpiresAt, wantExpiry)
	}
	if len(emails.invites) != 1 {
		t.Fatalf("invite emails = %d, want 1", len(emails.invites))
	}
	if emails.invites[0].InviterName != "Olivia" {
		t.Fatalf("inviter name = %q", emails.invites[0].InviterName)
	}
}

func TestInviteService_CreateInvite_rejections(t *testing.T) {
	svc, _, teamRepo, memberRepo, _, _ := newInviteFixture(t)
	ctx := context.Background()
	team := seedTeam(t, teamRepo, memberRepo, "makers-guild", "owner")
	if err := memberRepo.Add(ctx, team.ID, "member", domain.RoleMember, time.Now()); err != nil {
		t.Fatalf("add member: %v", err)
	}

	tests := []struct {
		name    string
		caller  string
		email   string
		role    domain.Role
		wantErr error
	}{
		{"plain member cannot invite", "member", "a@x.com", domain.RoleMember, domain.ErrForbidden},
		{"stranger cannot invite", "stranger", "a@x.com", domain.RoleMember, domain.ErrForbidden},
		{"owner role not invitable", "owner", "a@x.com", domain.RoleOwner, domain.ErrInvalidInput},
		{"bad email", "owner", "not-an-email", domain.RoleMember, domain.ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateInvite(ctx, tc.caller, team.ID, tc.email, tc.role)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestInviteService_CreateInvite_pendingInvite(t *testing.T) {
	svc, inviteRepo, teamRepo, memberRepo, _, _ := newInviteFixture(t)
	ctx := context.Background()
	team := seedTeam(t, teamRepo, memberRepo, "makers-guild", "owner")

	first, err := svc.CreateInvite(ctx, "owner", team.ID, "a@x.com", domain.RoleMember)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	// A live invite for the same email blocks a second one.
	if _, err := svc.CreateInvite(ctx, "owner", team.ID, "a@x.com", domain.RoleMember); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}

	// Once expired it is replaced instead.
	inviteRepo.invites[first.ID].ExpiresAt = svc.clock.Now().Add(-time.Hour)
	second, err := svc.CreateInvite(ctx, "owner", team.ID, "a@x.com", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("reissue after expiry: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("expected a fresh invite row")
	}
	if _, err := inviteRepo.GetByID(ctx, first.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expired invite should be gone, got %v", err)
	}
}

func TestInviteService_AcceptInvite(t *testing.T) {
	svc, inviteRepo, teamRepo, memberRepo, _, _ := newInviteFixture(t)
	ctx := context.Background()
	team := seedTeam(t, teamRepo, memberRepo, "makers-guild", "owner")

	inv, err := svc.CreateInvite(ctx, "owner", team.ID, "a@x.com", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	accepted, err := svc.AcceptInvite(ctx, "newcomer", inv.Code)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.TeamID != team.ID || accepted.TeamSlug != team.Slug || accepted.Role != domain.RoleAdmin {
		t.Fatalf("accepted = %+v", accepted)
	}
	role, err := memberRepo.GetRole(ctx, team.ID, "newcomer")
	if err != nil || role != domain.RoleAdmin {
		t.Fatalf("role = %v, %v", role, err)
	}
	// The invite is consumed.
	if _, err := inviteRepo.GetByCode(ctx, inv.Code); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("invite should be deleted, got %v", err)
	}
	if _, err := svc.AcceptInvite(ctx, "someone-else", inv.Code); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("reuse err = %v, want ErrNotFound", err)
	}
}

func TestInviteService_AcceptInvite_expired(t *testing.T) {
	svc, inviteRepo, teamRepo, memberRepo, _, _ := newInviteFixture(t)
	ctx := context.Background()
	team := seedTeam(t, teamRepo, memberRepo, "makers-guild", "owner")

	inv, err := svc.CreateInvite(ctx, "owner", team.ID, "a@x.com", domain.RoleMember)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}
	inviteRepo.invites[inv.ID].ExpiresAt = svc.clock.Now().Add(-time.Minute)

	if _, err := svc.AcceptInvite(ctx, "newcomer", inv.Code); !errors.Is(err, domain.ErrInviteExpired) {
		t.Fatalf("err = %v, want ErrInviteExpired", err)
	}
}

func TestInviteService_AcceptInvite_alreadyMember(t *testing.T) {
	svc, inviteRepo, teamRepo, memberRepo, _, _ := newInviteFixture(t)
	ctx := context.Background()
	team := seedTeam(t, teamRepo, memberRepo, "makers-guild", "owner")

	inv, err := svc.CreateInvite(ctx, "owner", team.ID, "a@x.com", domain.RoleMember)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}
	if err := memberRepo.Add(ctx, team.ID, "newcomer", domain.RoleMember, time.Now()); err != nil {
		t.Fatalf("add member: %v", err)
	}

	if _, err := svc.AcceptInvite(ctx, "newcomer", inv.Code); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Fatalf("err = %v, want ErrAlreadyMember", err)
	}
	// The stale invite is cleaned up as part of the rejection.
	if _, err := inviteRepo.GetByID(ctx, inv.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("invite should be deleted, got %v", err)
	}
}

func TestInviteService_GetInviteByCode(t *testing.T) {
	svc, inviteRepo, teamRepo, memberRepo, _, _ := newInviteFixture(t)
	ctx := context.Background()
	team := seedTeam(t, teamRepo, memberRepo, "makers-guild", "owner")

	inv, err := svc.CreateInvite(ctx, "owner", team.ID, "a@x.com", domain.RoleMember)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	got, err := svc.GetInviteByCode(ctx, inv.Code)
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if got.Team.Slug != team.Slug || got.Invite.Email != "a@x.com" {
		t.Fatalf("got = %+v", got)
	}

	inviteRepo.invites[inv.ID].ExpiresAt = svc.clock.Now().Add(-time.Minute)
	if _, err := svc.GetInviteByCode(ctx, inv.Code); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expired err = %v, want ErrNotFound", err)
	}
}

func TestInviteService_ListTeamInvites(t *testing.T) {
	svc, inviteRepo, teamRepo, memberRepo, _, _ := newInviteFixture(t)
	ctx := context.Background()
	team := seedTeam(t, teamRepo, memberRepo, "makers-guild", "owner")

	live, err := svc.CreateInvite(ctx, "owner", team.ID, "live@x.com", domain.RoleMember)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}
	stale, err := svc.CreateInvite(ctx, "owner", team.ID, "stale@x.com", domain.RoleMember)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}
	inviteRepo.invites[stale.ID].ExpiresAt = svc.clock.Now().Add(-time.Hour)

	invites, err := svc.ListTeamInvites(ctx, "owner", team.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(invites) != 1 || invites[0].ID != live.ID {
		t.Fatalf("invites = %+v, want only the live one", invites)
	}

	if err := memberRepo.Add(ctx, team.ID, "member", domain.RoleMember, time.Now()); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if _, err := svc.ListTeamInvites(ctx, "member", team.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("member err = %v, want ErrForbidden", err)
	}
}

func TestInviteService_CancelInvite(t *testing.T) {
	svc, inviteRepo, teamRepo, memberRepo, _, _ := newInviteFixture(t)
	ctx := context.Background()
	team := seedTeam(t, teamRepo, memberRepo, "makers-guild", "owner")

	inv, err := svc.CreateInvite(ctx, "owner", team.ID, "a@x.com", domain.RoleMember)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	if err := svc.CancelInvite(ctx, "stranger", inv.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("stranger err = %v, want ErrForbidden", err)
	}
	if err := svc.CancelInvite(ctx, "owner", inv.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := inviteRepo.GetByID(ctx, inv.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("invite should be gone, got %v", err)
	}
	if err := svc.CancelInvite(ctx, "owner", inv.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("double cancel err = %v, want ErrNotFound", err)
	}
}
