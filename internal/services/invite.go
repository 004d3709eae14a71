package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gatherhub/internal/domain"
	"gatherhub/internal/unique"
	"gatherhub/internal/validation"
)

const (
	inviteCodeLength  = 8
	inviteMaxAttempts = 50
	inviteExpiryDays  = 7
)

type inviteService struct {
	inviteRepo     domain.InviteRepository
	teamRepo       domain.TeamRepository
	teamMemberRepo domain.TeamMemberRepository
	userRepo       domain.UserRepository
	emailService   domain.EmailService
	clock          domain.Clock
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewInviteService creates an InviteService. emailService may be nil to
// disable invitation emails.
func NewInviteService(
	inviteRepo domain.InviteRepository,
	teamRepo domain.TeamRepository,
	teamMemberRepo domain.TeamMemberRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	clock domain.Clock,
	logger *slog.Logger,
	timeout time.Duration,
) domain.InviteService {
	return &inviteService{
		inviteRepo:     inviteRepo,
		teamRepo:       teamRepo,
		teamMemberRepo: teamMemberRepo,
		userRepo:       userRepo,
		emailService:   emailService,
		clock:          clock,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// CreateInvite allocates a globally-unique invite code and persists the
// invite. Permission and validation run first so bad requests never draw
// codes; the insert's unique constraint on code is the final arbiter, with
// up to 50 fresh draws before giving up.
func (s *inviteService) CreateInvite(ctx context.Context, callerID, teamID, email string, role domain.Role) (*domain.Invite, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	callerRole, err := s.teamMemberRepo.GetRole(ctx, teamID, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	if !callerRole.CanManageTeam() {
		return nil, domain.ErrForbidden
	}
	if role != domain.RoleAdmin && role != domain.RoleMember {
		return nil, fmt.Errorf("%w: invite role must be admin or member", domain.ErrInvalidInput)
	}
	email, err = validation.Email(email)
	if err != nil {
		return nil, err
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}

	now := s.clock.Now()
	if existing, err := s.inviteRepo.GetByTeamAndEmail(ctx, teamID, email); err == nil {
		if existing.ExpiresAt.After(now) {
			return nil, fmt.Errorf("%w: an invite for this email is already pending", domain.ErrInvalidInput)
		}
		// Expired leftover; reclaim it before issuing a new one.
		if err := s.inviteRepo.Delete(ctx, existing.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("delete expired invite: %w", err)
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check pending invite: %w", err)
	}

	inv := &domain.Invite{
		TeamID:    teamID,
		Email:     email,
		Role:      role,
		InvitedBy: callerID,
		ExpiresAt: now.Add(inviteExpiryDays * 24 * time.Hour),
		CreatedAt: now,
	}
	_, err = unique.Allocate(ctx, "", unique.CodeCandidates(inviteCodeLength),
		func(ctx context.Context, candidate string) (bool, error) {
			return s.inviteRepo.CodeInUse(ctx, candidate, now)
		},
		func(ctx context.Context, candidate string) error {
			inv.Code = candidate
			if err := s.inviteRepo.Create(ctx, inv); err != nil {
				if errors.Is(err, domain.ErrConflict) {
					return unique.ErrTaken
				}
				return err
			}
			return nil
		}, inviteMaxAttempts)
	if err != nil {
		if errors.Is(err, unique.ErrExhausted) {
			return nil, domain.ErrAllocationExhausted
		}
		return nil, fmt.Errorf("allocate invite code: %w", err)
	}

	s.notifyInvite(ctx, inv, team, callerID)
	return inv, nil
}

// GetInviteByCode resolves a live invite for display on the join page.
// Expired or unknown codes both read as not found.
func (s *inviteService) GetInviteByCode(ctx context.Context, code string) (*domain.InviteWithTeam, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.inviteRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invite: %w", err)
	}
	if !inv.ExpiresAt.After(s.clock.Now()) {
		return nil, domain.ErrNotFound
	}
	team, err := s.teamRepo.GetByID(ctx, inv.TeamID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	return &domain.InviteWithTeam{Invite: inv, Team: team}, nil
}

// AcceptInvite consumes the invite: the caller joins the team with the
// invited role and the invite row is deleted. An invite held by an existing
// member is cleaned up and reported as ErrAlreadyMember.
func (s *inviteService) AcceptInvite(ctx context.Context, callerID, code string) (*domain.AcceptedInvite, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.inviteRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invite: %w", err)
	}
	if !inv.ExpiresAt.After(s.clock.Now()) {
		return nil, domain.ErrInviteExpired
	}

	if _, err := s.teamMemberRepo.GetRole(ctx, inv.TeamID, callerID); err == nil {
		if err := s.inviteRepo.Delete(ctx, inv.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("delete invite: %w", err)
		}
		return nil, domain.ErrAlreadyMember
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get role: %w", err)
	}

	if err := s.teamMemberRepo.Add(ctx, inv.TeamID, callerID, inv.Role, s.clock.Now()); err != nil {
		if errors.Is(err, domain.ErrAlreadyMember) {
			return nil, domain.ErrAlreadyMember
		}
		return nil, fmt.Errorf("add member: %w", err)
	}
	if err := s.inviteRepo.Delete(ctx, inv.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("delete invite: %w", err)
	}

	team, err := s.teamRepo.GetByID(ctx, inv.TeamID)
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}
	return &domain.AcceptedInvite{TeamID: team.ID, TeamSlug: team.Slug, Role: inv.Role}, nil
}

// ListTeamInvites returns pending (unexpired) invites for managers.
func (s *inviteService) ListTeamInvites(ctx context.Context, callerID, teamID string) ([]*domain.Invite, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	callerRole, err := s.teamMemberRepo.GetRole(ctx, teamID, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	if !callerRole.CanManageTeam() {
		return nil, domain.ErrForbidden
	}

	invites, err := s.inviteRepo.ListByTeamID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	now := s.clock.Now()
	live := make([]*domain.Invite, 0, len(invites))
	for _, inv := range invites {
		if inv.ExpiresAt.After(now) {
			live = append(live, inv)
		}
	}
	return live, nil
}

func (s *inviteService) CancelInvite(ctx context.Context, callerID, inviteID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get invite: %w", err)
	}
	callerRole, err := s.teamMemberRepo.GetRole(ctx, inv.TeamID, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrForbidden
		}
		return fmt.Errorf("get role: %w", err)
	}
	if !callerRole.CanManageTeam() {
		return domain.ErrForbidden
	}
	if err := s.inviteRepo.Delete(ctx, inviteID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete invite: %w", err)
	}
	return nil
}

func (s *inviteService) notifyInvite(ctx context.Context, inv *domain.Invite, team *domain.Team, inviterID string) {
	if s.emailService == nil {
		return
	}
	inviterName := "A team admin"
	if s.userRepo != nil {
		if inviter, err := s.userRepo.GetByID(ctx, inviterID); err == nil && inviter.Name != "" {
			inviterName = inviter.Name
		}
	}
	data := &domain.TeamInviteEmailData{
		Email:       inv.Email,
		TeamName:    team.Name,
		InviterName: inviterName,
		Role:        string(inv.Role),
		Code:        inv.Code,
		ExpiresDays: inviteExpiryDays,
	}
	if err := s.emailService.SendTeamInvite(ctx, data); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "invite email failed", "team_id", team.ID, "err", err)
	}
}
