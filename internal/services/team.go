package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gatherhub/internal/domain"
	"gatherhub/internal/unique"
	"gatherhub/internal/validation"
)

const (
	// defaultFeaturedLimit caps the discovery list when the caller gives none.
	defaultFeaturedLimit = 6
	// featuredWindow is how far back published events still count a team as
	// active.
	featuredWindow = 30 * 24 * time.Hour

	profileEventLimit  = 6
	profileMemberLimit = 5
)

type teamService struct {
	teamRepo       domain.TeamRepository
	teamMemberRepo domain.TeamMemberRepository
	eventRepo      domain.EventRepository
	clock          domain.Clock
	contextTimeout time.Duration
}

// NewTeamService creates a TeamService with the given repositories.
func NewTeamService(
	teamRepo domain.TeamRepository,
	teamMemberRepo domain.TeamMemberRepository,
	eventRepo domain.EventRepository,
	clock domain.Clock,
	timeout time.Duration,
) domain.TeamService {
	return &teamService{
		teamRepo:       teamRepo,
		teamMemberRepo: teamMemberRepo,
		eventRepo:      eventRepo,
		clock:          clock,
		contextTimeout: timeout,
	}
}

// teamSlugExists reports slug availability across all teams, excluding
// excludeID so renames can keep their own slug.
func (s *teamService) teamSlugExists(excludeID string) unique.ExistsFunc {
	return unique.WithReserved(unique.DefaultReservedSlugs, func(ctx context.Context, candidate string) (bool, error) {
		team, err := s.teamRepo.GetBySlug(ctx, candidate)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		return team.ID != excludeID, nil
	})
}

// CreateTeam allocates a globally-unique slug from the team name and persists
// the team with the caller as owner. The insert carries the slug's unique
// constraint, so a lost race retries with the next candidate.
func (s *teamService) CreateTeam(ctx context.Context, callerID, name, description string) (*domain.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	name, err := validation.Name(name, "team name")
	if err != nil {
		return nil, err
	}
	description, err = validation.Text(description, "description")
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	team := domain.NewTeam(name, description, "", now, now)
	_, err = unique.Allocate(ctx, name, unique.SlugCandidates, s.teamSlugExists(""),
		func(ctx context.Context, candidate string) error {
			team.Slug = candidate
			if err := s.teamRepo.Create(ctx, team); err != nil {
				if errors.Is(err, domain.ErrConflict) {
					return unique.ErrTaken
				}
				return err
			}
			return nil
		}, 0)
	if err != nil {
		if errors.Is(err, unique.ErrExhausted) {
			return nil, domain.ErrAllocationExhausted
		}
		return nil, fmt.Errorf("allocate team slug: %w", err)
	}

	if err := s.teamMemberRepo.Add(ctx, team.ID, callerID, domain.RoleOwner, now); err != nil {
		return nil, fmt.Errorf("add owner: %w", err)
	}
	return team, nil
}

// UpdateTeam patches name and description. A name change reallocates the slug
// in the same scope, ignoring the team's own current slug.
func (s *teamService) UpdateTeam(ctx context.Context, callerID, teamID string, name, description *string) (*domain.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	role, err := s.roleOf(ctx, teamID, callerID)
	if err != nil {
		return nil, err
	}
	if !role.CanManageTeam() {
		return nil, domain.ErrForbidden
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}

	if description != nil {
		clean, err := validation.Text(*description, "description")
		if err != nil {
			return nil, err
		}
		team.Description = clean
	}
	if name != nil {
		clean, err := validation.Name(*name, "team name")
		if err != nil {
			return nil, err
		}
		if clean != team.Name {
			slug, err := unique.Allocate(ctx, clean, unique.SlugCandidates, s.teamSlugExists(teamID), nil, 0)
			if err != nil {
				return nil, fmt.Errorf("allocate team slug: %w", err)
			}
			team.Slug = slug
		}
		team.Name = clean
	}
	team.UpdatedAt = s.clock.Now()

	if err := s.teamRepo.Update(ctx, team); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Slug raced with a concurrent create; surface as retryable.
			return nil, domain.ErrAllocationExhausted
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update team: %w", err)
	}
	return team, nil
}

func (s *teamService) GetTeamBySlug(ctx context.Context, slug string) (*domain.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	team, err := s.teamRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get team by slug: %w", err)
	}
	return team, nil
}

// GetTeamProfile builds the public team page: the team itself, its most
// recent published events, a sample of named members, and event stats. Only
// published events are counted, so drafts never leak through the profile.
func (s *teamService) GetTeamProfile(ctx context.Context, slug string) (*domain.TeamProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	team, err := s.teamRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get team by slug: %w", err)
	}

	published := domain.EventPublished
	events, err := s.eventRepo.ListByTeamID(ctx, team.ID, &published)
	if err != nil {
		return nil, fmt.Errorf("list team events: %w", err)
	}

	now := s.clock.Now()
	stats := domain.TeamProfileStats{TotalEvents: len(events)}
	for _, e := range events {
		if e.StartDate.After(now) {
			stats.UpcomingEvents++
		} else {
			stats.PastEvents++
		}
	}
	recent := events
	if len(recent) > profileEventLimit {
		recent = recent[:profileEventLimit]
	}

	memberships, err := s.teamMemberRepo.ListByTeamID(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	members := make([]domain.TeamPublicMember, 0, profileMemberLimit)
	for _, m := range memberships {
		if m.Name == "" {
			continue
		}
		members = append(members, domain.TeamPublicMember{
			Name:     m.Name,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		})
		if len(members) == profileMemberLimit {
			break
		}
	}

	return &domain.TeamProfile{
		Team:        team,
		Events:      recent,
		MemberCount: len(memberships),
		Members:     members,
		Stats:       stats,
	}, nil
}

// ListFeaturedTeams returns teams ranked by published-event activity over the
// last 30 days plus whatever is coming up.
func (s *teamService) ListFeaturedTeams(ctx context.Context, limit int) ([]*domain.FeaturedTeam, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if limit <= 0 {
		limit = defaultFeaturedLimit
	}
	now := s.clock.Now()
	featured, err := s.teamRepo.ListFeatured(ctx, now, now.Add(-featuredWindow), limit)
	if err != nil {
		return nil, fmt.Errorf("list featured teams: %w", err)
	}
	if featured == nil {
		featured = []*domain.FeaturedTeam{}
	}
	return featured, nil
}

func (s *teamService) GetTeamWithRole(ctx context.Context, callerID, teamID string) (*domain.TeamWithRole, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	role, err := s.roleOf(ctx, teamID, callerID)
	if err != nil {
		return nil, err
	}
	return &domain.TeamWithRole{Team: team, Role: role}, nil
}

func (s *teamService) ListMyTeams(ctx context.Context, callerID string) ([]*domain.TeamWithRole, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	memberships, err := s.teamMemberRepo.ListByUserID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	out := make([]*domain.TeamWithRole, 0, len(memberships))
	for _, m := range memberships {
		team, err := s.teamRepo.GetByID(ctx, m.TeamID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get team: %w", err)
		}
		out = append(out, &domain.TeamWithRole{Team: team, Role: m.Role})
	}
	return out, nil
}

func (s *teamService) ListMembers(ctx context.Context, callerID, teamID string) ([]*domain.TeamMember, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.roleOf(ctx, teamID, callerID); err != nil {
		return nil, err
	}
	members, err := s.teamMemberRepo.ListByTeamID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	if members == nil {
		members = []*domain.TeamMember{}
	}
	return members, nil
}

// UpdateMemberRole changes a member's role. Only owners may do this, and not
// for themselves.
func (s *teamService) UpdateMemberRole(ctx context.Context, callerID, teamID, userID string, role domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !role.Valid() {
		return domain.ErrInvalidInput
	}
	callerRole, err := s.roleOf(ctx, teamID, callerID)
	if err != nil {
		return err
	}
	if callerRole != domain.RoleOwner {
		return domain.ErrForbidden
	}
	if callerID == userID {
		return domain.ErrInvalidInput
	}
	if err := s.teamMemberRepo.UpdateRole(ctx, teamID, userID, role); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update member role: %w", err)
	}
	return nil
}

// RemoveMember removes a member. Members may remove themselves (leave),
// except the last owner. Admins may remove plain members only; owners may
// remove anyone else.
func (s *teamService) RemoveMember(ctx context.Context, callerID, teamID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	callerRole, err := s.roleOf(ctx, teamID, callerID)
	if err != nil {
		return err
	}

	if callerID == userID {
		if callerRole == domain.RoleOwner {
			owners, err := s.teamMemberRepo.CountByTeamAndRole(ctx, teamID, domain.RoleOwner)
			if err != nil {
				return fmt.Errorf("count owners: %w", err)
			}
			if owners <= 1 {
				return fmt.Errorf("%w: cannot leave as the only owner", domain.ErrInvalidInput)
			}
		}
	} else {
		if !callerRole.CanManageTeam() {
			return domain.ErrForbidden
		}
		targetRole, err := s.teamMemberRepo.GetRole(ctx, teamID, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get target role: %w", err)
		}
		if callerRole == domain.RoleAdmin && targetRole != domain.RoleMember {
			return domain.ErrForbidden
		}
	}

	if err := s.teamMemberRepo.Remove(ctx, teamID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// roleOf resolves the caller's role, mapping "not a member" to ErrForbidden.
func (s *teamService) roleOf(ctx context.Context, teamID, userID string) (domain.Role, error) {
	role, err := s.teamMemberRepo.GetRole(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrForbidden
		}
		return "", fmt.Errorf("get role: %w", err)
	}
	return role, nil
}
