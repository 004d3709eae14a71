package domain

import (
	"context"
	"time"
)

// Role is a member's role within a team.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleMember
}

// CanManageTeam reports whether the role may edit the team, invite, or manage members.
func (r Role) CanManageTeam() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Team represents a group that organizes events. Slug is unique across all teams.
// swagger:model Team
type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Slug        string    `json:"slug"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTeam returns a new Team. ID is set by the repository on create.
func NewTeam(name, description, slug string, createdAt, updatedAt time.Time) *Team {
	return &Team{
		Name:        name,
		Description: description,
		Slug:        slug,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// TeamMember links a user to a team with a role.
// swagger:model TeamMember
type TeamMember struct {
	TeamID   string    `json:"team_id"`
	UserID   string    `json:"user_id"`
	Name     string    `json:"name,omitempty"`
	Email    string    `json:"email,omitempty"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// TeamWithRole bundles a team with the requesting user's role in it.
type TeamWithRole struct {
	Team *Team `json:"team"`
	Role Role  `json:"role"`
}

// FeaturedTeam pairs a team with the activity counts discovery ranks by.
// swagger:model FeaturedTeam
type FeaturedTeam struct {
	Team           *Team `json:"team"`
	UpcomingEvents int   `json:"upcoming_events"`
	RecentEvents   int   `json:"recent_events"`
	MemberCount    int   `json:"member_count"`
}

// TeamPublicMember is the subset of a membership shown on the public profile.
type TeamPublicMember struct {
	Name     string    `json:"name"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// TeamProfileStats summarizes a team's published events.
type TeamProfileStats struct {
	UpcomingEvents int `json:"upcoming_events"`
	PastEvents     int `json:"past_events"`
	TotalEvents    int `json:"total_events"`
}

// TeamProfile is the public team page: the team, its most recent published
// events, a sample of named members, and aggregate stats.
// swagger:model TeamProfile
type TeamProfile struct {
	Team        *Team              `json:"team"`
	Events      []*Event           `json:"events"`
	MemberCount int                `json:"member_count"`
	Members     []TeamPublicMember `json:"members"`
	Stats       TeamProfileStats   `json:"stats"`
}

// TeamRepository defines the interface for team storage. Create must fail with
// ErrConflict when the slug is already taken.
type TeamRepository interface {
	Create(ctx context.Context, team *Team) error
	GetByID(ctx context.Context, id string) (*Team, error)
	GetBySlug(ctx context.Context, slug string) (*Team, error)
	Update(ctx context.Context, team *Team) error
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	// ListFeatured returns active teams ranked by published-event activity:
	// teams with at least one published event starting after since, ordered by
	// recent plus upcoming event count descending. now splits upcoming from
	// recent.
	ListFeatured(ctx context.Context, now, since time.Time, limit int) ([]*FeaturedTeam, error)
}

// TeamMemberRepository defines storage for team membership. It doubles as the
// access-check collaborator: GetRole returns "" with ErrNotFound when the user
// is not a member.
type TeamMemberRepository interface {
	Add(ctx context.Context, teamID, userID string, role Role, joinedAt time.Time) error
	GetRole(ctx context.Context, teamID, userID string) (Role, error)
	UpdateRole(ctx context.Context, teamID, userID string, role Role) error
	Remove(ctx context.Context, teamID, userID string) error
	ListByTeamID(ctx context.Context, teamID string) ([]*TeamMember, error)
	ListByUserID(ctx context.Context, userID string) ([]*TeamMember, error)
	CountByTeamAndRole(ctx context.Context, teamID string, role Role) (int, error)
}

// TeamService defines the business logic for teams and membership.
type TeamService interface {
	CreateTeam(ctx context.Context, callerID, name, description string) (*Team, error)
	UpdateTeam(ctx context.Context, callerID, teamID string, name, description *string) (*Team, error)
	GetTeamBySlug(ctx context.Context, slug string) (*Team, error)
	GetTeamProfile(ctx context.Context, slug string) (*TeamProfile, error)
	ListFeaturedTeams(ctx context.Context, limit int) ([]*FeaturedTeam, error)
	GetTeamWithRole(ctx context.Context, callerID, teamID string) (*TeamWithRole, error)
	ListMyTeams(ctx context.Context, callerID string) ([]*TeamWithRole, error)
	ListMembers(ctx context.Context, callerID, teamID string) ([]*TeamMember, error)
	UpdateMemberRole(ctx context.Context, callerID, teamID, userID string, role Role) error
	RemoveMember(ctx context.Context, callerID, teamID, userID string) error
}
