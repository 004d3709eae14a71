package domain

import (
	"context"
	"time"
)

// Invite is a single-use invitation to join a team. Code is unique across all
// live invites; expired codes are free to be reallocated. The invite is
// deleted when accepted, cancelled, or cleaned up.
// swagger:model Invite
type Invite struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Code      string    `json:"code"`
	InvitedBy string    `json:"invited_by"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// InviteRepository defines storage for invites. Create must fail with
// ErrConflict when the code collides with a live invite; implementations
// should reclaim expired rows holding the same code so that expired codes
// count as free.
type InviteRepository interface {
	Create(ctx context.Context, inv *Invite) error
	GetByID(ctx context.Context, id string) (*Invite, error)
	GetByCode(ctx context.Context, code string) (*Invite, error)
	GetByTeamAndEmail(ctx context.Context, teamID, email string) (*Invite, error)
	ListByTeamID(ctx context.Context, teamID string) ([]*Invite, error)
	Delete(ctx context.Context, id string) error
	// CodeInUse reports whether a live (unexpired as of now) invite holds the code.
	CodeInUse(ctx context.Context, code string, now time.Time) (bool, error)
}

// InviteWithTeam bundles an invite with its target team for display.
type InviteWithTeam struct {
	Invite *Invite `json:"invite"`
	Team   *Team   `json:"team"`
}

// AcceptedInvite reports where an accepted invite landed the user.
type AcceptedInvite struct {
	TeamID   string `json:"team_id"`
	TeamSlug string `json:"team_slug"`
	Role     Role   `json:"role"`
}

// InviteService defines the business logic for team invitations.
type InviteService interface {
	CreateInvite(ctx context.Context, callerID, teamID, email string, role Role) (*Invite, error)
	GetInviteByCode(ctx context.Context, code string) (*InviteWithTeam, error)
	AcceptInvite(ctx context.Context, callerID, code string) (*AcceptedInvite, error)
	ListTeamInvites(ctx context.Context, callerID, teamID string) ([]*Invite, error)
	CancelInvite(ctx context.Context, callerID, inviteID string) error
}
