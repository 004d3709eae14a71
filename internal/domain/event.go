package domain

import (
	"context"
	"time"
)

// EventStatus gates whether an event accepts registrations.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
)

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	return s == EventDraft || s == EventPublished
}

// Location describes where an event takes place.
type Location struct {
	Address string   `json:"address"`
	Venue   string   `json:"venue,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// Event represents a scheduled event owned by a team. Slug is unique within
// the owning team. Capacity nil means unlimited; the admission logic reads it
// but never writes it.
// swagger:model Event
type Event struct {
	ID          string      `json:"id"`
	TeamID      string      `json:"team_id"`
	CreatedBy   string      `json:"created_by"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     time.Time   `json:"end_date"`
	Location    Location    `json:"location"`
	Capacity    *int        `json:"capacity,omitempty"`
	Slug        string      `json:"slug"`
	Status      EventStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// EventRepository defines the interface for event storage. Create must fail
// with ErrConflict when (team_id, slug) is already taken.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	GetByTeamAndSlug(ctx context.Context, teamID, slug string) (*Event, error)
	Update(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id string) error
	ListByTeamID(ctx context.Context, teamID string, status *EventStatus) ([]*Event, error)
	// ListPublished returns upcoming published events, soonest first. A
	// non-empty search matches title, description, venue, or address
	// case-insensitively.
	ListPublished(ctx context.Context, search string, limit int) ([]*Event, error)
	// ExistsByTeamAndSlug reports whether a slug is taken within the team,
	// ignoring excludeID (pass "" when creating).
	ExistsByTeamAndSlug(ctx context.Context, teamID, slug, excludeID string) (bool, error)
}

// EventInput carries the mutable fields for creating an event.
type EventInput struct {
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Location    Location
	Capacity    *int
	Status      EventStatus
}

// EventUpdate carries optional field updates; nil means leave unchanged.
type EventUpdate struct {
	Title         *string
	Description   *string
	StartDate     *time.Time
	EndDate       *time.Time
	Location      *Location
	Capacity      *int
	ClearCapacity bool
	Status        *EventStatus
}

// EventService defines the business logic for events.
type EventService interface {
	CreateEvent(ctx context.Context, callerID, teamID string, in EventInput) (*Event, error)
	UpdateEvent(ctx context.Context, callerID, eventID string, in EventUpdate) (*Event, error)
	DeleteEvent(ctx context.Context, callerID, eventID string) error
	GetEvent(ctx context.Context, callerID, eventID string) (*Event, error)
	GetEventBySlug(ctx context.Context, callerID, teamSlug, eventSlug string) (*Event, error)
	ListTeamEvents(ctx context.Context, callerID, teamID string, status *EventStatus) ([]*Event, error)
	ListPublishedEvents(ctx context.Context, search string, limit int) ([]*Event, error)
}
