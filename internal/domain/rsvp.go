package domain

import (
	"context"
	"time"
)

// RSVPStatus is the admission status of a registration.
type RSVPStatus string

const (
	RSVPConfirmed  RSVPStatus = "confirmed"
	RSVPWaitlisted RSVPStatus = "waitlist"
)

// RSVP represents an attendee's registration for an event. AttendeeEmail is
// stored lowercased and is the natural key within an event. Seq is a
// monotonically increasing insertion sequence assigned by the store; together
// with CreatedAt it gives a total, stable ordering used for admission
// fairness and waitlist promotion.
// swagger:model RSVP
type RSVP struct {
	ID            string     `json:"id"`
	EventID       string     `json:"event_id"`
	AttendeeName  string     `json:"attendee_name"`
	AttendeeEmail string     `json:"attendee_email"`
	Message       string     `json:"message,omitempty"`
	Status        RSVPStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	Seq           int64      `json:"-"`
}

// NewRSVP returns a new RSVP. ID and Seq are set by the repository on create.
func NewRSVP(eventID, name, email, message string, status RSVPStatus, createdAt time.Time) *RSVP {
	return &RSVP{
		EventID:       eventID,
		AttendeeName:  name,
		AttendeeEmail: email,
		Message:       message,
		Status:        status,
		CreatedAt:     createdAt,
	}
}

// RSVPRepository defines storage for registrations. Create must fail with
// ErrDuplicateRSVP when (event_id, attendee_email) already exists, so the
// insert itself backstops the duplicate pre-check under concurrency.
// ListByEventAndStatus orders by (created_at ASC, seq ASC).
type RSVPRepository interface {
	Create(ctx context.Context, r *RSVP) error
	GetByID(ctx context.Context, id string) (*RSVP, error)
	GetByEventAndEmail(ctx context.Context, eventID, email string) (*RSVP, error)
	ListByEvent(ctx context.Context, eventID string) ([]*RSVP, error)
	ListByEventAndStatus(ctx context.Context, eventID string, status RSVPStatus) ([]*RSVP, error)
	UpdateStatus(ctx context.Context, id string, status RSVPStatus) error
	UpdateDetails(ctx context.Context, id string, name, message *string) (*RSVP, error)
	Delete(ctx context.Context, id string) error
	DeleteByEventID(ctx context.Context, eventID string) error
}

// AdmitResult is the outcome of a registration request.
type AdmitResult struct {
	RSVP    *RSVP  `json:"rsvp"`
	Message string `json:"message"`
}

// PromotedAttendee identifies a waitlisted registrant promoted after a cancellation.
type PromotedAttendee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RSVPStats summarizes admissions for an event. SpotsRemaining is nil when the
// event has no capacity.
// swagger:model RSVPStats
type RSVPStats struct {
	Confirmed      int  `json:"confirmed"`
	Waitlisted     int  `json:"waitlisted"`
	Total          int  `json:"total"`
	Capacity       *int `json:"capacity,omitempty"`
	SpotsRemaining *int `json:"spots_remaining,omitempty"`
	IsFull         bool `json:"is_full"`
}

// RSVPService is the admission controller: it decides confirmed vs waitlisted
// against event capacity and promotes from the waitlist on cancellation.
type RSVPService interface {
	CreateRSVP(ctx context.Context, eventID, name, email, message string) (*AdmitResult, error)
	CancelRSVP(ctx context.Context, eventID, email string) (*PromotedAttendee, error)
	UpdateRSVP(ctx context.Context, eventID, email string, name, message *string) (*RSVP, error)
	CheckRSVPStatus(ctx context.Context, eventID, email string) (*RSVP, error)
	ListEventRSVPs(ctx context.Context, callerID, eventID string, status *RSVPStatus) ([]*RSVP, error)
	GetStats(ctx context.Context, eventID string) (*RSVPStats, error)
}
