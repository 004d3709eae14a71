package domain

import "errors"

// Sentinel errors shared across services. Repositories translate store-level
// failures (missing rows, unique violations) into these so callers can branch
// with errors.Is without knowing the storage backend.
var (
	// ErrNotFound is returned when a team, event, RSVP, invite, or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller lacks the role required for the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput is returned when a request fails validation or sanitization.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned by repositories when an insert hits a uniqueness
	// constraint. The key allocator treats it as "candidate taken, try the next".
	ErrConflict = errors.New("conflict")

	// ErrNotPublished is returned when registering for an event that is still a draft.
	ErrNotPublished = errors.New("event is not published")

	// ErrEventPassed is returned when acting on an event whose start time has passed.
	ErrEventPassed = errors.New("event has already started")

	// ErrDuplicateRSVP is returned when an email already has a live RSVP for the event.
	ErrDuplicateRSVP = errors.New("already registered for this event")

	// ErrAllocationExhausted is returned when the key allocator runs out of attempts
	// without finding a free candidate. Callers may retry with a different seed.
	ErrAllocationExhausted = errors.New("unable to allocate a unique value")

	// ErrAlreadyMember is returned when adding a user who already belongs to the team.
	ErrAlreadyMember = errors.New("already a team member")

	// ErrInviteExpired is returned when an invite code exists but is past its expiry.
	ErrInviteExpired = errors.New("invite is expired")

	// ErrUserNotFound is returned when a user lookup misses.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateEmail is returned when a user email is already registered.
	ErrDuplicateEmail = errors.New("email already in use")
)
