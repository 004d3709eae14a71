package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gatherhub/internal/domain"
	"gatherhub/internal/validation"
)

// Admission messages returned to registrants.
const (
	msgConfirmed  = "Your RSVP has been confirmed!"
	msgWaitlisted = "You've been added to the waitlist. We'll notify you if a spot opens up!"
)

type rsvpService struct {
	eventRepo      domain.EventRepository
	rsvpRepo       domain.RSVPRepository
	teamMemberRepo domain.TeamMemberRepository
	emailService   domain.EmailService
	clock          domain.Clock
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewRSVPService creates the admission controller. emailService may be nil to
// disable notifications.
func NewRSVPService(
	eventRepo domain.EventRepository,
	rsvpRepo domain.RSVPRepository,
	teamMemberRepo domain.TeamMemberRepository,
	emailService domain.EmailService,
	clock domain.Clock,
	logger *slog.Logger,
	timeout time.Duration,
) domain.RSVPService {
	return &rsvpService{
		eventRepo:      eventRepo,
		rsvpRepo:       rsvpRepo,
		teamMemberRepo: teamMemberRepo,
		emailService:   emailService,
		clock:          clock,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// CreateRSVP admits a registration against the event's capacity. Without an
// atomic "insert if count < N" primitive in the store, the registration is
// inserted as confirmed first and then reconciled: re-read all confirmed
// registrations in (created_at, seq) order and demote this one if it landed
// beyond the capacity-th position. Concurrent registrants each reconcile
// their own row, so a brief over-admission self-corrects before anyone
// observes the result.
func (s *rsvpService) CreateRSVP(ctx context.Context, eventID, name, email, message string) (*domain.AdmitResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.Status != domain.EventPublished {
		return nil, domain.ErrNotPublished
	}
	if !event.StartDate.After(s.clock.Now()) {
		return nil, domain.ErrEventPassed
	}

	name, err = validation.Name(name, "attendee name")
	if err != nil {
		return nil, err
	}
	email, err = validation.Email(email)
	if err != nil {
		return nil, err
	}
	message, err = validation.Text(message, "message")
	if err != nil {
		return nil, err
	}

	if _, err := s.rsvpRepo.GetByEventAndEmail(ctx, eventID, email); err == nil {
		return nil, domain.ErrDuplicateRSVP
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing rsvp: %w", err)
	}

	rsvp := domain.NewRSVP(eventID, name, email, message, domain.RSVPConfirmed, s.clock.Now())
	if err := s.rsvpRepo.Create(ctx, rsvp); err != nil {
		if errors.Is(err, domain.ErrDuplicateRSVP) {
			// A concurrent request for the same email won the insert.
			return nil, domain.ErrDuplicateRSVP
		}
		return nil, fmt.Errorf("create rsvp: %w", err)
	}

	if event.Capacity != nil {
		demoted, err := s.reconcileCapacity(ctx, eventID, *event.Capacity, rsvp.ID)
		if err != nil {
			return nil, err
		}
		if demoted {
			rsvp.Status = domain.RSVPWaitlisted
		}
	}

	s.notify(ctx, rsvp, event)

	result := &domain.AdmitResult{RSVP: rsvp, Message: msgConfirmed}
	if rsvp.Status == domain.RSVPWaitlisted {
		result.Message = msgWaitlisted
	}
	return result, nil
}

// reconcileCapacity re-reads the confirmed set after the optimistic insert
// and demotes rsvpID if it fell into the excess beyond capacity. Only the
// caller's own row is patched; other writers correct theirs.
func (s *rsvpService) reconcileCapacity(ctx context.Context, eventID string, capacity int, rsvpID string) (demoted bool, err error) {
	confirmed, err := s.rsvpRepo.ListByEventAndStatus(ctx, eventID, domain.RSVPConfirmed)
	if err != nil {
		return false, fmt.Errorf("list confirmed rsvps: %w", err)
	}
	if len(confirmed) <= capacity {
		return false, nil
	}
	for _, excess := range confirmed[capacity:] {
		if excess.ID != rsvpID {
			continue
		}
		if err := s.rsvpRepo.UpdateStatus(ctx, rsvpID, domain.RSVPWaitlisted); err != nil {
			return false, fmt.Errorf("demote rsvp to waitlist: %w", err)
		}
		return true, nil
	}
	return false, nil
}

// CancelRSVP deletes the registration and, when a confirmed slot was vacated
// on a capped event, promotes the oldest waitlisted registrant. Cancelling a
// waitlisted registration never frees a confirmed slot.
func (s *rsvpService) CancelRSVP(ctx context.Context, eventID, email string) (*domain.PromotedAttendee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email, err := validation.Email(email)
	if err != nil {
		return nil, err
	}
	rsvp, err := s.rsvpRepo.GetByEventAndEmail(ctx, eventID, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get rsvp: %w", err)
	}
	wasConfirmed := rsvp.Status == domain.RSVPConfirmed

	if err := s.rsvpRepo.Delete(ctx, rsvp.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("delete rsvp: %w", err)
	}

	if !wasConfirmed {
		return nil, nil
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.Capacity == nil {
		return nil, nil
	}

	waitlisted, err := s.rsvpRepo.ListByEventAndStatus(ctx, eventID, domain.RSVPWaitlisted)
	if err != nil {
		return nil, fmt.Errorf("list waitlisted rsvps: %w", err)
	}
	if len(waitlisted) == 0 {
		return nil, nil
	}
	next := waitlisted[0]
	if err := s.rsvpRepo.UpdateStatus(ctx, next.ID, domain.RSVPConfirmed); err != nil {
		return nil, fmt.Errorf("promote rsvp: %w", err)
	}
	next.Status = domain.RSVPConfirmed
	s.notifyPromotion(ctx, next, event)

	return &domain.PromotedAttendee{Name: next.AttendeeName, Email: next.AttendeeEmail}, nil
}

// UpdateRSVP patches attendee name and message. Status is never touched here.
func (s *rsvpService) UpdateRSVP(ctx context.Context, eventID, email string, name, message *string) (*domain.RSVP, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email, err := validation.Email(email)
	if err != nil {
		return nil, err
	}
	rsvp, err := s.rsvpRepo.GetByEventAndEmail(ctx, eventID, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get rsvp: %w", err)
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.StartDate.After(s.clock.Now()) {
		return nil, domain.ErrEventPassed
	}

	if name != nil {
		clean, err := validation.Name(*name, "attendee name")
		if err != nil {
			return nil, err
		}
		name = &clean
	}
	if message != nil {
		clean, err := validation.Text(*message, "message")
		if err != nil {
			return nil, err
		}
		message = &clean
	}

	updated, err := s.rsvpRepo.UpdateDetails(ctx, rsvp.ID, name, message)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update rsvp: %w", err)
	}
	return updated, nil
}

func (s *rsvpService) CheckRSVPStatus(ctx context.Context, eventID, email string) (*domain.RSVP, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email, err := validation.Email(email)
	if err != nil {
		return nil, err
	}
	rsvp, err := s.rsvpRepo.GetByEventAndEmail(ctx, eventID, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get rsvp: %w", err)
	}
	return rsvp, nil
}

// ListEventRSVPs returns registrations for team members of the owning team.
func (s *rsvpService) ListEventRSVPs(ctx context.Context, callerID, eventID string, status *domain.RSVPStatus) ([]*domain.RSVP, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if _, err := s.teamMemberRepo.GetRole(ctx, event.TeamID, callerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, fmt.Errorf("get role: %w", err)
	}

	var rsvps []*domain.RSVP
	if status != nil {
		rsvps, err = s.rsvpRepo.ListByEventAndStatus(ctx, eventID, *status)
	} else {
		rsvps, err = s.rsvpRepo.ListByEvent(ctx, eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("list rsvps: %w", err)
	}
	if rsvps == nil {
		rsvps = []*domain.RSVP{}
	}
	return rsvps, nil
}

func (s *rsvpService) GetStats(ctx context.Context, eventID string) (*domain.RSVPStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	rsvps, err := s.rsvpRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list rsvps: %w", err)
	}

	stats := &domain.RSVPStats{}
	for _, r := range rsvps {
		switch r.Status {
		case domain.RSVPConfirmed:
			stats.Confirmed++
		case domain.RSVPWaitlisted:
			stats.Waitlisted++
		}
	}
	stats.Total = stats.Confirmed + stats.Waitlisted
	if event.Capacity != nil {
		cap := *event.Capacity
		stats.Capacity = &cap
		remaining := cap - stats.Confirmed
		if remaining < 0 {
			remaining = 0
		}
		stats.SpotsRemaining = &remaining
		stats.IsFull = stats.Confirmed >= cap
	}
	return stats, nil
}

// notify sends the admission outcome email. Best effort only.
func (s *rsvpService) notify(ctx context.Context, rsvp *domain.RSVP, event *domain.Event) {
	if s.emailService == nil {
		return
	}
	data := &domain.RSVPEmailData{
		Email:        rsvp.AttendeeEmail,
		AttendeeName: rsvp.AttendeeName,
		EventTitle:   event.Title,
	}
	var err error
	if rsvp.Status == domain.RSVPConfirmed {
		err = s.emailService.SendRSVPConfirmed(ctx, data)
	} else {
		err = s.emailService.SendRSVPWaitlisted(ctx, data)
	}
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "rsvp email failed", "event_id", event.ID, "err", err)
	}
}

func (s *rsvpService) notifyPromotion(ctx context.Context, rsvp *domain.RSVP, event *domain.Event) {
	if s.emailService == nil {
		return
	}
	data := &domain.RSVPEmailData{
		Email:        rsvp.AttendeeEmail,
		AttendeeName: rsvp.AttendeeName,
		EventTitle:   event.Title,
	}
	if err := s.emailService.SendWaitlistPromotion(ctx, data); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "promotion email failed", "event_id", event.ID, "err", err)
	}
}
