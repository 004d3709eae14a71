package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gatherhub/internal/domain"
	"gatherhub/internal/unique"
	"gatherhub/internal/validation"
)

const defaultPublishedLimit = 20

type eventService struct {
	eventRepo      domain.EventRepository
	rsvpRepo       domain.RSVPRepository
	teamRepo       domain.TeamRepository
	teamMemberRepo domain.TeamMemberRepository
	clock          domain.Clock
	contextTimeout time.Duration
}

// NewEventService creates an EventService with the given repositories.
func NewEventService(
	eventRepo domain.EventRepository,
	rsvpRepo domain.RSVPRepository,
	teamRepo domain.TeamRepository,
	teamMemberRepo domain.TeamMemberRepository,
	clock domain.Clock,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		rsvpRepo:       rsvpRepo,
		teamRepo:       teamRepo,
		teamMemberRepo: teamMemberRepo,
		clock:          clock,
		contextTimeout: timeout,
	}
}

// eventSlugExists scopes slug availability to one team, excluding excludeID.
func (s *eventService) eventSlugExists(teamID, excludeID string) unique.ExistsFunc {
	return func(ctx context.Context, candidate string) (bool, error) {
		return s.eventRepo.ExistsByTeamAndSlug(ctx, teamID, candidate, excludeID)
	}
}

// CreateEvent validates input, allocates a team-scoped slug, and persists the
// event. Any team member may create events. The ordering matters: the role
// check and validation run before allocation so rejected requests never spend
// slug candidates.
func (s *eventService) CreateEvent(ctx context.Context, callerID, teamID string, in domain.EventInput) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.teamMemberRepo.GetRole(ctx, teamID, callerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, fmt.Errorf("get role: %w", err)
	}

	title, err := validation.Name(in.Title, "title")
	if err != nil {
		return nil, err
	}
	description, err := validation.Text(in.Description, "description")
	if err != nil {
		return nil, err
	}
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: invalid status", domain.ErrInvalidInput)
	}
	if !in.EndDate.After(in.StartDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", domain.ErrInvalidInput)
	}
	if !in.StartDate.After(s.clock.Now()) {
		return nil, fmt.Errorf("%w: event cannot start in the past", domain.ErrInvalidInput)
	}
	if in.Capacity != nil && *in.Capacity < 1 {
		return nil, fmt.Errorf("%w: capacity must be at least 1", domain.ErrInvalidInput)
	}

	now := s.clock.Now()
	event := &domain.Event{
		TeamID:      teamID,
		CreatedBy:   callerID,
		Title:       title,
		Description: description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Location:    in.Location,
		Capacity:    in.Capacity,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = unique.Allocate(ctx, title, unique.SlugCandidates, s.eventSlugExists(teamID, ""),
		func(ctx context.Context, candidate string) error {
			event.Slug = candidate
			if err := s.eventRepo.Create(ctx, event); err != nil {
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
		return nil, fmt.Errorf("allocate event slug: %w", err)
	}
	return event, nil
}

// UpdateEvent patches event fields. Plain members may only edit events they
// created; admins and owners may edit any. A title change reallocates the
// slug within the team scope.
func (s *eventService) UpdateEvent(ctx context.Context, callerID, eventID string, in domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.editableEvent(ctx, callerID, eventID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title, err := validation.Name(*in.Title, "title")
		if err != nil {
			return nil, err
		}
		if title != event.Title {
			slug, err := unique.Allocate(ctx, title, unique.SlugCandidates,
				s.eventSlugExists(event.TeamID, event.ID), nil, 0)
			if err != nil {
				return nil, fmt.Errorf("allocate event slug: %w", err)
			}
			event.Slug = slug
		}
		event.Title = title
	}
	if in.Description != nil {
		description, err := validation.Text(*in.Description, "description")
		if err != nil {
			return nil, err
		}
		event.Description = description
	}
	if in.StartDate != nil {
		event.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		event.EndDate = *in.EndDate
	}
	if !event.EndDate.After(event.StartDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", domain.ErrInvalidInput)
	}
	if in.Location != nil {
		event.Location = *in.Location
	}
	if in.ClearCapacity {
		event.Capacity = nil
	} else if in.Capacity != nil {
		if *in.Capacity < 1 {
			return nil, fmt.Errorf("%w: capacity must be at least 1", domain.ErrInvalidInput)
		}
		event.Capacity = in.Capacity
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: invalid status", domain.ErrInvalidInput)
		}
		event.Status = *in.Status
	}
	event.UpdatedAt = s.clock.Now()

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.ErrAllocationExhausted
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

// DeleteEvent removes the event and its registrations.
func (s *eventService) DeleteEvent(ctx context.Context, callerID, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.editableEvent(ctx, callerID, eventID); err != nil {
		return err
	}
	if err := s.rsvpRepo.DeleteByEventID(ctx, eventID); err != nil {
		return fmt.Errorf("delete rsvps: %w", err)
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// GetEvent returns the event. Drafts are visible to team members only;
// published events are public (callerID may be empty).
func (s *eventService) GetEvent(ctx context.Context, callerID, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return s.visibleEvent(ctx, callerID, event)
}

func (s *eventService) GetEventBySlug(ctx context.Context, callerID, teamSlug, eventSlug string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	team, err := s.teamRepo.GetBySlug(ctx, teamSlug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get team by slug: %w", err)
	}
	event, err := s.eventRepo.GetByTeamAndSlug(ctx, team.ID, eventSlug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event by slug: %w", err)
	}
	return s.visibleEvent(ctx, callerID, event)
}

func (s *eventService) ListTeamEvents(ctx context.Context, callerID, teamID string, status *domain.EventStatus) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.teamMemberRepo.GetRole(ctx, teamID, callerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	events, err := s.eventRepo.ListByTeamID(ctx, teamID, status)
	if err != nil {
		return nil, fmt.Errorf("list team events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) ListPublishedEvents(ctx context.Context, search string, limit int) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if limit <= 0 {
		limit = defaultPublishedLimit
	}
	events, err := s.eventRepo.ListPublished(ctx, strings.TrimSpace(search), limit)
	if err != nil {
		return nil, fmt.Errorf("list published events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

// editableEvent loads the event and checks the caller may mutate it.
func (s *eventService) editableEvent(ctx context.Context, callerID, eventID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	role, err := s.teamMemberRepo.GetRole(ctx, event.TeamID, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	if !role.CanManageTeam() && event.CreatedBy != callerID {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

// visibleEvent hides drafts from non-members.
func (s *eventService) visibleEvent(ctx context.Context, callerID string, event *domain.Event) (*domain.Event, error) {
	if event.Status == domain.EventPublished {
		return event, nil
	}
	if callerID == "" {
		return nil, domain.ErrNotFound
	}
	if _, err := s.teamMemberRepo.GetRole(ctx, event.TeamID, callerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	return event, nil
}
