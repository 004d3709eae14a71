package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	h "gatherhub/internal/delivery/http/helpers"
	"gatherhub/internal/delivery/http/middleware"
	"gatherhub/internal/domain"
)

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// LocationRequest is the location portion of event request bodies.
type LocationRequest struct {
	Address string   `json:"address"`
	Venue   string   `json:"venue"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

// CreateEventRequest is the request body for POST /teams/{teamID}/events
type CreateEventRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	Location    LocationRequest `json:"location"`
	Capacity    *int            `json:"capacity"`
	Status      string          `json:"status"`
}

// Validate implements helpers.Validator.
func (e CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(e.Title) == "" {
		errs = append(errs, "title is required")
	}
	if e.StartDate.IsZero() {
		errs = append(errs, "start_date is required")
	}
	if e.EndDate.IsZero() {
		errs = append(errs, "end_date is required")
	}
	status := domain.EventStatus(strings.ToLower(strings.TrimSpace(e.Status)))
	if status != "" && !status.Valid() {
		errs = append(errs, "status must be \"draft\" or \"published\"")
	}
	if e.Capacity != nil && *e.Capacity < 1 {
		errs = append(errs, "capacity must be at least 1")
	}
	return errs
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates an event owned by the team. A team-unique URL slug is derived from the title. Status defaults to draft.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param teamID path string true "Team ID (UUID)"
// @Param body body CreateEventRequest true "Event data"
// @Success 201 {object} helpers.APIResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams/{teamID}/events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	teamID := pathUUID(w, r, "teamID")
	if teamID == "" {
		return
	}
	var req CreateEventRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}

	status := domain.EventStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if status == "" {
		status = domain.EventDraft
	}
	event, err := c.Service.CreateEvent(r.Context(), userID, teamID, domain.EventInput{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Location: domain.Location{
			Address: req.Location.Address,
			Venue:   req.Location.Venue,
			Lat:     req.Location.Lat,
			Lng:     req.Location.Lng,
		},
		Capacity: req.Capacity,
		Status:   status,
	})
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, event)
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}
type UpdateEventRequest struct {
	Title         *string          `json:"title"`
	Description   *string          `json:"description"`
	StartDate     *time.Time       `json:"start_date"`
	EndDate       *time.Time       `json:"end_date"`
	Location      *LocationRequest `json:"location"`
	Capacity      *int             `json:"capacity"`
	ClearCapacity bool             `json:"clear_capacity"`
	Status        *string          `json:"status"`
}

// Validate implements helpers.Validator.
func (e UpdateEventRequest) Validate() []string {
	var errs []string
	if e.Title != nil && strings.TrimSpace(*e.Title) == "" {
		errs = append(errs, "title must not be empty")
	}
	if e.Status != nil {
		status := domain.EventStatus(strings.ToLower(strings.TrimSpace(*e.Status)))
		if !status.Valid() {
			errs = append(errs, "status must be \"draft\" or \"published\"")
		}
	}
	if e.Capacity != nil && *e.Capacity < 1 {
		errs = append(errs, "capacity must be at least 1")
	}
	if e.Capacity != nil && e.ClearCapacity {
		errs = append(errs, "capacity and clear_capacity are mutually exclusive")
	}
	return errs
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Updates event fields. Changing the title reallocates the slug. Owners, admins, or the event creator only. Lowering capacity never demotes existing confirmations.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to update"
// @Success 200 {object} helpers.APIResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := pathUUID(w, r, "eventID")
	if eventID == "" {
		return
	}
	var req UpdateEventRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}

	update := domain.EventUpdate{
		Title:         req.Title,
		Description:   req.Description,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Capacity:      req.Capacity,
		ClearCapacity: req.ClearCapacity,
	}
	if req.Location != nil {
		update.Location = &domain.Location{
			Address: req.Location.Address,
			Venue:   req.Location.Venue,
			Lat:     req.Location.Lat,
			Lng:     req.Location.Lng,
		}
	}
	if req.Status != nil {
		status := domain.EventStatus(strings.ToLower(strings.TrimSpace(*req.Status)))
		update.Status = &status
	}

	event, err := c.Service.UpdateEvent(r.Context(), userID, eventID, update)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Deletes the event and all of its registrations. Owners, admins, or the event creator only.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 204 "No content"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := pathUUID(w, r, "eventID")
	if eventID == "" {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}

	if err := c.Service.DeleteEvent(r.Context(), userID, eventID); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetEvent godoc
// @Summary Get an event
// @Description Returns the event. Draft events are visible to team members only; everyone else gets 404.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := pathUUID(w, r, "eventID")
	if eventID == "" {
		return
	}
	userID, _ := middleware.UserIDFromContext(r.Context())

	event, err := c.Service.GetEvent(r.Context(), userID, eventID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, event)
}

// GetEventBySlug godoc
// @Summary Get an event by team and event slug
// @Description Returns the event at /{teamSlug}/{eventSlug}. Draft events are visible to team members only; everyone else gets 404.
// @Tags events
// @Produce json
// @Param teamSlug path string true "Team slug"
// @Param eventSlug path string true "Event slug"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams/slug/{teamSlug}/events/{eventSlug} [get]
func (c *EventController) GetEventBySlug(w http.ResponseWriter, r *http.Request) {
	teamSlug := r.PathValue("teamSlug")
	eventSlug := r.PathValue("eventSlug")
	if teamSlug == "" || eventSlug == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing slug")
		return
	}
	userID, _ := middleware.UserIDFromContext(r.Context())

	event, err := c.Service.GetEventBySlug(r.Context(), userID, teamSlug, eventSlug)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, event)
}

// ListTeamEvents godoc
// @Summary List a team's events
// @Description Returns the team's events, optionally filtered by status. Draft events are included for team members only.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param teamID path string true "Team ID (UUID)"
// @Param status query string false "Filter by status: draft or published"
// @Success 200 {object} helpers.APIResponse "data is an array of events"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams/{teamID}/events [get]
func (c *EventController) ListTeamEvents(w http.ResponseWriter, r *http.Request) {
	teamID := pathUUID(w, r, "teamID")
	if teamID == "" {
		return
	}
	userID, _ := middleware.UserIDFromContext(r.Context())

	var status *domain.EventStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.EventStatus(strings.ToLower(s))
		if !st.Valid() {
			h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid status filter")
			return
		}
		status = &st
	}

	events, err := c.Service.ListTeamEvents(r.Context(), userID, teamID, status)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, events)
}

// ListPublishedEvents godoc
// @Summary List upcoming published events
// @Description Returns published upcoming events across all teams, soonest first. An optional search term matches title, description, venue, or address. No authentication required.
// @Tags events
// @Produce json
// @Param q query string false "Search term"
// @Param limit query int false "Maximum number of events (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data is an array of events"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListPublishedEvents(w http.ResponseWriter, r *http.Request) {
	limit := h.ParseLimit(r)
	search := r.URL.Query().Get("q")

	events, err := c.Service.ListPublishedEvents(r.Context(), search, limit)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, events)
}
