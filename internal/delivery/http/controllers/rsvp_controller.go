package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	h "gatherhub/internal/delivery/http/helpers"
	"gatherhub/internal/delivery/http/middleware"
	"gatherhub/internal/domain"
)

type RSVPController struct {
	Logger  *slog.Logger
	Service domain.RSVPService
}

func NewRSVPController(logger *slog.Logger, svc domain.RSVPService) *RSVPController {
	return &RSVPController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateRSVPRequest is the request body for POST /events/{eventID}/rsvps
type CreateRSVPRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Validate implements helpers.Validator.
func (c CreateRSVPRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		errs = append(errs, "email is required")
	}
	return errs
}

// CreateRSVP godoc
// @Summary RSVP to an event
// @Description Registers an attendee for a published event. If the event is at capacity the attendee is waitlisted instead; the response message says which. No authentication required.
// @Tags rsvps
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param body body CreateRSVPRequest true "Attendee details"
// @Success 201 {object} helpers.APIResponse "data contains the rsvp and an outcome message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (unpublished or past event, invalid input)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already registered)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/rsvps [post]
func (c *RSVPController) CreateRSVP(w http.ResponseWriter, r *http.Request) {
	eventID := pathUUID(w, r, "eventID")
	if eventID == "" {
		return
	}
	var req CreateRSVPRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := c.Service.CreateRSVP(r.Context(), eventID, req.Name, req.Email, req.Message)
	if err != nil {
		c.writeRSVPError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, result)
}

// writeRSVPError maps RSVP-specific sentinels before falling back to the
// shared mapping.
func (c *RSVPController) writeRSVPError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotPublished):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "event is not open for registration")
	case errors.Is(err, domain.ErrEventPassed):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "event has already started")
	default:
		writeServiceError(w, r, c.Logger, err)
	}
}

// CancelRSVPResponse is the response body for DELETE /events/{eventID}/rsvps.
type CancelRSVPResponse struct {
	Cancelled bool                     `json:"cancelled"`
	Promoted  *domain.PromotedAttendee `json:"promoted,omitempty"`
}

// CancelRSVP godoc
// @Summary Cancel an RSVP
// @Description Cancels the registration for the given email. If a confirmed spot is freed, the first waitlisted attendee is promoted and notified.
// @Tags rsvps
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param email query string true "Attendee email"
// @Success 200 {object} helpers.APIResponse "data reports the cancellation and any promotion"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/rsvps [delete]
func (c *RSVPController) CancelRSVP(w http.ResponseWriter, r *http.Request) {
	eventID := pathUUID(w, r, "eventID")
	if eventID == "" {
		return
	}
	email := r.URL.Query().Get("email")
	if strings.TrimSpace(email) == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing email")
		return
	}

	promoted, err := c.Service.CancelRSVP(r.Context(), eventID, email)
	if err != nil {
		c.writeRSVPError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, CancelRSVPResponse{Cancelled: true, Promoted: promoted})
}

// UpdateRSVPRequest is the request body for PATCH /events/{eventID}/rsvps
type UpdateRSVPRequest struct {
	Email   string  `json:"email"`
	Name    *string `json:"name"`
	Message *string `json:"message"`
}

// Validate implements helpers.Validator.
func (u UpdateRSVPRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(u.Email) == "" {
		errs = append(errs, "email is required")
	}
	if u.Name == nil && u.Message == nil {
		errs = append(errs, "at least one of name or message is required")
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		errs = append(errs, "name must not be empty")
	}
	return errs
}

// UpdateRSVP godoc
// @Summary Update RSVP details
// @Description Updates the attendee name and/or message for an existing registration. Admission status never changes through this endpoint.
// @Tags rsvps
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param body body UpdateRSVPRequest true "Fields to update"
// @Success 200 {object} helpers.APIResponse "data contains the updated rsvp"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/rsvps [patch]
func (c *RSVPController) UpdateRSVP(w http.ResponseWriter, r *http.Request) {
	eventID := pathUUID(w, r, "eventID")
	if eventID == "" {
		return
	}
	var req UpdateRSVPRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	rsvp, err := c.Service.UpdateRSVP(r.Context(), eventID, req.Email, req.Name, req.Message)
	if err != nil {
		c.writeRSVPError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, rsvp)
}

// CheckRSVPStatus godoc
// @Summary Look up an RSVP by email
// @Description Returns the registration for the given email, including whether it is confirmed or waitlisted.
// @Tags rsvps
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param email query string true "Attendee email"
// @Success 200 {object} helpers.APIResponse "data contains the rsvp"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/rsvps/status [get]
func (c *RSVPController) CheckRSVPStatus(w http.ResponseWriter, r *http.Request) {
	eventID := pathUUID(w, r, "eventID")
	if eventID == "" {
		return
	}
	email := r.URL.Query().Get("email")
	if strings.TrimSpace(email) == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing email")
		return
	}

	rsvp, err := c.Service.CheckRSVPStatus(r.Context(), eventID, email)
	if err != nil {
		c.writeRSVPError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, rsvp)
}

// ListEventRSVPs godoc
// @Summary List an event's registrations
// @Description Returns all registrations for the event in admission order, optionally filtered by status. Team members only.
// @Tags rsvps
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param status query string false "Filter by status: confirmed or waitlist"
// @Success 200 {object} helpers.APIResponse "data is an array of rsvps"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/rsvps [get]
func (c *RSVPController) ListEventRSVPs(w http.ResponseWriter, r *http.Request) {
	eventID := pathUUID(w, r, "eventID")
	if eventID == "" {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}

	var status *domain.RSVPStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.RSVPStatus(strings.ToLower(s))
		if st != domain.RSVPConfirmed && st != domain.RSVPWaitlisted {
			h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid status filter")
			return
		}
		status = &st
	}

	rsvps, err := c.Service.ListEventRSVPs(r.Context(), userID, eventID, status)
	if err != nil {
		c.writeRSVPError(w, r, err)
		return
	}
	if rsvps == nil {
		rsvps = []*domain.RSVP{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, rsvps)
}

// GetStats godoc
// @Summary Get registration stats for an event
// @Description Returns confirmed and waitlist counts, remaining capacity, and whether the event is full.
// @Tags rsvps
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains the stats"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/rsvps/stats [get]
func (c *RSVPController) GetStats(w http.ResponseWriter, r *http.Request) {
	eventID := pathUUID(w, r, "eventID")
	if eventID == "" {
		return
	}

	stats, err := c.Service.GetStats(r.Context(), eventID)
	if err != nil {
		c.writeRSVPError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, stats)
}
