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

type InviteController struct {
	Logger  *slog.Logger
	Service domain.InviteService
}

func NewInviteController(logger *slog.Logger, svc domain.InviteService) *InviteController {
	return &InviteController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateInviteRequest is the request body for POST /teams/{teamID}/invites
type CreateInviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Validate implements helpers.Validator.
func (i CreateInviteRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(i.Email) == "" {
		errs = append(errs, "email is required")
	}
	role := domain.Role(strings.ToLower(strings.TrimSpace(i.Role)))
	if role != domain.RoleAdmin && role != domain.RoleMember {
		errs = append(errs, "role must be \"admin\" or \"member\"")
	}
	return errs
}

// CreateInvite godoc
// @Summary Invite someone to a team
// @Description Creates a single-use invite code and emails it to the invitee. Owner or admin only. One pending invite per email per team.
// @Tags invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param teamID path string true "Team ID (UUID)"
// @Param body body CreateInviteRequest true "Invitee email and role"
// @Success 201 {object} helpers.APIResponse "data contains the created invite"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (invite already pending)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams/{teamID}/invites [post]
func (c *InviteController) CreateInvite(w http.ResponseWriter, r *http.Request) {
	teamID := pathUUID(w, r, "teamID")
	if teamID == "" {
		return
	}
	var req CreateInviteRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}

	role := domain.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	invite, err := c.Service.CreateInvite(r.Context(), userID, teamID, req.Email, role)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, invite)
}

// GetInviteByCode godoc
// @Summary Look up an invite by code
// @Description Returns the invite and its team for display on the accept page. Expired or unknown codes get 404.
// @Tags invites
// @Produce json
// @Param code path string true "Invite code"
// @Success 200 {object} helpers.APIResponse "data contains invite and team"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invites/{code} [get]
func (c *InviteController) GetInviteByCode(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing code")
		return
	}

	iw, err := c.Service.GetInviteByCode(r.Context(), code)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, iw)
}

// AcceptInvite godoc
// @Summary Accept an invite
// @Description Joins the authenticated user to the invite's team with the invited role and consumes the code.
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param code path string true "Invite code"
// @Success 200 {object} helpers.APIResponse "data contains the joined team and role"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already a member)"
// @Failure 410 {object} helpers.APIResponse "error.code: conflict (invite expired)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invites/{code}/accept [post]
func (c *InviteController) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing code")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}

	accepted, err := c.Service.AcceptInvite(r.Context(), userID, code)
	if err != nil {
		if errors.Is(err, domain.ErrInviteExpired) {
			h.WriteJSONError(w, http.StatusGone, h.ErrCodeConflict, "invite has expired")
			return
		}
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, accepted)
}

// ListTeamInvites godoc
// @Summary List a team's pending invites
// @Description Returns the team's live (unexpired) invites. Owner or admin only.
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param teamID path string true "Team ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data is an array of invites"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams/{teamID}/invites [get]
func (c *InviteController) ListTeamInvites(w http.ResponseWriter, r *http.Request) {
	teamID := pathUUID(w, r, "teamID")
	if teamID == "" {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}

	invites, err := c.Service.ListTeamInvites(r.Context(), userID, teamID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	if invites == nil {
		invites = []*domain.Invite{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, invites)
}

// CancelInvite godoc
// @Summary Cancel a pending invite
// @Description Deletes the invite so its code can no longer be used. Owner or admin of the invite's team only.
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param inviteID path string true "Invite ID (UUID)"
// @Success 204 "No content"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invites/{inviteID} [delete]
func (c *InviteController) CancelInvite(w http.ResponseWriter, r *http.Request) {
	inviteID := pathUUID(w, r, "inviteID")
	if inviteID == "" {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}

	if err := c.Service.CancelInvite(r.Context(), userID, inviteID); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
