package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	h "gatherhub/internal/delivery/http/helpers"
	"gatherhub/internal/delivery/http/middleware"
	"gatherhub/internal/domain"
)

// uuidRegex matches a canonical UUID string (8-4-4-4-12 hex).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

type TeamController struct {
	Logger  *slog.Logger
	Service domain.TeamService
}

func NewTeamController(logger *slog.Logger, svc domain.TeamService) *TeamController {
	return &TeamController{
		Logger:  logger,
		Service: svc,
	}
}

// writeServiceError maps domain sentinel errors to HTTP error responses.
// Unrecognized errors are logged and returned as 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		h.WriteJSONError(w, http.StatusForbidden, h.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrInvalidInput):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrAlreadyMember), errors.Is(err, domain.ErrDuplicateRSVP):
		h.WriteJSONError(w, http.StatusConflict, h.ErrCodeConflict, err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
	}
}

// pathUUID extracts and validates a UUID path value. On failure it writes a
// 400 error and returns "".
func pathUUID(w http.ResponseWriter, r *http.Request, name string) string {
	v := r.PathValue(name)
	if v == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing "+name)
		return ""
	}
	if !uuidRegex.MatchString(v) {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid "+name)
		return ""
	}
	return v
}

// CreateTeamRequest is the request body for POST /teams
type CreateTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate implements helpers.Validator.
func (t CreateTeamRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// CreateTeam godoc
// @Summary Create a team
// @Description Creates a team owned by the authenticated user. A unique URL slug is derived from the name; collisions get a numeric suffix.
// @Tags teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateTeamRequest true "Team data"
// @Success 201 {object} helpers.APIResponse "data contains the created team"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams [post]
func (c *TeamController) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}

	team, err := c.Service.CreateTeam(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, team)
}

// UpdateTeamRequest is the request body for PATCH /teams/{teamID}
type UpdateTeamRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Validate implements helpers.Validator.
func (t UpdateTeamRequest) Validate() []string {
	var errs []string
	if t.Name == nil && t.Description == nil {
		errs = append(errs, "at least one of name or description is required")
	}
	if t.Name != nil && strings.TrimSpace(*t.Name) == "" {
		errs = append(errs, "name must not be empty")
	}
	return errs
}

// UpdateTeam godoc
// @Summary Update a team
// @Description Updates the team's name and/or description. Renaming reallocates the slug. Owner or admin only.
// @Tags teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param teamID path string true "Team ID (UUID)"
// @Param body body UpdateTeamRequest true "Fields to update"
// @Success 200 {object} helpers.APIResponse "data contains the updated team"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams/{teamID} [patch]
func (c *TeamController) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	teamID := pathUUID(w, r, "teamID")
	if teamID == "" {
		return
	}
	var req UpdateTeamRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}

	team, err := c.Service.UpdateTeam(r.Context(), userID, teamID, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, team)
}

// GetTeam godoc
// @Summary Get a team with the caller's role
// @Description Returns the team and the authenticated user's role in it. Members only.
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Param teamID path string true "Team ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains team and role"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams/{teamID} [get]
func (c *TeamController) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamID := pathUUID(w, r, "teamID")
	if teamID == "" {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}

	tw, err := c.Service.GetTeamWithRole(r.Context(), userID, teamID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, tw)
}

// GetTeamBySlug godoc
// @Summary Get a team's public page by slug
// @Description Returns the public team profile for the given slug. No authentication required.
// @Tags teams
// @Produce json
// @Param slug path string true "Team slug"
// @Success 200 {object} helpers.APIResponse "data contains the team"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams/slug/{slug} [get]
func (c *TeamController) GetTeamBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing slug")
		return
	}

	team, err := c.Service.GetTeamBySlug(r.Context(), slug)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, team)
}

// GetTeamProfile godoc
// @Summary Get a team's public profile by slug
// @Description Returns the team with its most recent published events, a sample of named members, and event stats. No authentication required.
// @Tags teams
// @Produce json
// @Param slug path string true "Team slug"
// @Success 200 {object} helpers.APIResponse "data contains the team profile"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams/slug/{slug}/profile [get]
func (c *TeamController) GetTeamProfile(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing slug")
		return
	}

	profile, err := c.Service.GetTeamProfile(r.Context(), slug)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, profile)
}

// ListFeaturedTeams godoc
// @Summary List featured teams
// @Description Returns teams ranked by recent and upcoming published events, most active first. No authentication required.
// @Tags teams
// @Produce json
// @Param limit query int false "Maximum number of teams (default 6, max 100)"
// @Success 200 {object} helpers.APIResponse "data is an array of featured teams"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams/featured [get]
func (c *TeamController) ListFeaturedTeams(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if r.URL.Query().Get("limit") != "" {
		limit = h.ParseLimit(r)
	}

	featured, err := c.Service.ListFeaturedTeams(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, featured)
}

// ListMyTeams godoc
// @Summary List the caller's teams
// @Description Returns all teams the authenticated user belongs to, with their role in each.
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data is an array of team + role objects"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams [get]
func (c *TeamController) ListMyTeams(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}

	teams, err := c.Service.ListMyTeams(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	if teams == nil {
		teams = []*domain.TeamWithRole{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, teams)
}

// ListMembers godoc
// @Summary List team members
// @Description Returns all members of the team with names, emails, and roles. Members only.
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Param teamID path string true "Team ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data is an array of members"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams/{teamID}/members [get]
func (c *TeamController) ListMembers(w http.ResponseWriter, r *http.Request) {
	teamID := pathUUID(w, r, "teamID")
	if teamID == "" {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}

	members, err := c.Service.ListMembers(r.Context(), userID, teamID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	if members == nil {
		members = []*domain.TeamMember{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, members)
}

// UpdateMemberRoleRequest is the request body for PATCH /teams/{teamID}/members/{userID}
type UpdateMemberRoleRequest struct {
	Role string `json:"role"`
}

// Validate implements helpers.Validator.
func (u UpdateMemberRoleRequest) Validate() []string {
	role := domain.Role(strings.ToLower(strings.TrimSpace(u.Role)))
	if !role.Valid() {
		return []string{"role must be \"owner\", \"admin\", or \"member\""}
	}
	return nil
}

// UpdateMemberRole godoc
// @Summary Change a member's role
// @Description Changes the role of a team member. Owner only; owners cannot change their own role.
// @Tags teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param teamID path string true "Team ID (UUID)"
// @Param userID path string true "User ID (UUID)"
// @Param body body UpdateMemberRoleRequest true "New role"
// @Success 204 "No content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams/{teamID}/members/{userID} [patch]
func (c *TeamController) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	teamID := pathUUID(w, r, "teamID")
	if teamID == "" {
		return
	}
	memberID := pathUUID(w, r, "userID")
	if memberID == "" {
		return
	}
	var req UpdateMemberRoleRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}

	role := domain.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if err := c.Service.UpdateMemberRole(r.Context(), callerID, teamID, memberID, role); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember godoc
// @Summary Remove a member from a team
// @Description Removes a member. Members may remove themselves (leave); admins may remove plain members; owners may remove anyone but the last owner.
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Param teamID path string true "Team ID (UUID)"
// @Param userID path string true "User ID (UUID)"
// @Success 204 "No content"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams/{teamID}/members/{userID} [delete]
func (c *TeamController) RemoveMember(w http.ResponseWriter, r *http.Request) {
	teamID := pathUUID(w, r, "teamID")
	if teamID == "" {
		return
	}
	memberID := pathUUID(w, r, "userID")
	if memberID == "" {
		return
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}

	if err := c.Service.RemoveMember(r.Context(), callerID, teamID, memberID); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
