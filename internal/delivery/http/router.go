package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"gatherhub/internal/delivery/http/controllers"
	"gatherhub/internal/delivery/http/middleware"
	"gatherhub/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(
	logger *slog.Logger,
	verifier domain.TokenVerifier,
	authController *controllers.AuthController,
	teamController *controllers.TeamController,
	eventController *controllers.EventController,
	rsvpController *controllers.RSVPController,
	inviteController *controllers.InviteController,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)
	optional := middleware.OptionalAuth(verifier)

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)
	mux.HandleFunc("GET /users/me", auth(authController.Me))

	// Teams
	mux.HandleFunc("POST /teams", auth(teamController.CreateTeam))
	mux.HandleFunc("GET /teams", auth(teamController.ListMyTeams))
	mux.HandleFunc("GET /teams/featured", teamController.ListFeaturedTeams)
	mux.HandleFunc("GET /teams/{teamID}", auth(teamController.GetTeam))
	mux.HandleFunc("PATCH /teams/{teamID}", auth(teamController.UpdateTeam))
	mux.HandleFunc("GET /teams/slug/{slug}", teamController.GetTeamBySlug)
	mux.HandleFunc("GET /teams/slug/{slug}/profile", teamController.GetTeamProfile)
	mux.HandleFunc("GET /teams/{teamID}/members", auth(teamController.ListMembers))
	mux.HandleFunc("PATCH /teams/{teamID}/members/{userID}", auth(teamController.UpdateMemberRole))
	mux.HandleFunc("DELETE /teams/{teamID}/members/{userID}", auth(teamController.RemoveMember))

	// Events
	mux.HandleFunc("POST /teams/{teamID}/events", auth(eventController.CreateEvent))
	mux.HandleFunc("GET /teams/{teamID}/events", optional(eventController.ListTeamEvents))
	mux.HandleFunc("GET /teams/slug/{teamSlug}/events/{eventSlug}", optional(eventController.GetEventBySlug))
	mux.HandleFunc("GET /events", eventController.ListPublishedEvents)
	mux.HandleFunc("GET /events/{eventID}", optional(eventController.GetEvent))
	mux.HandleFunc("PATCH /events/{eventID}", auth(eventController.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", auth(eventController.DeleteEvent))

	// RSVPs
	mux.HandleFunc("POST /events/{eventID}/rsvps", rsvpController.CreateRSVP)
	mux.HandleFunc("DELETE /events/{eventID}/rsvps", rsvpController.CancelRSVP)
	mux.HandleFunc("PATCH /events/{eventID}/rsvps", rsvpController.UpdateRSVP)
	mux.HandleFunc("GET /events/{eventID}/rsvps", auth(rsvpController.ListEventRSVPs))
	mux.HandleFunc("GET /events/{eventID}/rsvps/status", rsvpController.CheckRSVPStatus)
	mux.HandleFunc("GET /events/{eventID}/rsvps/stats", rsvpController.GetStats)

	// Invites
	mux.HandleFunc("POST /teams/{teamID}/invites", auth(inviteController.CreateInvite))
	mux.HandleFunc("GET /teams/{teamID}/invites", auth(inviteController.ListTeamInvites))
	mux.HandleFunc("GET /invites/{code}", inviteController.GetInviteByCode)
	mux.HandleFunc("POST /invites/{code}/accept", auth(inviteController.AcceptInvite))
	mux.HandleFunc("DELETE /invites/{inviteID}", auth(inviteController.CancelInvite))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
