package main

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"

	"gatherhub/config"
	"gatherhub/internal/adapters/auth"
	"gatherhub/internal/adapters/email"
	httpdelivery "gatherhub/internal/delivery/http"
	"gatherhub/internal/delivery/http/controllers"
	"gatherhub/internal/delivery/http/middleware"
	"gatherhub/internal/domain"
	"gatherhub/internal/repository/postgres"
	"gatherhub/internal/services"
)

const (
	serviceTimeout = 10 * time.Second
	bcryptCost     = 12
)

// @title GatherHub API
// @version 1.0
// @description Team-based event publishing with capacity-aware RSVPs and waitlists.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "err", err)
		os.Exit(1)
	}

	clock := domain.NewRealClock()

	teamRepo := postgres.NewTeamRepository(db)
	teamMemberRepo := postgres.NewTeamMemberRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	rsvpRepo := postgres.NewRSVPRepository(db)
	inviteRepo := postgres.NewInviteRepository(db)
	userRepo := postgres.NewUserRepository(db)

	hasher := auth.NewBcryptHasher(bcryptCost)
	tokenIssuer := auth.NewJWTIssuer(cfg.JWTSecret)
	tokenVerifier := auth.NewJWTVerifier(cfg.JWTSecret)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.MailProvider,
		FromAddress: cfg.MailFromAddress,
		FromName:    cfg.MailFromName,
		SES: email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretKey,
		},
	})
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())

	userService := services.NewUserService(userRepo, hasher, tokenIssuer, cfg.TokenExpiry, clock)
	teamService := services.NewTeamService(teamRepo, teamMemberRepo, eventRepo, clock, serviceTimeout)
	eventService := services.NewEventService(eventRepo, rsvpRepo, teamRepo, teamMemberRepo, clock, serviceTimeout)
	rsvpService := services.NewRSVPService(eventRepo, rsvpRepo, teamMemberRepo, emailService, clock, logger, serviceTimeout)
	inviteService := services.NewInviteService(inviteRepo, teamRepo, teamMemberRepo, userRepo, emailService, clock, logger, serviceTimeout)

	authController := controllers.NewAuthController(logger, userService)
	teamController := controllers.NewTeamController(logger, teamService)
	eventController := controllers.NewEventController(logger, eventService)
	rsvpController := controllers.NewRSVPController(logger, rsvpService)
	inviteController := controllers.NewInviteController(logger, inviteService)

	mux := httpdelivery.NewRouter(logger, tokenVerifier,
		authController, teamController, eventController, rsvpController, inviteController)

	handler := middleware.CORS(cfg.AllowedOrigins,
		middleware.LoggingMiddleware(logger, mux))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("starting server", "port", cfg.Port, "env", cfg.Environment)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
