package services

import (
	"context"
	"fmt"
	"log"

	"gatherhub/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

func (s *emailService) SendTeamInvite(ctx context.Context, data *domain.TeamInviteEmailData) error {
	if data == nil {
		return fmt.Errorf("team invite data is nil")
	}
	if err := s.send("team_invite", data.Email, data); err != nil {
		return err
	}
	log.Printf("[EMAIL] Team invite sent to %s", data.Email)
	return nil
}

func (s *emailService) SendRSVPConfirmed(ctx context.Context, data *domain.RSVPEmailData) error {
	if data == nil {
		return fmt.Errorf("rsvp email data is nil")
	}
	if err := s.send("rsvp_confirmed", data.Email, data); err != nil {
		return err
	}
	log.Printf("[EMAIL] RSVP confirmation sent to %s", data.Email)
	return nil
}

func (s *emailService) SendRSVPWaitlisted(ctx context.Context, data *domain.RSVPEmailData) error {
	if data == nil {
		return fmt.Errorf("rsvp email data is nil")
	}
	if err := s.send("rsvp_waitlisted", data.Email, data); err != nil {
		return err
	}
	log.Printf("[EMAIL] Waitlist notice sent to %s", data.Email)
	return nil
}

func (s *emailService) SendWaitlistPromotion(ctx context.Context, data *domain.RSVPEmailData) error {
	if data == nil {
		return fmt.Errorf("rsvp email data is nil")
	}
	if err := s.send("waitlist_promotion", data.Email, data); err != nil {
		return err
	}
	log.Printf("[EMAIL] Promotion notice sent to %s", data.Email)
	return nil
}

func (s *emailService) send(template, to string, data any) error {
	subject, htmlBody, textBody, err := s.renderer.Render(template, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", template, err)
	}
	if err := s.mailer.Send(to, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send %s email: %w", template, err)
	}
	return nil
}
