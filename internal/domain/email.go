package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// TeamInviteEmailData holds data for the team invitation email.
type TeamInviteEmailData struct {
	Email       string
	TeamName    string
	InviterName string
	Role        string
	Code        string
	ExpiresDays int
}

// RSVPEmailData holds data for RSVP confirmation and waitlist emails.
type RSVPEmailData struct {
	Email        string
	AttendeeName string
	EventTitle   string
}

// EmailService defines the contract for sending domain-level emails.
// Delivery is best-effort: failures are surfaced to the caller but mutations
// that triggered the email are never rolled back.
type EmailService interface {
	SendTeamInvite(ctx context.Context, data *TeamInviteEmailData) error
	SendRSVPConfirmed(ctx context.Context, data *RSVPEmailData) error
	SendRSVPWaitlisted(ctx context.Context, data *RSVPEmailData) error
	SendWaitlistPromotion(ctx context.Context, data *RSVPEmailData) error
}
