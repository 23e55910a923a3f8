package services

import (
	"bytes"
	"context"
	"fmt"
	"html"

	"github.com/mithilsmehta/TaskFlow/internal/config"
	"github.com/mithilsmehta/TaskFlow/internal/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers a notification to a user who had no live connection
type Mailer interface {
	SendNotificationEmail(ctx context.Context, to models.User, n models.Notification) error
}

// EmailService handles email sending via SendGrid
type EmailService struct {
	fromEmail string
	fromName  string
	client    *sendgrid.Client
}

// NewEmailService creates a new email service
func NewEmailService(cfg config.EmailConfig) *EmailService {
	return &EmailService{
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		client:    sendgrid.NewSendClient(cfg.APIKey),
	}
}

// SendNotificationEmail mails one notification to its recipient
func (s *EmailService) SendNotificationEmail(ctx context.Context, to models.User, n models.Notification) error {
	message := buildNotificationEmail(s.fromName, s.fromEmail, to, n)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email via SendGrid: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid API error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

func buildNotificationEmail(fromName, fromEmail string, to models.User, n models.Notification) *mail.SGMailV3 {
	from := mail.NewEmail(fromName, fromEmail)
	recipient := mail.NewEmail(to.Name, to.Email)
	subject := fmt.Sprintf("%s: %s", fromName, n.Title)
	return mail.NewSingleEmail(from, subject, recipient, notificationEmailText(to, n), notificationEmailHTML(to, n))
}

func notificationEmailHTML(to models.User, n models.Notification) string {
	var b bytes.Buffer

	b.WriteString(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #0066cc; color: white; padding: 20px; border-radius: 8px 8px 0 0; }
        .content { background-color: #f8f9fa; padding: 20px; border-radius: 0 0 8px 8px; }
        .footer { text-align: center; color: #666; font-size: 12px; margin-top: 30px; }
    </style>
</head>
<body>
    <div class="header">
        <h1 style="margin: 0;">` + html.EscapeString(n.Title) + `</h1>
    </div>
    <div class="content">
        <p>Hello ` + html.EscapeString(to.Name) + `,</p>
        <p>` + html.EscapeString(n.Message) + `</p>
        <p>You received this email because you were offline when it happened.</p>
    </div>
    <div class="footer">
        <p>This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>`)

	return b.String()
}

func notificationEmailText(to models.User, n models.Notification) string {
	return fmt.Sprintf(`%s

Hello %s,

%s

You received this email because you were offline when it happened.

---
This is an automated email. Please do not reply.`, n.Title, to.Name, n.Message)
}
