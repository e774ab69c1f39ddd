package service

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"

	"alumniportal/internal/config"
	"alumniportal/internal/model"
)

// Mailer echoes a notification to the recipient's mailbox. Delivery is
// best-effort and happens after the owning transaction commits; a failed
// email never fails the operation that produced the notification.
type Mailer interface {
	SendNotification(ctx context.Context, toEmail string, n *model.Notification) error
}

type resendMailer struct {
	client    *resend.Client
	fromEmail string
}

// NewMailer returns a nil-safe mailer. Without an API key it is a no-op,
// mirroring how the rest of the stack degrades when optional backends are
// absent.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.ResendAPIKey == "" {
		return &resendMailer{}
	}
	return &resendMailer{
		client:    resend.NewClient(cfg.ResendAPIKey),
		fromEmail: cfg.FromEmail,
	}
}

func (m *resendMailer) SendNotification(ctx context.Context, toEmail string, n *model.Notification) error {
	if m.client == nil {
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("Alumni Portal <%s>", m.fromEmail),
		To:      []string{toEmail},
		Subject: n.Title,
		Text:    n.Body,
	}

	_, err := m.client.Emails.Send(params)
	return err
}
