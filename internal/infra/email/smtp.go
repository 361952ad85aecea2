package email

import (
	"context"
	"log/slog"

	"gopkg.in/gomail.v2"

	"solarnotify/internal/domain/notification"
)

var _ notification.Sender = (*SMTPSender)(nil)

// SMTPSender delivers HTML emails over an SMTP transport. SMTP does not
// return a provider message id, so the outcome's id stays empty and webhook
// correlation only applies when the upstream relay injects one.
type SMTPSender struct {
	dialer      *gomail.Dialer
	fromAddress string
	fromName    string
	replyTo     string
}

// NewSMTPSender creates a new SMTP email sender.
func NewSMTPSender(host string, port int, username, password, fromAddress, fromName, replyTo string) *SMTPSender {
	return &SMTPSender{
		dialer:      gomail.NewDialer(host, port, username, password),
		fromAddress: fromAddress,
		fromName:    fromName,
		replyTo:     replyTo,
	}
}

// Channel returns the email channel identifier.
func (s *SMTPSender) Channel() notification.Channel {
	return notification.ChannelEmail
}

// Send delivers one rendered HTML email. Transport failures become a failed
// Outcome; nothing escapes as an error. gomail has no context support — the
// dialer's own network timeouts bound the call.
func (s *SMTPSender) Send(ctx context.Context, msg *notification.Message) notification.Outcome {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.fromAddress, s.fromName)
	m.SetHeader("To", msg.To)
	if s.replyTo != "" {
		m.SetHeader("Reply-To", s.replyTo)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		slog.Error("email sending failed",
			"to", msg.To,
			"subject", msg.Subject,
			"error", err,
		)
		return notification.Outcome{Status: notification.StatusFailed, Error: err.Error()}
	}

	slog.Info("email sent", "to", msg.To, "subject", msg.Subject)
	return notification.Outcome{Status: notification.StatusSent}
}
