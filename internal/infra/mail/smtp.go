// Package mail delivers outbound messages over SMTP. Sends are synchronous:
// the caller learns about a delivery failure before the HTTP response is
// produced, and no retry queue exists.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/virgantara/yii2-basic-template/internal/core/port"
	"github.com/virgantara/yii2-basic-template/internal/infra/config"
	"github.com/virgantara/yii2-basic-template/internal/infra/logger"
	"github.com/virgantara/yii2-basic-template/internal/infra/telemetry"
)

// sendFunc matches smtp.SendMail; swapped out in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer implements port.Mailer against a plain SMTP relay.
type SMTPMailer struct {
	cfg        config.SMTPSettings
	adminEmail string
	logger     *zap.Logger
	metrics    *telemetry.Provider
	send       sendFunc
}

// NewSMTPMailer constructs a mailer from the SMTP settings.
func NewSMTPMailer(cfg config.SMTPSettings, adminEmail string, log *zap.Logger) *SMTPMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &SMTPMailer{
		cfg:        cfg,
		adminEmail: adminEmail,
		logger:     log,
		send:       smtp.SendMail,
	}
}

// WithMetrics attaches delivery failure counters.
func (m *SMTPMailer) WithMetrics(metrics *telemetry.Provider) *SMTPMailer {
	m.metrics = metrics
	return m
}

// SendAccountActivation delivers the activation link to a new account.
func (m *SMTPMailer) SendAccountActivation(ctx context.Context, to, username, activationURL string, expiresAt time.Time) error {
	subject := "Confirm your registration"
	body := fmt.Sprintf(
		"Hello %s,\n\nTo be able to log in you need to confirm your registration."+
			"\nFollow the link below:\n\n%s\n\nThe link is valid until %s.\n",
		username, activationURL, expiresAt.UTC().Format(time.RFC1123),
	)

	return m.deliver(ctx, to, subject, body)
}

// SendPasswordReset delivers the password reset link.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, username, resetURL string, expiresAt time.Time) error {
	subject := "Password reset requested"
	body := fmt.Sprintf(
		"Hello %s,\n\nFollow the link below to reset your password:\n\n%s"+
			"\n\nThe link is valid until %s.\nIf you did not request a reset, ignore this message.\n",
		username, resetURL, expiresAt.UTC().Format(time.RFC1123),
	)

	return m.deliver(ctx, to, subject, body)
}

// SendContact forwards a contact form submission to the admin mailbox.
func (m *SMTPMailer) SendContact(ctx context.Context, msg port.ContactMessage) error {
	subject := strings.TrimSpace(msg.Subject)
	if subject == "" {
		subject = "Contact form message"
	}

	body := fmt.Sprintf("From: %s <%s>\n\n%s\n", msg.Name, msg.Email, msg.Body)

	return m.deliver(ctx, m.adminEmail, subject, body)
}

func (m *SMTPMailer) deliver(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	var sb strings.Builder
	sb.WriteString("From: " + m.cfg.From + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)

	if err := m.send(addr, auth, m.cfg.From, []string{to}, []byte(sb.String())); err != nil {
		m.metrics.MailSendFailed()
		m.logger.Warn("mail delivery failed",
			zap.String("to", logger.MaskEmail(to)),
			zap.Error(err),
		)
		return fmt.Errorf("send mail: %w", err)
	}

	return nil
}
