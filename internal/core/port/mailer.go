package port

import (
	"context"
	"time"
)

// ContactMessage carries a submitted contact form to the admin mailbox.
type ContactMessage struct {
	Name    string
	Email   string
	Subject string
	Body    string
}

// Mailer delivers outbound mail synchronously; a send either succeeds or
// fails before the HTTP response is produced.
type Mailer interface {
	SendAccountActivation(ctx context.Context, to, username, activationURL string, expiresAt time.Time) error
	SendPasswordReset(ctx context.Context, to, username, resetURL string, expiresAt time.Time) error
	SendContact(ctx context.Context, msg ContactMessage) error
}
