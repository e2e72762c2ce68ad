package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/virgantara/yii2-basic-template/internal/core/port"
	"github.com/virgantara/yii2-basic-template/internal/infra/config"
)

type capturedSend struct {
	addr string
	from string
	to   []string
	msg  string
}

func testMailer(sendErr error) (*SMTPMailer, *capturedSend) {
	captured := &capturedSend{}
	m := NewSMTPMailer(config.SMTPSettings{
		Host: "mail.example.com",
		Port: 587,
		From: "noreply@example.com",
	}, "admin@example.com", nil)
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		captured.addr = addr
		captured.from = from
		captured.to = to
		captured.msg = string(msg)
		return sendErr
	}
	return m, captured
}

func TestSMTPMailer_SendAccountActivation(t *testing.T) {
	m, captured := testMailer(nil)

	expiresAt := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	err := m.SendAccountActivation(context.Background(), "erika@example.com", "erika", "https://example.com/activate-account?token=abc", expiresAt)
	if err != nil {
		t.Fatalf("SendAccountActivation returned error: %v", err)
	}

	if captured.addr != "mail.example.com:587" {
		t.Fatalf("expected relay address, got %s", captured.addr)
	}
	if len(captured.to) != 1 || captured.to[0] != "erika@example.com" {
		t.Fatalf("expected recipient erika@example.com, got %v", captured.to)
	}
	if !strings.Contains(captured.msg, "https://example.com/activate-account?token=abc") {
		t.Fatalf("expected the activation link in the body:\n%s", captured.msg)
	}
	if !strings.Contains(captured.msg, "Subject: Confirm your registration") {
		t.Fatalf("expected the activation subject:\n%s", captured.msg)
	}
}

func TestSMTPMailer_SendContactGoesToAdmin(t *testing.T) {
	m, captured := testMailer(nil)

	err := m.SendContact(context.Background(), port.ContactMessage{
		Name:    "Erika",
		Email:   "erika@example.com",
		Subject: "Hello",
		Body:    "Just saying hi.",
	})
	if err != nil {
		t.Fatalf("SendContact returned error: %v", err)
	}

	if len(captured.to) != 1 || captured.to[0] != "admin@example.com" {
		t.Fatalf("expected delivery to the admin mailbox, got %v", captured.to)
	}
	if !strings.Contains(captured.msg, "Erika <erika@example.com>") {
		t.Fatalf("expected the sender in the body:\n%s", captured.msg)
	}
}

func TestSMTPMailer_ContactEmptySubjectFallsBack(t *testing.T) {
	m, captured := testMailer(nil)

	if err := m.SendContact(context.Background(), port.ContactMessage{Name: "n", Email: "e@example.com", Body: "b"}); err != nil {
		t.Fatalf("SendContact returned error: %v", err)
	}
	if !strings.Contains(captured.msg, "Subject: Contact form message") {
		t.Fatalf("expected the fallback subject:\n%s", captured.msg)
	}
}

func TestSMTPMailer_DeliveryFailure(t *testing.T) {
	m, _ := testMailer(errors.New("relay refused"))

	err := m.SendPasswordReset(context.Background(), "erika@example.com", "erika", "https://example.com/reset-password?token=abc", time.Now().Add(time.Hour))
	if err == nil {
		t.Fatalf("expected the relay error to surface")
	}
}
