package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/virgantara/yii2-basic-template/internal/core/domain"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserRegistered logs site.user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	p.logEvent(eventTypeUserRegistered, event.UserID, event.RegisteredAt, event)
	return nil
}

// PublishAccountActivated logs site.user.activated events.
func (p *StubPublisher) PublishAccountActivated(_ context.Context, event domain.AccountActivatedEvent) error {
	p.logEvent(eventTypeAccountActivated, event.UserID, event.ActivatedAt, event)
	return nil
}

// PublishPasswordResetRequested logs site.password.reset_requested events.
func (p *StubPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	p.logEvent(eventTypePasswordResetRequested, event.UserID, event.RequestedAt, event)
	return nil
}

// PublishPasswordChanged logs site.password.changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.logEvent(eventTypePasswordChanged, event.UserID, event.ChangedAt, event)
	return nil
}

// PublishContactMessage logs site.contact.message events.
func (p *StubPublisher) PublishContactMessage(_ context.Context, event domain.ContactMessageEvent) error {
	p.logEvent(eventTypeContactMessage, "", event.ReceivedAt, event)
	return nil
}
