package port

import (
	"context"

	"github.com/virgantara/yii2-basic-template/internal/core/domain"
)

// EventPublisher emits audit events for downstream consumers. Publishing
// is best-effort from the flows' point of view; failures are logged, never
// surfaced to the user.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishAccountActivated(ctx context.Context, event domain.AccountActivatedEvent) error
	PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishContactMessage(ctx context.Context, event domain.ContactMessageEvent) error
}
