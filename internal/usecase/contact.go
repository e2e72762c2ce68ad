package usecase

import (
	"context"
	"errors"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/virgantara/yii2-basic-template/internal/core/domain"
	"github.com/virgantara/yii2-basic-template/internal/core/port"
	"github.com/virgantara/yii2-basic-template/internal/infra/logger"
)

// ErrContactUndeliverable indicates the contact message could not be
// forwarded to the admin mailbox.
var ErrContactUndeliverable = errors.New("contact message could not be delivered")

// ContactService forwards contact page submissions to the admin mailbox.
type ContactService struct {
	mailer port.Mailer
	events port.EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

// NewContactService constructs a ContactService.
func NewContactService(mailer port.Mailer, events port.EventPublisher, log *zap.Logger) *ContactService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ContactService{
		mailer: mailer,
		events: events,
		logger: log,
		now:    time.Now,
	}
}

// Send delivers the message and emits the audit event.
func (s *ContactService) Send(ctx context.Context, msg port.ContactMessage) error {
	if err := s.mailer.SendContact(ctx, msg); err != nil {
		s.logger.Error("contact email failed",
			zap.String("from", logger.MaskEmail(msg.Email)),
			zap.Error(err))
		return ErrContactUndeliverable
	}

	if err := s.events.PublishContactMessage(ctx, domain.ContactMessageEvent{
		EventID:    uuid.NewString(),
		Name:       msg.Name,
		Email:      logger.MaskEmail(msg.Email),
		Subject:    msg.Subject,
		ReceivedAt: s.now().UTC(),
	}); err != nil {
		s.logger.Warn("publish contact message failed", zap.Error(err))
	}

	return nil
}
