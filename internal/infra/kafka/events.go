package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/virgantara/yii2-basic-template/internal/core/domain"
	"github.com/virgantara/yii2-basic-template/internal/infra/config"
)

const schemaVersion = "1.0"

const (
	eventTypeUserRegistered         = "user.registered"
	eventTypeAccountActivated       = "user.activated"
	eventTypePasswordResetRequested = "password.reset_requested"
	eventTypePasswordChanged        = "password.changed"
	eventTypeContactMessage         = "contact.message"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: map[string]string{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishUserRegistered publishes site.user.registered events.
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	return p.publish(ctx, event.EventID, eventTypeUserRegistered, event.UserID, event.RegisteredAt, event)
}

// PublishAccountActivated publishes site.user.activated events.
func (p *EventPublisher) PublishAccountActivated(ctx context.Context, event domain.AccountActivatedEvent) error {
	return p.publish(ctx, event.EventID, eventTypeAccountActivated, event.UserID, event.ActivatedAt, event)
}

// PublishPasswordResetRequested publishes site.password.reset_requested events.
func (p *EventPublisher) PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error {
	return p.publish(ctx, event.EventID, eventTypePasswordResetRequested, event.UserID, event.RequestedAt, event)
}

// PublishPasswordChanged publishes site.password.changed events.
func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	return p.publish(ctx, event.EventID, eventTypePasswordChanged, event.UserID, event.ChangedAt, event)
}

// PublishContactMessage publishes site.contact.message events.
func (p *EventPublisher) PublishContactMessage(ctx context.Context, event domain.ContactMessageEvent) error {
	return p.publish(ctx, event.EventID, eventTypeContactMessage, "", event.ReceivedAt, event)
}
