package producer

import (
	"context"
	"fmt"
	"time"

	"referral-server/internal/clients/kafka"
	"referral-server/internal/observability"

	"github.com/google/uuid"
)

// KafkaPublisher is the transport the producer writes envelopes to
type KafkaPublisher interface {
	PublishEvent(ctx context.Context, event kafka.EventMessage) error
}

// EventProducer handles publishing webhook events to Kafka
type EventProducer struct {
	kafkaProducer KafkaPublisher
	logger        *observability.Logger
	now           func() time.Time
}

// New creates a new EventProducer
func New(kafkaProducer KafkaPublisher, logger *observability.Logger) *EventProducer {
	return &EventProducer{
		kafkaProducer: kafkaProducer,
		logger:        logger,
		now:           time.Now,
	}
}

// PublishEvent wraps data in an event envelope and publishes it for webhook delivery
func (p *EventProducer) PublishEvent(ctx context.Context, accountID uuid.UUID, appID *uuid.UUID, eventType string, data map[string]interface{}) error {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "account_id", Value: accountID},
		observability.Field{Key: "event_type", Value: eventType},
	)

	var appIDStr *string
	if appID != nil {
		str := appID.String()
		appIDStr = &str
		ctx = observability.WithFields(ctx, observability.Field{Key: "app_id", Value: *appID})
	}

	event := kafka.EventMessage{
		ID:        uuid.New().String(),
		Type:      eventType,
		AccountID: accountID.String(),
		AppID:     appIDStr,
		Data:      data,
		Timestamp: p.now().UTC().Format(time.RFC3339),
	}

	if err := p.kafkaProducer.PublishEvent(ctx, event); err != nil {
		p.logger.Error(ctx, "failed to publish event to kafka", err)
		return fmt.Errorf("failed to publish event to kafka: %w", err)
	}

	p.logger.Info(ctx, fmt.Sprintf("published %s event to kafka", eventType))
	return nil
}
