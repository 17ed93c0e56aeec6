package consumer

import (
	"context"
	"fmt"

	"referral-server/internal/clients/kafka"
	"referral-server/internal/observability"

	"github.com/google/uuid"
)

// EventSource streams decoded events to a handler, concurrency at a time,
// until ctx is cancelled
type EventSource interface {
	ConsumeEvents(ctx context.Context, concurrency int, handler func(context.Context, kafka.EventMessage) error) error
	Close() error
}

// EventDeliverer fans an event out to the subscribed webhooks
type EventDeliverer interface {
	DispatchEvent(ctx context.Context, accountID uuid.UUID, appID *uuid.UUID, eventType string, data map[string]interface{}) error
}

// EventConsumer handles consuming webhook events from Kafka
type EventConsumer struct {
	source      EventSource
	deliverer   EventDeliverer
	logger      *observability.Logger
	workerCount int
}

// New creates a new EventConsumer
func New(source EventSource, deliverer EventDeliverer, logger *observability.Logger, workerCount int) *EventConsumer {
	if workerCount <= 0 {
		workerCount = 10
	}

	return &EventConsumer{
		source:      source,
		deliverer:   deliverer,
		logger:      logger,
		workerCount: workerCount,
	}
}

// Start consumes events and delivers up to workerCount of them at once. An
// event is acknowledged only after its delivery finished.
func (c *EventConsumer) Start(ctx context.Context) error {
	c.logger.Info(ctx, fmt.Sprintf("Starting webhook event consumer with %d workers", c.workerCount))

	err := c.source.ConsumeEvents(ctx, c.workerCount, c.processEvent)
	if err != nil && ctx.Err() == nil {
		c.logger.Error(ctx, "consumer error", err)
		return err
	}
	c.logger.Info(ctx, "Consumer stopped")
	return nil
}

// processEvent delivers a single event to the account's webhooks
func (c *EventConsumer) processEvent(ctx context.Context, event kafka.EventMessage) error {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "event_id", Value: event.ID},
		observability.Field{Key: "event_type", Value: event.Type},
		observability.Field{Key: "account_id", Value: event.AccountID},
	)

	accountID, err := uuid.Parse(event.AccountID)
	if err != nil {
		// Unparseable envelopes can never succeed; acknowledge and drop them.
		c.logger.Error(ctx, "invalid account_id, dropping event", err)
		return nil
	}

	var appID *uuid.UUID
	if event.AppID != nil {
		parsed, err := uuid.Parse(*event.AppID)
		if err != nil {
			c.logger.Error(ctx, "invalid app_id, dropping event", err)
			return nil
		}
		appID = &parsed
	}

	if err := c.deliverer.DispatchEvent(ctx, accountID, appID, event.Type, event.Data); err != nil {
		c.logger.Error(ctx, "failed to dispatch event to webhooks", err)
		return fmt.Errorf("failed to dispatch event to webhooks: %w", err)
	}

	return nil
}

// Stop closes the underlying Kafka reader
func (c *EventConsumer) Stop() error {
	c.logger.Info(context.Background(), "Stopping webhook event consumer")
	return c.source.Close()
}
