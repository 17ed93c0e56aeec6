package service

import (
	"context"

	"referral-server/internal/store"

	"github.com/google/uuid"
)

// WebhookStore defines the webhook and delivery operations the service needs
type WebhookStore interface {
	GetActiveWebhooksForEvent(ctx context.Context, accountID uuid.UUID, appID *uuid.UUID, eventType string) ([]store.Webhook, error)
	GetWebhookByID(ctx context.Context, webhookID uuid.UUID) (store.Webhook, error)
	CreateWebhookDelivery(ctx context.Context, params store.CreateWebhookDeliveryParams) (store.WebhookDelivery, error)
	RecordDeliveryOutcome(ctx context.Context, deliveryID uuid.UUID, params store.DeliveryOutcomeParams) error
	RecordWebhookResult(ctx context.Context, webhookID uuid.UUID, succeeded bool) error
	GetDueWebhookDeliveries(ctx context.Context, limit, maxAttempts int) ([]store.WebhookDelivery, error)
}
