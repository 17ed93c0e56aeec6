package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const webhookColumns = `id, account_id, app_id, url, secret, events, status, retry_enabled, max_retries, total_sent, total_failed, last_success_at, last_failure_at, created_at, updated_at, deleted_at`

const deliveryColumns = `id, webhook_id, event_type, payload, status, response_status, response_body, duration_ms, error_message, attempt_number, next_retry_at, created_at, delivered_at`

const (
	WebhookStatusActive     = "active"
	DeliveryStatusPending   = "pending"
	DeliveryStatusSucceeded = "success"
	DeliveryStatusFailed    = "failed"
)

const sqlGetActiveWebhooksForEvent = `
SELECT ` + webhookColumns + `
FROM webhooks
WHERE account_id = $1
  AND deleted_at IS NULL
  AND status = 'active'
  AND (app_id IS NULL OR $2::uuid IS NULL OR app_id = $2)
  AND $3 = ANY(events)
ORDER BY created_at ASC
`

// GetActiveWebhooksForEvent retrieves the account's active webhooks subscribed
// to eventType. App-scoped webhooks only match events for their app.
func (s *Store) GetActiveWebhooksForEvent(ctx context.Context, accountID uuid.UUID, appID *uuid.UUID, eventType string) ([]Webhook, error) {
	webhooks := []Webhook{}
	err := s.db.SelectContext(ctx, &webhooks, sqlGetActiveWebhooksForEvent, accountID, appID, eventType)
	if err != nil {
		s.logger.Error(ctx, "failed to get webhooks for event", err)
		return nil, classify(ctx, fmt.Errorf("failed to get webhooks for event: %w", err))
	}
	return webhooks, nil
}

const sqlGetWebhookByID = `
SELECT ` + webhookColumns + `
FROM webhooks
WHERE id = $1 AND deleted_at IS NULL
`

// GetWebhookByID retrieves a webhook by ID
func (s *Store) GetWebhookByID(ctx context.Context, webhookID uuid.UUID) (Webhook, error) {
	var webhook Webhook
	err := s.db.GetContext(ctx, &webhook, sqlGetWebhookByID, webhookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Webhook{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get webhook", err)
		return Webhook{}, classify(ctx, fmt.Errorf("failed to get webhook: %w", err))
	}
	return webhook, nil
}

const sqlRecordWebhookSuccess = `
UPDATE webhooks
SET total_sent = total_sent + 1, last_success_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
WHERE id = $1
`

const sqlRecordWebhookFailure = `
UPDATE webhooks
SET total_failed = total_failed + 1, last_failure_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
WHERE id = $1
`

// RecordWebhookResult bumps the webhook's sent or failed counters
func (s *Store) RecordWebhookResult(ctx context.Context, webhookID uuid.UUID, succeeded bool) error {
	query := sqlRecordWebhookFailure
	if succeeded {
		query = sqlRecordWebhookSuccess
	}
	if _, err := s.db.ExecContext(ctx, query, webhookID); err != nil {
		s.logger.Error(ctx, "failed to record webhook result", err)
		return classify(ctx, fmt.Errorf("failed to record webhook result: %w", err))
	}
	return nil
}

// CreateWebhookDeliveryParams represents parameters for creating a webhook delivery
type CreateWebhookDeliveryParams struct {
	WebhookID uuid.UUID
	EventType string
	Payload   JSONB
}

const sqlCreateWebhookDelivery = `
INSERT INTO webhook_deliveries (webhook_id, event_type, payload, status, attempt_number)
VALUES ($1, $2, $3, 'pending', 1)
RETURNING ` + deliveryColumns

// CreateWebhookDelivery creates a pending delivery record for the first attempt
func (s *Store) CreateWebhookDelivery(ctx context.Context, params CreateWebhookDeliveryParams) (WebhookDelivery, error) {
	var delivery WebhookDelivery
	err := s.db.GetContext(ctx, &delivery, sqlCreateWebhookDelivery,
		params.WebhookID,
		params.EventType,
		params.Payload)
	if err != nil {
		s.logger.Error(ctx, "failed to create webhook delivery", err)
		return WebhookDelivery{}, classify(ctx, fmt.Errorf("failed to create webhook delivery: %w", err))
	}
	return delivery, nil
}

// DeliveryOutcomeParams describes the result of one delivery attempt
type DeliveryOutcomeParams struct {
	Status         string
	ResponseStatus *int
	ResponseBody   *string
	DurationMs     *int
	ErrorMessage   *string
	NextRetryAt    *time.Time
	NextAttempt    bool
}

const sqlRecordDeliveryOutcome = `
UPDATE webhook_deliveries
SET status = $2,
    response_status = $3,
    response_body = $4,
    duration_ms = $5,
    error_message = $6,
    next_retry_at = $7,
    attempt_number = CASE WHEN $8 THEN attempt_number + 1 ELSE attempt_number END,
    delivered_at = CASE WHEN $2 = 'success' THEN CURRENT_TIMESTAMP ELSE delivered_at END
WHERE id = $1
`

// RecordDeliveryOutcome stores the result of an attempt and schedules the next one
func (s *Store) RecordDeliveryOutcome(ctx context.Context, deliveryID uuid.UUID, params DeliveryOutcomeParams) error {
	res, err := s.db.ExecContext(ctx, sqlRecordDeliveryOutcome,
		deliveryID,
		params.Status,
		params.ResponseStatus,
		params.ResponseBody,
		params.DurationMs,
		params.ErrorMessage,
		params.NextRetryAt,
		params.NextAttempt)
	if err != nil {
		s.logger.Error(ctx, "failed to record delivery outcome", err)
		return classify(ctx, fmt.Errorf("failed to record delivery outcome: %w", err))
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

const sqlGetDueWebhookDeliveries = `
SELECT ` + deliveryColumns + `
FROM webhook_deliveries
WHERE status = 'failed'
  AND next_retry_at IS NOT NULL
  AND next_retry_at <= CURRENT_TIMESTAMP
  AND attempt_number <= $2
ORDER BY next_retry_at ASC
LIMIT $1
`

// GetDueWebhookDeliveries retrieves failed deliveries whose retry time has passed
func (s *Store) GetDueWebhookDeliveries(ctx context.Context, limit, maxAttempts int) ([]WebhookDelivery, error) {
	deliveries := []WebhookDelivery{}
	err := s.db.SelectContext(ctx, &deliveries, sqlGetDueWebhookDeliveries, limit, maxAttempts)
	if err != nil {
		s.logger.Error(ctx, "failed to get due webhook deliveries", err)
		return nil, classify(ctx, fmt.Errorf("failed to get due webhook deliveries: %w", err))
	}
	return deliveries, nil
}
