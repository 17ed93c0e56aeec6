package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"referral-server/internal/observability"
	"referral-server/internal/store"

	"github.com/google/uuid"
)

const (
	signatureHeader  = "X-Webhook-Signature"
	userAgent        = "Referral-Engine-Webhook/1.0"
	maxResponseBytes = 10240
	maxRetryAttempts = 5
)

// WebhookService delivers events to partner endpoints and retries failures
type WebhookService struct {
	store      WebhookStore
	logger     *observability.Logger
	httpClient *http.Client
	now        func() time.Time
}

// New creates a new WebhookService
func New(store WebhookStore, logger *observability.Logger) *WebhookService {
	return &WebhookService{
		store:  store,
		logger: logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// WebhookPayload represents the standard webhook payload structure
type WebhookPayload struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	CreatedAt string                 `json:"created_at"`
	Data      map[string]interface{} `json:"data"`
	AccountID string                 `json:"account_id"`
}

// DispatchEvent sends the event to every active webhook subscribed to it.
// A failing endpoint does not stop delivery to the others.
func (s *WebhookService) DispatchEvent(ctx context.Context, accountID uuid.UUID, appID *uuid.UUID, eventType string, data map[string]interface{}) error {
	webhooks, err := s.store.GetActiveWebhooksForEvent(ctx, accountID, appID, eventType)
	if err != nil {
		s.logger.Error(ctx, "failed to get webhooks", err)
		return fmt.Errorf("failed to get webhooks: %w", err)
	}

	payload := WebhookPayload{
		ID:        uuid.New().String(),
		Type:      eventType,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
		Data:      data,
		AccountID: accountID.String(),
	}

	for _, webhook := range webhooks {
		if err := s.sendWebhook(ctx, webhook, payload); err != nil {
			s.logger.InfoWithError(ctx, fmt.Sprintf("webhook delivery to %s failed", webhook.URL), err)
		}
	}

	return nil
}

// sendWebhook records a delivery and makes the first attempt
func (s *WebhookService) sendWebhook(ctx context.Context, webhook store.Webhook, payload WebhookPayload) error {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "webhook_id", Value: webhook.ID},
		observability.Field{Key: "event_type", Value: payload.Type},
	)

	delivery, err := s.store.CreateWebhookDelivery(ctx, store.CreateWebhookDeliveryParams{
		WebhookID: webhook.ID,
		EventType: payload.Type,
		Payload:   store.JSONB(payload.Data),
	})
	if err != nil {
		s.logger.Error(ctx, "failed to create webhook delivery", err)
		return fmt.Errorf("failed to create webhook delivery: %w", err)
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error(ctx, "failed to marshal payload", err)
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	return s.attempt(ctx, webhook, delivery, payloadBytes)
}

// attempt performs one delivery attempt and records its outcome and the next retry
func (s *WebhookService) attempt(ctx context.Context, webhook store.Webhook, delivery store.WebhookDelivery, payloadBytes []byte) error {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "delivery_id", Value: delivery.ID},
		observability.Field{Key: "attempt", Value: delivery.AttemptNumber},
	)

	success, responseStatus, responseBody, durationMs, deliveryErr := s.deliverWebhook(ctx, webhook, payloadBytes)

	outcome := store.DeliveryOutcomeParams{
		ResponseStatus: &responseStatus,
		ResponseBody:   &responseBody,
		DurationMs:     &durationMs,
	}

	if success {
		outcome.Status = store.DeliveryStatusSucceeded
		if err := s.store.RecordDeliveryOutcome(ctx, delivery.ID, outcome); err != nil {
			s.logger.Error(ctx, "failed to update delivery status", err)
		}
		if err := s.store.RecordWebhookResult(ctx, webhook.ID, true); err != nil {
			s.logger.Error(ctx, "failed to increment webhook sent", err)
		}
		observability.WebhookDeliveries.WithLabelValues("success").Inc()
		s.logger.Info(ctx, "webhook delivered successfully")
		return nil
	}

	errorMessage := deliveryErr.Error()
	outcome.Status = store.DeliveryStatusFailed
	outcome.ErrorMessage = &errorMessage

	retry := webhook.RetryEnabled && delivery.AttemptNumber < webhook.MaxRetries
	if retry {
		nextRetry := s.calculateNextRetry(delivery.AttemptNumber)
		outcome.NextRetryAt = &nextRetry
		outcome.NextAttempt = true
	}

	if err := s.store.RecordDeliveryOutcome(ctx, delivery.ID, outcome); err != nil {
		s.logger.Error(ctx, "failed to update delivery status", err)
	}

	if retry {
		observability.WebhookDeliveries.WithLabelValues("retry_scheduled").Inc()
		s.logger.Info(ctx, fmt.Sprintf("webhook delivery failed, will retry at %s", outcome.NextRetryAt.Format(time.RFC3339)))
	} else {
		observability.WebhookDeliveries.WithLabelValues("failed").Inc()
		if err := s.store.RecordWebhookResult(ctx, webhook.ID, false); err != nil {
			s.logger.Error(ctx, "failed to increment webhook failed", err)
		}
		s.logger.Warn(ctx, "webhook delivery failed, no more retries")
	}

	return fmt.Errorf("webhook delivery failed: %w", deliveryErr)
}

// deliverWebhook performs the actual HTTP request to deliver the webhook
func (s *WebhookService) deliverWebhook(ctx context.Context, webhook store.Webhook, payloadBytes []byte) (success bool, responseStatus int, responseBody string, durationMs int, err error) {
	startTime := s.now()

	signature := s.generateSignature(webhook.Secret, payloadBytes, startTime.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(payloadBytes))
	if err != nil {
		return false, 0, "", 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(signatureHeader, signature)
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	durationMs = int(time.Since(startTime).Milliseconds())
	if err != nil {
		return false, 0, "", durationMs, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	responseStatus = resp.StatusCode

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		s.logger.Warn(ctx, "failed to read response body")
	} else {
		responseBody = string(bodyBytes)
	}

	if responseStatus >= 200 && responseStatus < 300 {
		return true, responseStatus, responseBody, durationMs, nil
	}

	return false, responseStatus, responseBody, durationMs, fmt.Errorf("received non-2xx status code: %d", responseStatus)
}

// generateSignature returns "t=<timestamp>,v1=<hex hmac-sha256 of timestamp.payload>"
func (s *WebhookService) generateSignature(secret string, payload []byte, timestamp int64) string {
	signedPayload := fmt.Sprintf("%d.%s", timestamp, string(payload))

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	signature := hex.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("t=%d,v1=%s", timestamp, signature)
}

// calculateNextRetry returns when the attempt after attemptNumber should run.
// Schedule: 2s, 10s, 20s, 40s, 1m, then 5m.
func (s *WebhookService) calculateNextRetry(attemptNumber int) time.Time {
	var delay time.Duration

	switch attemptNumber {
	case 1:
		delay = 2 * time.Second
	case 2:
		delay = 10 * time.Second
	case 3:
		delay = 20 * time.Second
	case 4:
		delay = 40 * time.Second
	case 5:
		delay = 1 * time.Minute
	default:
		delay = 5 * time.Minute
	}

	return s.now().Add(delay)
}

// RetryFailedDeliveries re-attempts failed deliveries whose retry time has passed
func (s *WebhookService) RetryFailedDeliveries(ctx context.Context, limit int) error {
	deliveries, err := s.store.GetDueWebhookDeliveries(ctx, limit, maxRetryAttempts)
	if err != nil {
		s.logger.Error(ctx, "failed to get pending deliveries", err)
		return fmt.Errorf("failed to get pending deliveries: %w", err)
	}

	if len(deliveries) > 0 {
		s.logger.Info(ctx, fmt.Sprintf("found %d pending deliveries to retry", len(deliveries)))
	}

	for _, delivery := range deliveries {
		webhook, err := s.store.GetWebhookByID(ctx, delivery.WebhookID)
		if err != nil {
			s.logger.Error(ctx, fmt.Sprintf("failed to get webhook %s", delivery.WebhookID), err)
			continue
		}

		if webhook.DeletedAt != nil || webhook.Status != store.WebhookStatusActive {
			s.logger.Info(ctx, fmt.Sprintf("skipping delivery for inactive webhook %s", webhook.ID))
			continue
		}

		payload := WebhookPayload{
			ID:        delivery.ID.String(),
			Type:      delivery.EventType,
			CreatedAt: delivery.CreatedAt.UTC().Format(time.RFC3339),
			Data:      delivery.Payload,
			AccountID: webhook.AccountID.String(),
		}

		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			s.logger.Error(ctx, "failed to marshal payload", err)
			continue
		}

		if err := s.attempt(ctx, webhook, delivery, payloadBytes); err != nil {
			s.logger.InfoWithError(ctx, fmt.Sprintf("retry of delivery %s failed", delivery.ID), err)
		}
	}

	return nil
}
