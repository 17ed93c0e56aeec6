package events

import (
	"context"
	"sync"
	"time"

	"referral-server/internal/observability"
	"referral-server/internal/store"

	"github.com/google/uuid"
)

// Event types
const (
	EventRewardCreated   = "REWARD_CREATED"
	EventReferralFlagged = "REFERRAL_FLAGGED"
	EventFlagsResolved   = "FRAUD_FLAGS_RESOLVED"
)

const defaultDispatchTimeout = 3 * time.Second

// EventPublisher hands events to the webhook delivery pipeline
type EventPublisher interface {
	PublishEvent(ctx context.Context, accountID uuid.UUID, appID *uuid.UUID, eventType string, data map[string]interface{}) error
}

// RewardCreatedPayload is the body of a REWARD_CREATED event
type RewardCreatedPayload struct {
	RewardID     uuid.UUID
	ReferralID   uuid.UUID
	ConversionID uuid.UUID
	ReferrerID   uuid.UUID
	CampaignID   uuid.UUID
	RewardAmount string
	Currency     string
	Level        int
}

func (p RewardCreatedPayload) toMap() map[string]interface{} {
	return map[string]interface{}{
		"reward_id":     p.RewardID.String(),
		"referral_id":   p.ReferralID.String(),
		"conversion_id": p.ConversionID.String(),
		"referrer_id":   p.ReferrerID.String(),
		"campaign_id":   p.CampaignID.String(),
		"reward_amount": p.RewardAmount,
		"currency":      p.Currency,
		"level":         p.Level,
	}
}

// NewRewardCreatedPayload builds the event body for a newly created reward
func NewRewardCreatedPayload(reward store.Reward, campaignID uuid.UUID) RewardCreatedPayload {
	return RewardCreatedPayload{
		RewardID:     reward.ID,
		ReferralID:   reward.ReferralID,
		ConversionID: reward.ConversionID,
		ReferrerID:   reward.UserID,
		CampaignID:   campaignID,
		RewardAmount: reward.Amount.String(),
		Currency:     reward.Currency,
		Level:        reward.Level,
	}
}

// Dispatcher publishes webhook events without blocking the caller. Publish
// failures are logged and counted, never returned.
type Dispatcher struct {
	publisher EventPublisher
	logger    *observability.Logger
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewDispatcher creates a new Dispatcher. A zero timeout uses 3s.
func NewDispatcher(publisher EventPublisher, logger *observability.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	return &Dispatcher{
		publisher: publisher,
		logger:    logger,
		timeout:   timeout,
	}
}

// Dispatch publishes the event in the background. The publish outlives
// cancellation of ctx and is bounded by the dispatcher timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, accountID uuid.UUID, appID *uuid.UUID, eventType string, data map[string]interface{}) {
	ctx = observability.WithFields(context.WithoutCancel(ctx),
		observability.Field{Key: "event_type", Value: eventType},
		observability.Field{Key: "account_id", Value: accountID},
	)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				observability.WebhookDispatchFailures.Inc()
				d.logger.Warn(ctx, "recovered from panic while dispatching webhook event")
			}
		}()

		publishCtx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		if err := d.publisher.PublishEvent(publishCtx, accountID, appID, eventType, data); err != nil {
			observability.WebhookDispatchFailures.Inc()
			d.logger.Error(ctx, "failed to dispatch webhook event", err)
		}
	}()
}

// DispatchRewardCreated dispatches a REWARD_CREATED event for the reward's app
func (d *Dispatcher) DispatchRewardCreated(ctx context.Context, accountID uuid.UUID, payload RewardCreatedPayload, appID uuid.UUID) {
	d.Dispatch(ctx, accountID, &appID, EventRewardCreated, payload.toMap())
}

// Wait blocks until in-flight dispatches finish. Used on shutdown and in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
