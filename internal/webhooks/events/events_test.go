package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"referral-server/internal/observability"
	"referral-server/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedEvent struct {
	accountID uuid.UUID
	appID     *uuid.UUID
	eventType string
	data      map[string]interface{}
	ctxErr    error
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
	block  chan struct{}
}

func (f *fakePublisher) PublishEvent(ctx context.Context, accountID uuid.UUID, appID *uuid.UUID, eventType string, data map[string]interface{}) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{accountID, appID, eventType, data, ctx.Err()})
	return f.err
}

func TestDispatchRewardCreated_PublishesPayload(t *testing.T) {
	publisher := &fakePublisher{}
	d := NewDispatcher(publisher, observability.NewNopLogger(), time.Second)

	accountID := uuid.New()
	appID := uuid.New()
	campaignID := uuid.New()
	reward := store.Reward{
		ID:           uuid.New(),
		ReferralID:   uuid.New(),
		ConversionID: uuid.New(),
		UserID:       uuid.New(),
		Amount:       decimal.NewFromInt(10),
		Currency:     store.DefaultCurrency,
		Level:        store.RewardLevelDirect,
	}

	d.DispatchRewardCreated(context.Background(), accountID, NewRewardCreatedPayload(reward, campaignID), appID)
	d.Wait()

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, EventRewardCreated, event.eventType)
	assert.Equal(t, accountID, event.accountID)
	require.NotNil(t, event.appID)
	assert.Equal(t, appID, *event.appID)
	assert.Equal(t, reward.ReferralID.String(), event.data["referral_id"])
	assert.Equal(t, reward.UserID.String(), event.data["referrer_id"])
	assert.Equal(t, campaignID.String(), event.data["campaign_id"])
	assert.Equal(t, "10", event.data["reward_amount"])
	assert.Equal(t, 1, event.data["level"])
}

func TestDispatch_SurvivesCallerCancellation(t *testing.T) {
	publisher := &fakePublisher{block: make(chan struct{})}
	d := NewDispatcher(publisher, observability.NewNopLogger(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, uuid.New(), nil, EventRewardCreated, nil)
	cancel()
	close(publisher.block)
	d.Wait()

	require.Len(t, publisher.events, 1)
	assert.NoError(t, publisher.events[0].ctxErr)
}

func TestDispatch_TimeoutAndErrorsAreSwallowed(t *testing.T) {
	publisher := &fakePublisher{block: make(chan struct{}), err: errors.New("kafka unavailable")}
	d := NewDispatcher(publisher, observability.NewNopLogger(), 20*time.Millisecond)

	d.Dispatch(context.Background(), uuid.New(), nil, EventRewardCreated, nil)
	publisher.mu.Lock()
	assert.Empty(t, publisher.events, "dispatch must not wait for the publisher")
	publisher.mu.Unlock()

	d.Wait()
	require.Len(t, publisher.events, 1)
	assert.ErrorIs(t, publisher.events[0].ctxErr, context.DeadlineExceeded)
}
