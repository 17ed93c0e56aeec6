package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"referral-server/internal/observability"
	"referral-server/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockStore is an in-memory WebhookStore
type MockStore struct {
	mu         sync.Mutex
	webhooks   []store.Webhook
	deliveries map[uuid.UUID]store.WebhookDelivery
	outcomes   []store.DeliveryOutcomeParams
	results    []bool
	due        []store.WebhookDelivery
}

func newMockStore(webhooks ...store.Webhook) *MockStore {
	return &MockStore{webhooks: webhooks, deliveries: map[uuid.UUID]store.WebhookDelivery{}}
}

func (m *MockStore) GetActiveWebhooksForEvent(ctx context.Context, accountID uuid.UUID, appID *uuid.UUID, eventType string) ([]store.Webhook, error) {
	var out []store.Webhook
	for _, w := range m.webhooks {
		if w.AccountID != accountID || w.Status != store.WebhookStatusActive {
			continue
		}
		for _, e := range w.Events {
			if e == eventType {
				out = append(out, w)
			}
		}
	}
	return out, nil
}

func (m *MockStore) GetWebhookByID(ctx context.Context, webhookID uuid.UUID) (store.Webhook, error) {
	for _, w := range m.webhooks {
		if w.ID == webhookID {
			return w, nil
		}
	}
	return store.Webhook{}, store.ErrNotFound
}

func (m *MockStore) CreateWebhookDelivery(ctx context.Context, params store.CreateWebhookDeliveryParams) (store.WebhookDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := store.WebhookDelivery{
		ID:            uuid.New(),
		WebhookID:     params.WebhookID,
		EventType:     params.EventType,
		Payload:       params.Payload,
		Status:        store.DeliveryStatusPending,
		AttemptNumber: 1,
		CreatedAt:     time.Now(),
	}
	m.deliveries[d.ID] = d
	return d, nil
}

func (m *MockStore) RecordDeliveryOutcome(ctx context.Context, deliveryID uuid.UUID, params store.DeliveryOutcomeParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, params)
	return nil
}

func (m *MockStore) RecordWebhookResult(ctx context.Context, webhookID uuid.UUID, succeeded bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, succeeded)
	return nil
}

func (m *MockStore) GetDueWebhookDeliveries(ctx context.Context, limit, maxAttempts int) ([]store.WebhookDelivery, error) {
	return m.due, nil
}

func newWebhook(accountID uuid.UUID, url string, events ...string) store.Webhook {
	return store.Webhook{
		ID:           uuid.New(),
		AccountID:    accountID,
		URL:          url,
		Secret:       "test-secret",
		Events:       events,
		Status:       store.WebhookStatusActive,
		RetryEnabled: true,
		MaxRetries:   3,
	}
}

func TestGenerateSignature(t *testing.T) {
	service := New(newMockStore(), observability.NewNopLogger())

	payload := []byte(`{"test":"data"}`)
	signature := service.generateSignature("test-secret", payload, 1234567890)

	mac := hmac.New(sha256.New, []byte("test-secret"))
	mac.Write([]byte("1234567890." + string(payload)))
	assert.Equal(t, "t=1234567890,v1="+hex.EncodeToString(mac.Sum(nil)), signature)
}

func TestCalculateNextRetry(t *testing.T) {
	service := New(newMockStore(), observability.NewNopLogger())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	tests := []struct {
		attemptNumber int
		expectedDelay time.Duration
	}{
		{1, 2 * time.Second},
		{2, 10 * time.Second},
		{3, 20 * time.Second},
		{4, 40 * time.Second},
		{5, time.Minute},
		{6, 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attemptNumber), func(t *testing.T) {
			assert.Equal(t, now.Add(tt.expectedDelay), service.calculateNextRetry(tt.attemptNumber))
		})
	}
}

func TestDispatchEvent_DeliversSignedPayload(t *testing.T) {
	accountID := uuid.New()
	var gotSignature, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotSignature = r.Header.Get("X-Webhook-Signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	subscribed := newWebhook(accountID, server.URL, "REWARD_CREATED")
	other := newWebhook(accountID, server.URL, "SOMETHING_ELSE")
	mockStore := newMockStore(subscribed, other)
	service := New(mockStore, observability.NewNopLogger())

	err := service.DispatchEvent(context.Background(), accountID, nil, "REWARD_CREATED", map[string]interface{}{"referral_id": "r1"})

	require.NoError(t, err)
	require.Len(t, mockStore.outcomes, 1)
	assert.Equal(t, store.DeliveryStatusSucceeded, mockStore.outcomes[0].Status)
	assert.Equal(t, []bool{true}, mockStore.results)

	var payload WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(gotBody), &payload))
	assert.Equal(t, "REWARD_CREATED", payload.Type)
	assert.Equal(t, "r1", payload.Data["referral_id"])
	assert.True(t, strings.HasPrefix(gotSignature, "t="))
	assert.Contains(t, gotSignature, ",v1=")
}

func TestDispatchEvent_FailureSchedulesRetry(t *testing.T) {
	accountID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	mockStore := newMockStore(newWebhook(accountID, server.URL, "REWARD_CREATED"))
	service := New(mockStore, observability.NewNopLogger())

	err := service.DispatchEvent(context.Background(), accountID, nil, "REWARD_CREATED", nil)

	require.NoError(t, err)
	require.Len(t, mockStore.outcomes, 1)
	outcome := mockStore.outcomes[0]
	assert.Equal(t, store.DeliveryStatusFailed, outcome.Status)
	assert.True(t, outcome.NextAttempt)
	require.NotNil(t, outcome.NextRetryAt)
	require.NotNil(t, outcome.ResponseStatus)
	assert.Equal(t, http.StatusBadGateway, *outcome.ResponseStatus)
	assert.Empty(t, mockStore.results)
}

func TestRetryFailedDeliveries_FinalAttemptMarksWebhookFailed(t *testing.T) {
	accountID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	webhook := newWebhook(accountID, server.URL, "REWARD_CREATED")
	mockStore := newMockStore(webhook)
	mockStore.due = []store.WebhookDelivery{{
		ID:            uuid.New(),
		WebhookID:     webhook.ID,
		EventType:     "REWARD_CREATED",
		Payload:       store.JSONB{"referral_id": "r1"},
		Status:        store.DeliveryStatusFailed,
		AttemptNumber: webhook.MaxRetries,
		CreatedAt:     time.Now(),
	}}
	service := New(mockStore, observability.NewNopLogger())

	err := service.RetryFailedDeliveries(context.Background(), 100)

	require.NoError(t, err)
	require.Len(t, mockStore.outcomes, 1)
	assert.False(t, mockStore.outcomes[0].NextAttempt)
	assert.Nil(t, mockStore.outcomes[0].NextRetryAt)
	assert.Equal(t, []bool{false}, mockStore.results)
}

func TestRetryFailedDeliveries_SkipsInactiveWebhook(t *testing.T) {
	webhook := newWebhook(uuid.New(), "http://127.0.0.1:0", "REWARD_CREATED")
	webhook.Status = "paused"
	mockStore := newMockStore(webhook)
	mockStore.due = []store.WebhookDelivery{{ID: uuid.New(), WebhookID: webhook.ID, AttemptNumber: 2}}
	service := New(mockStore, observability.NewNopLogger())

	err := service.RetryFailedDeliveries(context.Background(), 100)

	require.NoError(t, err)
	assert.Empty(t, mockStore.outcomes)
}
