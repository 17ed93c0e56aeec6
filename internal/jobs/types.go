package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Job type constants
const (
	TypeRewardSettlement = "reward:settlement"
)

// Queue names
const (
	QueueHigh   = "high"
	QueueMedium = "medium"
	QueueLow    = "low"
)

// RewardSettlementJobPayload asks the worker to settle rewards for one referral
type RewardSettlementJobPayload struct {
	ReferralID  uuid.UUID `json:"referral_id"`
	AccountID   uuid.UUID `json:"account_id"`
	RequestedBy uuid.UUID `json:"requested_by"`
}

// NewRewardSettlementTask creates a settlement task. Only one task per
// referral can be queued at a time.
func NewRewardSettlementTask(payload RewardSettlementJobPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TypeRewardSettlement, data,
		asynq.Queue(QueueMedium),
		asynq.MaxRetry(5),
		asynq.Timeout(2*time.Minute),
		asynq.TaskID(settlementTaskID(payload.ReferralID)),
		asynq.Retention(time.Hour),
	), nil
}

// ParseRewardSettlementPayload decodes a settlement task payload
func ParseRewardSettlementPayload(task *asynq.Task) (RewardSettlementJobPayload, error) {
	var payload RewardSettlementJobPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RewardSettlementJobPayload{}, fmt.Errorf("failed to unmarshal reward settlement payload: %w", err)
	}
	if payload.ReferralID == uuid.Nil {
		return RewardSettlementJobPayload{}, fmt.Errorf("reward settlement payload has no referral_id")
	}
	return payload, nil
}

func settlementTaskID(referralID uuid.UUID) string {
	return "settle:" + referralID.String()
}
