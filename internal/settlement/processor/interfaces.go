package processor

//go:generate go run go.uber.org/mock/mockgen@latest -source=interfaces.go -destination=mocks_test.go -package=processor

import (
	"context"

	"referral-server/internal/audit"
	"referral-server/internal/jobs"
	"referral-server/internal/store"
	"referral-server/internal/webhooks/events"

	"github.com/google/uuid"
)

// SettlementStore defines the database operations required by SettlementProcessor
type SettlementStore interface {
	GetReferralOwner(ctx context.Context, referralID uuid.UUID) (store.ReferralOwner, error)
	GetConversionsByReferral(ctx context.Context, referralID uuid.UUID) ([]store.Conversion, error)
	GetLevelOneRewardByConversion(ctx context.Context, conversionID uuid.UUID) (store.Reward, error)
	GetLevelTwoRewardByReferral(ctx context.Context, referralID uuid.UUID) (store.Reward, error)
	CreateReward(ctx context.Context, params store.CreateRewardParams) (store.Reward, error)
}

// AuditLogger records settlement actions
type AuditLogger interface {
	Log(ctx context.Context, entry audit.Entry)
}

// EventDispatcher sends REWARD_CREATED notifications without blocking
type EventDispatcher interface {
	DispatchRewardCreated(ctx context.Context, accountID uuid.UUID, payload events.RewardCreatedPayload, appID uuid.UUID)
}

// JobEnqueuer schedules background settlement
type JobEnqueuer interface {
	EnqueueRewardSettlement(ctx context.Context, payload jobs.RewardSettlementJobPayload) error
}
