package processor

//go:generate go run go.uber.org/mock/mockgen@latest -source=interfaces.go -destination=mocks_test.go -package=processor

import (
	"context"

	"referral-server/internal/audit"
	settlementProcessor "referral-server/internal/settlement/processor"
	"referral-server/internal/store"

	"github.com/google/uuid"
)

// FraudStore defines the database operations required by FraudProcessor
type FraudStore interface {
	GetReferralOwner(ctx context.Context, referralID uuid.UUID) (store.ReferralOwner, error)
	ResolveReferralFlags(ctx context.Context, params store.ResolveFlagsParams) (store.ResolveFlagsResult, error)
	FlagReferral(ctx context.Context, params store.FlagReferralParams) (store.Referral, store.FraudFlag, error)
	ListFraudFlags(ctx context.Context, params store.ListFraudFlagsParams) ([]store.FraudFlagWithApp, error)
	CountFraudFlags(ctx context.Context, params store.ListFraudFlagsParams) (int, error)
}

// RewardSettler creates the rewards owed for a committed referral
type RewardSettler interface {
	Settle(ctx context.Context, input settlementProcessor.SettleInput) (settlementProcessor.Result, error)
}

// AuditLogger records fraud review actions
type AuditLogger interface {
	Log(ctx context.Context, entry audit.Entry)
}

// EventDispatcher sends webhook events without blocking
type EventDispatcher interface {
	Dispatch(ctx context.Context, accountID uuid.UUID, appID *uuid.UUID, eventType string, data map[string]interface{})
}
