package workers

import (
	"context"
	"errors"
	"fmt"

	"referral-server/internal/jobs"
	"referral-server/internal/observability"
	settlementProcessor "referral-server/internal/settlement/processor"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// RewardSettler settles the rewards owed for one referral
type RewardSettler interface {
	SettleReferral(ctx context.Context, referralID uuid.UUID) (settlementProcessor.Result, error)
}

// SettlementWorker handles reward settlement jobs
type SettlementWorker struct {
	settler RewardSettler
	logger  *observability.Logger
}

// NewSettlementWorker creates a new settlement worker
func NewSettlementWorker(settler RewardSettler, logger *observability.Logger) *SettlementWorker {
	return &SettlementWorker{
		settler: settler,
		logger:  logger,
	}
}

// ProcessRewardSettlementTask processes a reward settlement task (for Asynq).
// Settlement is idempotent, so failed rewards are retried by failing the task.
func (w *SettlementWorker) ProcessRewardSettlementTask(ctx context.Context, task *asynq.Task) error {
	payload, err := jobs.ParseRewardSettlementPayload(task)
	if err != nil {
		w.logger.Error(ctx, "failed to parse reward settlement job payload", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "referral_id", Value: payload.ReferralID},
		observability.Field{Key: "account_id", Value: payload.AccountID},
		observability.Field{Key: "requested_by", Value: payload.RequestedBy},
	)

	result, err := w.settler.SettleReferral(ctx, payload.ReferralID)
	if err != nil {
		switch {
		case errors.Is(err, settlementProcessor.ErrReferralNotFound):
			w.logger.Warn(ctx, "referral no longer exists, dropping settlement job")
			return nil
		case errors.Is(err, settlementProcessor.ErrNotSettleable):
			w.logger.Info(ctx, "referral is not settleable, nothing to do")
			return nil
		}
		w.logger.Error(ctx, "failed to settle referral", err)
		return fmt.Errorf("failed to settle referral: %w", err)
	}

	if result.RewardStorageMissing {
		w.logger.Warn(ctx, "reward storage is missing, settlement job finished without rewards")
		return nil
	}

	if len(result.Failures) > 0 {
		return fmt.Errorf("%d of the referral's rewards failed to settle: %w", len(result.Failures), result.Failures[0].Err)
	}

	w.logger.Info(ctx, fmt.Sprintf("settlement completed: %d created, %d skipped", len(result.Created), result.Skipped))
	return nil
}
