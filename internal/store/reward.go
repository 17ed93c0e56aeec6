package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const rewardColumns = `id, referral_id, conversion_id, app_id, user_id, amount, currency, status, level, created_at`

const sqlGetLevelOneRewardByConversion = `
SELECT ` + rewardColumns + `
FROM referral_rewards
WHERE conversion_id = $1 AND level = 1
`

// GetLevelOneRewardByConversion retrieves the direct reward paid for a conversion
func (s *Store) GetLevelOneRewardByConversion(ctx context.Context, conversionID uuid.UUID) (Reward, error) {
	var reward Reward
	err := s.db.GetContext(ctx, &reward, sqlGetLevelOneRewardByConversion, conversionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reward{}, ErrNotFound
		}
		return Reward{}, classify(ctx, fmt.Errorf("failed to get level one reward: %w", err))
	}
	return reward, nil
}

const sqlGetLevelTwoRewardByReferral = `
SELECT ` + rewardColumns + `
FROM referral_rewards
WHERE referral_id = $1 AND level = 2
`

// GetLevelTwoRewardByReferral retrieves the single indirect reward paid for a referral
func (s *Store) GetLevelTwoRewardByReferral(ctx context.Context, referralID uuid.UUID) (Reward, error) {
	var reward Reward
	err := s.db.GetContext(ctx, &reward, sqlGetLevelTwoRewardByReferral, referralID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reward{}, ErrNotFound
		}
		return Reward{}, classify(ctx, fmt.Errorf("failed to get level two reward: %w", err))
	}
	return reward, nil
}

// CreateRewardParams represents parameters for creating a reward
type CreateRewardParams struct {
	ReferralID   uuid.UUID
	ConversionID uuid.UUID
	AppID        uuid.UUID
	UserID       uuid.UUID
	Amount       decimal.Decimal
	Currency     string
	Level        int
}

const sqlCreateReward = `
INSERT INTO referral_rewards (referral_id, conversion_id, app_id, user_id, amount, currency, status, level)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT DO NOTHING
RETURNING ` + rewardColumns

// CreateReward inserts a PENDING reward. A concurrent writer that already
// inserted the same reward yields ErrDuplicateReward; a missing
// referral_rewards table yields ErrSchemaMissing.
func (s *Store) CreateReward(ctx context.Context, params CreateRewardParams) (Reward, error) {
	var reward Reward
	err := s.db.GetContext(ctx, &reward, sqlCreateReward,
		params.ReferralID,
		params.ConversionID,
		params.AppID,
		params.UserID,
		params.Amount,
		params.Currency,
		RewardStatusPending,
		params.Level)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reward{}, ErrDuplicateReward
		}
		err = classify(ctx, fmt.Errorf("failed to create reward: %w", err))
		if errors.Is(err, ErrUniqueViolation) {
			return Reward{}, fmt.Errorf("%w: %w", ErrDuplicateReward, err)
		}
		return Reward{}, err
	}
	return reward, nil
}
