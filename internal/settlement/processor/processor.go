package processor

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"referral-server/internal/audit"
	"referral-server/internal/jobs"
	"referral-server/internal/observability"
	"referral-server/internal/store"
	"referral-server/internal/webhooks/events"

	"github.com/google/uuid"
)

var (
	ErrNotSettleable    = errors.New("referral is not settleable")
	ErrReferralNotFound = errors.New("referral not found")
	ErrUnauthorized     = errors.New("unauthorized access to referral")
	ErrSettlementQueued = errors.New("reward settlement already queued")
)

// WarningRewardStorageMissing is reported when the rewards table does not exist
const WarningRewardStorageMissing = "rewards could not be created: reward storage is unavailable"

// SettleInput is a committed referral together with its owner and conversions
type SettleInput struct {
	Referral    store.Referral
	AccountID   uuid.UUID
	AppID       uuid.UUID
	CampaignID  uuid.UUID
	Conversions []store.Conversion
}

// Failure is a reward that could not be created for one conversion
type Failure struct {
	ConversionID uuid.UUID
	Level        int
	Err          error
}

// Result summarizes one settlement run
type Result struct {
	Created              []store.Reward
	Skipped              int
	RewardStorageMissing bool
	Failures             []Failure
	Warnings             []string
}

// SettlementProcessor materializes level-1 and level-2 rewards for converted referrals
type SettlementProcessor struct {
	store      SettlementStore
	audit      AuditLogger
	dispatcher EventDispatcher
	jobs       JobEnqueuer
	logger     *observability.Logger
}

// New creates a new SettlementProcessor
func New(store SettlementStore, auditLogger AuditLogger, dispatcher EventDispatcher, jobs JobEnqueuer, logger *observability.Logger) SettlementProcessor {
	return SettlementProcessor{
		store:      store,
		audit:      auditLogger,
		dispatcher: dispatcher,
		jobs:       jobs,
		logger:     logger,
	}
}

type rewardOutcome int

const (
	outcomeCreated rewardOutcome = iota
	outcomeSkipped
	outcomeStorageMissing
	outcomeFailed
)

// Settle creates the rewards owed for input. Rewards that already exist are
// skipped. A missing rewards table is reported on the result and ends the
// run without an error; any other failure is recorded for its conversion only.
func (p *SettlementProcessor) Settle(ctx context.Context, input SettleInput) (Result, error) {
	referral := input.Referral
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "referral_id", Value: referral.ID},
		observability.Field{Key: "app_id", Value: input.AppID},
		observability.Field{Key: "conversions", Value: len(input.Conversions)},
	)

	if !referral.IsSettleable() {
		return Result{}, ErrNotSettleable
	}

	var result Result

	for _, conversion := range input.Conversions {
		outcome := p.settleOne(ctx, input, conversion, store.RewardLevelDirect, &result)
		if outcome == outcomeStorageMissing {
			return p.storageMissing(ctx, input, result), nil
		}
	}

	if referral.Level == store.RewardLevelIndirect && len(input.Conversions) > 0 {
		outcome := p.settleOne(ctx, input, input.Conversions[0], store.RewardLevelIndirect, &result)
		if outcome == outcomeStorageMissing {
			return p.storageMissing(ctx, input, result), nil
		}
	}

	if len(result.Failures) > 0 {
		p.logger.Warn(ctx, fmt.Sprintf("settlement finished with %d failed rewards", len(result.Failures)))
	}
	return result, nil
}

func (p *SettlementProcessor) storageMissing(ctx context.Context, input SettleInput, result Result) Result {
	result.RewardStorageMissing = true
	result.Warnings = append(result.Warnings, WarningRewardStorageMissing)
	observability.SettlementWarnings.WithLabelValues("reward_storage_missing").Inc()

	p.logger.Warn(ctx, "reward storage is missing, skipping settlement")
	p.audit.Log(ctx, audit.Entry{
		AccountID: &input.AccountID,
		AppID:     &input.AppID,
		Level:     audit.LevelWarn,
		Category:  audit.CategorySettlement,
		Message:   "reward storage is unavailable, rewards were not created",
		Fields: map[string]interface{}{
			"referral_id": input.Referral.ID.String(),
		},
	})
	return result
}

// settleOne creates one reward unless it already exists
func (p *SettlementProcessor) settleOne(ctx context.Context, input SettleInput, conversion store.Conversion, level int, result *Result) rewardOutcome {
	referral := input.Referral
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "conversion_id", Value: conversion.ID},
		observability.Field{Key: "level", Value: level},
	)

	var err error
	if level == store.RewardLevelIndirect {
		_, err = p.store.GetLevelTwoRewardByReferral(ctx, referral.ID)
	} else {
		_, err = p.store.GetLevelOneRewardByConversion(ctx, conversion.ID)
	}
	switch {
	case err == nil:
		result.Skipped++
		return outcomeSkipped
	case errors.Is(err, store.ErrSchemaMissing):
		return outcomeStorageMissing
	case !errors.Is(err, store.ErrNotFound):
		return p.fail(ctx, conversion, level, err, result)
	}

	reward, err := p.store.CreateReward(ctx, store.CreateRewardParams{
		ReferralID:   referral.ID,
		ConversionID: conversion.ID,
		AppID:        input.AppID,
		UserID:       referral.ReferrerID,
		Amount:       referral.RewardAmount.Decimal,
		Currency:     store.DefaultCurrency,
		Level:        level,
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrDuplicateReward):
		p.logger.Info(ctx, "reward created concurrently, skipping")
		result.Skipped++
		return outcomeSkipped
	case errors.Is(err, store.ErrSchemaMissing):
		return outcomeStorageMissing
	default:
		return p.fail(ctx, conversion, level, err, result)
	}

	result.Created = append(result.Created, reward)
	observability.RewardsCreated.WithLabelValues(strconv.Itoa(level)).Inc()

	p.audit.Log(ctx, audit.Entry{
		AccountID: &input.AccountID,
		AppID:     &input.AppID,
		Level:     audit.LevelInfo,
		Category:  audit.CategoryRewardCreated,
		Message:   fmt.Sprintf("level %d reward created", level),
		Fields: map[string]interface{}{
			"reward_id":     reward.ID.String(),
			"referral_id":   referral.ID.String(),
			"conversion_id": conversion.ID.String(),
			"referrer_id":   referral.ReferrerID.String(),
			"amount":        reward.Amount.String(),
			"currency":      reward.Currency,
			"level":         level,
		},
	})
	p.dispatcher.DispatchRewardCreated(ctx, input.AccountID, events.NewRewardCreatedPayload(reward, input.CampaignID), input.AppID)

	return outcomeCreated
}

func (p *SettlementProcessor) fail(ctx context.Context, conversion store.Conversion, level int, err error, result *Result) rewardOutcome {
	p.logger.Error(ctx, "failed to settle reward", err)
	observability.SettlementWarnings.WithLabelValues("reward_failed").Inc()
	result.Failures = append(result.Failures, Failure{ConversionID: conversion.ID, Level: level, Err: err})
	return outcomeFailed
}

// SettleReferral re-reads the committed referral and its conversions and settles it
func (p *SettlementProcessor) SettleReferral(ctx context.Context, referralID uuid.UUID) (Result, error) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "referral_id", Value: referralID})

	owner, err := p.store.GetReferralOwner(ctx, referralID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{}, ErrReferralNotFound
		}
		p.logger.Error(ctx, "failed to get referral", err)
		return Result{}, fmt.Errorf("failed to get referral: %w", err)
	}

	conversions, err := p.store.GetConversionsByReferral(ctx, referralID)
	if err != nil {
		p.logger.Error(ctx, "failed to get conversions", err)
		return Result{}, fmt.Errorf("failed to get conversions: %w", err)
	}

	return p.Settle(ctx, SettleInput{
		Referral:    owner.Referral,
		AccountID:   owner.AccountID,
		AppID:       owner.AppID,
		CampaignID:  owner.CampaignID,
		Conversions: conversions,
	})
}

// RequestSettlement checks that the actor owns the referral and queues a background settlement
func (p *SettlementProcessor) RequestSettlement(ctx context.Context, accountID, userID, referralID uuid.UUID) error {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "referral_id", Value: referralID},
		observability.Field{Key: "account_id", Value: accountID},
	)

	owner, err := p.store.GetReferralOwner(ctx, referralID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrReferralNotFound
		}
		p.logger.Error(ctx, "failed to get referral", err)
		return fmt.Errorf("failed to get referral: %w", err)
	}
	if owner.AccountID != accountID {
		p.logger.Warn(ctx, "settlement requested for referral owned by another account")
		return ErrUnauthorized
	}
	if !owner.Referral.IsSettleable() {
		return ErrNotSettleable
	}

	err = p.jobs.EnqueueRewardSettlement(ctx, jobs.RewardSettlementJobPayload{
		ReferralID:  referralID,
		AccountID:   accountID,
		RequestedBy: userID,
	})
	if err != nil {
		if errors.Is(err, jobs.ErrAlreadyQueued) {
			return ErrSettlementQueued
		}
		return fmt.Errorf("failed to enqueue settlement: %w", err)
	}
	return nil
}
