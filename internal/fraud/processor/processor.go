package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"referral-server/internal/audit"
	"referral-server/internal/observability"
	settlementProcessor "referral-server/internal/settlement/processor"
	"referral-server/internal/store"
	"referral-server/internal/webhooks/events"

	"github.com/google/uuid"
)

var (
	ErrReferralNotFound = errors.New("referral not found")
	ErrUnauthorized     = errors.New("unauthorized access to referral")
	// ErrResolveTimeout is returned when the resolution could not take its locks in time. It is safe to retry.
	ErrResolveTimeout = fmt.Errorf("fraud flag resolution timed out: %w", store.ErrTransient)
	// ErrStoreBusy is returned when reading or flagging a referral hit a lock or timeout. It is safe to retry.
	ErrStoreBusy        = fmt.Errorf("referral store is busy: %w", store.ErrTransient)
	ErrInvalidFraudType = errors.New("invalid fraud type")
)

// Warnings attached to an otherwise successful resolution
const (
	WarningRewardStorageMissing = "fraud flags resolved, but rewards could not be created: reward storage is unavailable"
	warningSettlementFailed     = "fraud flags resolved, but reward settlement failed"
)

// Fraud types accepted for manual flags
var validFraudTypes = map[string]bool{
	"self_referral":     true,
	"duplicate_account": true,
	"suspicious_ip":     true,
	"velocity":          true,
	"fake_email":        true,
	"manual_review":     true,
}

// Actor is the authenticated user and the account they act for
type Actor struct {
	UserID    uuid.UUID
	AccountID uuid.UUID
}

// ResolveResult is the committed referral after its fraud flags were resolved
type ResolveResult struct {
	Referral       store.Referral     `json:"referral"`
	Conversions    []store.Conversion `json:"conversions"`
	FlagsResolved  int64              `json:"flags_resolved"`
	RewardsCreated []store.Reward     `json:"rewards_created"`
	Warnings       []string           `json:"warnings"`
}

// FlagRequest describes a manual fraud flag
type FlagRequest struct {
	FraudType   string
	Description *string
	IPAddress   *string
}

// FlagResult is the flagged referral and the flag that was created
type FlagResult struct {
	Referral store.Referral  `json:"referral"`
	Flag     store.FraudFlag `json:"flag"`
}

// ListFlagsRequest represents parameters for listing fraud flags
type ListFlagsRequest struct {
	Resolved *bool
	Manual   *bool
	Search   string
	Page     int
	Limit    int
}

// ListFlagsResponse represents the paginated response for fraud flags
type ListFlagsResponse struct {
	Flags      []store.FraudFlagWithApp `json:"flags"`
	Pagination Pagination               `json:"pagination"`
}

// Pagination represents pagination metadata
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	HasMore    bool `json:"has_more"`
	TotalCount int  `json:"total_count"`
}

type FraudProcessor struct {
	store      FraudStore
	settler    RewardSettler
	audit      AuditLogger
	dispatcher EventDispatcher
	logger     *observability.Logger
}

func New(store FraudStore, settler RewardSettler, auditLogger AuditLogger, dispatcher EventDispatcher, logger *observability.Logger) FraudProcessor {
	return FraudProcessor{
		store:      store,
		settler:    settler,
		audit:      auditLogger,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Resolve marks every unresolved fraud flag on the referral's code as
// resolved, clears the referral's flag and recomputes its status in one
// transaction. A converted referral is then settled; settlement problems are
// returned as warnings and never undo the resolution.
func (p *FraudProcessor) Resolve(ctx context.Context, actor Actor, referralID uuid.UUID) (ResolveResult, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "account_id", Value: actor.AccountID.String()},
		observability.Field{Key: "user_id", Value: actor.UserID.String()},
		observability.Field{Key: "referral_id", Value: referralID.String()},
	)

	start := time.Now()
	result, err := p.resolve(ctx, actor, referralID)
	observability.ResolveDuration.WithLabelValues(resolveOutcome(err)).Observe(time.Since(start).Seconds())
	return result, err
}

func (p *FraudProcessor) resolve(ctx context.Context, actor Actor, referralID uuid.UUID) (ResolveResult, error) {
	owner, err := p.authorize(ctx, actor, referralID)
	if err != nil {
		return ResolveResult{}, err
	}

	committed, err := p.store.ResolveReferralFlags(ctx, store.ResolveFlagsParams{
		ReferralID: referralID,
		AppID:      owner.AppID,
		ResolvedBy: actor.UserID,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return ResolveResult{}, ErrReferralNotFound
		case errors.Is(err, store.ErrTransient):
			p.logger.Warn(ctx, "fraud flag resolution timed out waiting for locks")
			return ResolveResult{}, fmt.Errorf("%w: %w", ErrResolveTimeout, err)
		}
		p.logger.Error(ctx, "failed to resolve fraud flags", err)
		return ResolveResult{}, fmt.Errorf("failed to resolve fraud flags: %w", err)
	}

	observability.FlagsResolved.Add(float64(committed.FlagsResolved))

	result := ResolveResult{
		Referral:       committed.Referral,
		Conversions:    committed.Conversions,
		FlagsResolved:  committed.FlagsResolved,
		RewardsCreated: []store.Reward{},
		Warnings:       []string{},
	}

	if committed.FlagsResolved > 0 {
		p.audit.Log(ctx, audit.Entry{
			AccountID: &owner.AccountID,
			AppID:     &owner.AppID,
			Level:     audit.LevelInfo,
			Category:  audit.CategoryFlagsResolved,
			Message:   fmt.Sprintf("%d fraud flags resolved", committed.FlagsResolved),
			Fields: map[string]interface{}{
				"referral_id":    referralID.String(),
				"referral_code":  committed.Referral.ReferralCode,
				"resolved_by":    actor.UserID.String(),
				"flags_resolved": committed.FlagsResolved,
				"status":         string(committed.Referral.Status),
			},
		})
		p.dispatcher.Dispatch(ctx, owner.AccountID, &owner.AppID, events.EventFlagsResolved, map[string]interface{}{
			"referral_id":    referralID.String(),
			"referral_code":  committed.Referral.ReferralCode,
			"campaign_id":    committed.Referral.CampaignID.String(),
			"flags_resolved": committed.FlagsResolved,
			"status":         string(committed.Referral.Status),
		})
	}

	p.logger.Info(ctx, fmt.Sprintf("resolved %d fraud flags, referral is now %s", committed.FlagsResolved, committed.Referral.Status))

	if !committed.Referral.IsSettleable() {
		return result, nil
	}

	settled, err := p.settler.Settle(ctx, settlementProcessor.SettleInput{
		Referral:    committed.Referral,
		AccountID:   owner.AccountID,
		AppID:       owner.AppID,
		CampaignID:  committed.Referral.CampaignID,
		Conversions: committed.Conversions,
	})
	if err != nil {
		p.logger.Error(ctx, "reward settlement failed after resolving fraud flags", err)
		result.Warnings = append(result.Warnings, warningSettlementFailed)
		return result, nil
	}

	result.RewardsCreated = append(result.RewardsCreated, settled.Created...)
	if settled.RewardStorageMissing {
		result.Warnings = append(result.Warnings, WarningRewardStorageMissing)
	}
	if len(settled.Failures) > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("fraud flags resolved, but %d rewards could not be created", len(settled.Failures)))
	}

	return result, nil
}

// FlagReferral records a manual fraud flag on a referral the actor owns
func (p *FraudProcessor) FlagReferral(ctx context.Context, actor Actor, referralID uuid.UUID, req FlagRequest) (FlagResult, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "account_id", Value: actor.AccountID.String()},
		observability.Field{Key: "user_id", Value: actor.UserID.String()},
		observability.Field{Key: "referral_id", Value: referralID.String()},
	)

	fraudType := strings.ToLower(strings.TrimSpace(req.FraudType))
	if !validFraudTypes[fraudType] {
		return FlagResult{}, ErrInvalidFraudType
	}

	owner, err := p.authorize(ctx, actor, referralID)
	if err != nil {
		return FlagResult{}, err
	}

	referral, flag, err := p.store.FlagReferral(ctx, store.FlagReferralParams{
		ReferralID:  referralID,
		AppID:       owner.AppID,
		FlaggedBy:   actor.UserID,
		FraudType:   fraudType,
		Description: req.Description,
		IPAddress:   req.IPAddress,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return FlagResult{}, ErrReferralNotFound
		case errors.Is(err, store.ErrTransient):
			return FlagResult{}, fmt.Errorf("%w: %w", ErrStoreBusy, err)
		}
		p.logger.Error(ctx, "failed to flag referral", err)
		return FlagResult{}, fmt.Errorf("failed to flag referral: %w", err)
	}

	p.audit.Log(ctx, audit.Entry{
		AccountID: &owner.AccountID,
		AppID:     &owner.AppID,
		Level:     audit.LevelWarn,
		Category:  audit.CategoryReferralFlagged,
		Message:   "referral flagged for review",
		Fields: map[string]interface{}{
			"referral_id":   referralID.String(),
			"referral_code": referral.ReferralCode,
			"flag_id":       flag.ID.String(),
			"fraud_type":    fraudType,
			"flagged_by":    actor.UserID.String(),
		},
	})
	p.dispatcher.Dispatch(ctx, owner.AccountID, &owner.AppID, events.EventReferralFlagged, map[string]interface{}{
		"referral_id":   referralID.String(),
		"referral_code": referral.ReferralCode,
		"campaign_id":   referral.CampaignID.String(),
		"flag_id":       flag.ID.String(),
		"fraud_type":    fraudType,
	})

	return FlagResult{Referral: referral, Flag: flag}, nil
}

// ListFlags retrieves the fraud flags of every app the actor's account owns
func (p *FraudProcessor) ListFlags(ctx context.Context, actor Actor, req ListFlagsRequest) (ListFlagsResponse, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "account_id", Value: actor.AccountID.String()},
	)

	// Validate and set defaults
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	params := store.ListFraudFlagsParams{
		AccountID: actor.AccountID,
		Resolved:  req.Resolved,
		Manual:    req.Manual,
		Search:    strings.TrimSpace(req.Search),
		Limit:     req.Limit,
		Offset:    (req.Page - 1) * req.Limit,
	}

	flags, err := p.store.ListFraudFlags(ctx, params)
	if err != nil {
		p.logger.Error(ctx, "failed to list fraud flags", err)
		return ListFlagsResponse{}, fmt.Errorf("failed to list fraud flags: %w", err)
	}
	if flags == nil {
		flags = []store.FraudFlagWithApp{}
	}

	totalCount, err := p.store.CountFraudFlags(ctx, params)
	if err != nil {
		p.logger.Error(ctx, "failed to count fraud flags", err)
		return ListFlagsResponse{}, fmt.Errorf("failed to count fraud flags: %w", err)
	}

	return ListFlagsResponse{
		Flags: flags,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			HasMore:    req.Page*req.Limit < totalCount,
			TotalCount: totalCount,
		},
	}, nil
}

// authorize loads the referral's owner and checks it belongs to the actor's account
func (p *FraudProcessor) authorize(ctx context.Context, actor Actor, referralID uuid.UUID) (store.ReferralOwner, error) {
	owner, err := p.store.GetReferralOwner(ctx, referralID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return store.ReferralOwner{}, ErrReferralNotFound
		case errors.Is(err, store.ErrTransient):
			return store.ReferralOwner{}, fmt.Errorf("%w: %w", ErrStoreBusy, err)
		}
		p.logger.Error(ctx, "failed to get referral", err)
		return store.ReferralOwner{}, fmt.Errorf("failed to get referral: %w", err)
	}

	if owner.AccountID != actor.AccountID {
		p.logger.Warn(ctx, "referral belongs to another account")
		return store.ReferralOwner{}, ErrUnauthorized
	}
	return owner, nil
}

func resolveOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrReferralNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, store.ErrTransient):
		return "timeout"
	default:
		return "error"
	}
}
