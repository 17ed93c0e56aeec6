package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const referralColumns = `r.id, r.campaign_id, r.referrer_id, r.referral_code, r.level, r.status, r.is_flagged, r.flagged_by, r.flagged_at, r.clicked_at, r.converted_at, r.reward_amount, r.created_at, r.updated_at`

const sqlGetReferralOwner = `
SELECT ` + referralColumns + `, r.app_id, a.account_id
FROM referrals r
JOIN campaigns c ON c.id = r.campaign_id AND c.app_id = r.app_id
JOIN apps a ON a.id = r.app_id
WHERE r.id = $1
`

// GetReferralOwner retrieves a referral together with the app and account that own it
func (s *Store) GetReferralOwner(ctx context.Context, referralID uuid.UUID) (ReferralOwner, error) {
	var owner ReferralOwner
	err := s.db.GetContext(ctx, &owner, sqlGetReferralOwner, referralID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ReferralOwner{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get referral owner", err)
		return ReferralOwner{}, classify(ctx, fmt.Errorf("failed to get referral owner: %w", err))
	}
	return owner, nil
}

const sqlLockReferral = `
SELECT ` + referralColumns + `
FROM referrals r
WHERE r.id = $1
FOR UPDATE
`

const sqlResolveFraudFlags = `
UPDATE fraud_flags
SET is_resolved = true, resolved_by = $3, resolved_at = $4
WHERE app_id = $1 AND referral_code = $2 AND is_resolved = false
`

const sqlClearReferralFlag = `
UPDATE referrals r
SET status = $2, is_flagged = false, flagged_by = NULL, flagged_at = NULL, updated_at = $3
WHERE r.id = $1
RETURNING ` + referralColumns

const sqlGetConversionsByReferral = `
SELECT id, referral_id, created_at
FROM conversions
WHERE referral_id = $1
ORDER BY created_at ASC, id ASC
`

// ResolveFlagsParams represents parameters for resolving a referral's fraud flags
type ResolveFlagsParams struct {
	ReferralID uuid.UUID
	AppID      uuid.UUID
	ResolvedBy uuid.UUID
}

// ResolveFlagsResult is the committed state after a resolution
type ResolveFlagsResult struct {
	Referral      Referral
	Conversions   []Conversion
	FlagsResolved int64
}

// ResolveReferralFlags resolves every unresolved fraud flag for the referral's
// code within its app (codes are unique per app), clears the referral's flag overlay and recomputes its status, all in
// one transaction. Resolving an already-clean referral updates zero flags.
func (s *Store) ResolveReferralFlags(ctx context.Context, params ResolveFlagsParams) (ResolveFlagsResult, error) {
	var result ResolveFlagsResult
	now := time.Now().UTC()

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var locked Referral
		if err := tx.GetContext(ctx, &locked, sqlLockReferral, params.ReferralID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to lock referral: %w", err)
		}

		res, err := tx.ExecContext(ctx, sqlResolveFraudFlags, params.AppID, locked.ReferralCode, params.ResolvedBy, now)
		if err != nil {
			return fmt.Errorf("failed to resolve fraud flags: %w", err)
		}
		result.FlagsResolved, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to count resolved fraud flags: %w", err)
		}

		status := DeriveStatus(locked.ClickedAt, locked.ConvertedAt)
		if err := tx.GetContext(ctx, &result.Referral, sqlClearReferralFlag, params.ReferralID, status, now); err != nil {
			return fmt.Errorf("failed to update referral status: %w", err)
		}

		if err := tx.SelectContext(ctx, &result.Conversions, sqlGetConversionsByReferral, params.ReferralID); err != nil {
			return fmt.Errorf("failed to get conversions: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error(ctx, "failed to resolve referral flags", err)
		}
		return ResolveFlagsResult{}, err
	}

	if result.Conversions == nil {
		result.Conversions = []Conversion{}
	}
	return result, nil
}

// GetConversionsByReferral retrieves conversions for a referral, oldest first
func (s *Store) GetConversionsByReferral(ctx context.Context, referralID uuid.UUID) ([]Conversion, error) {
	conversions := []Conversion{}
	err := s.db.SelectContext(ctx, &conversions, sqlGetConversionsByReferral, referralID)
	if err != nil {
		s.logger.Error(ctx, "failed to get conversions by referral", err)
		return nil, classify(ctx, fmt.Errorf("failed to get conversions by referral: %w", err))
	}
	return conversions, nil
}

const sqlInsertManualFraudFlag = `
INSERT INTO fraud_flags (app_id, referral_code, fraud_type, is_manual, description, ip_address)
VALUES ($1, $2, $3, true, $4, $5)
RETURNING id, app_id, referral_code, fraud_type, is_manual, is_resolved, resolved_by, resolved_at, description, ip_address, created_at
`

const sqlMarkReferralFlagged = `
UPDATE referrals r
SET status = $2, is_flagged = true, flagged_by = $3, flagged_at = $4, updated_at = $4
WHERE r.id = $1
RETURNING ` + referralColumns

// FlagReferralParams represents parameters for manually flagging a referral
type FlagReferralParams struct {
	ReferralID  uuid.UUID
	AppID       uuid.UUID
	FlaggedBy   uuid.UUID
	FraudType   string
	Description *string
	IPAddress   *string
}

// FlagReferral records a manual fraud flag and overlays FLAGGED on the
// referral. Click and conversion timestamps are left untouched.
func (s *Store) FlagReferral(ctx context.Context, params FlagReferralParams) (Referral, FraudFlag, error) {
	var (
		referral Referral
		flag     FraudFlag
	)
	now := time.Now().UTC()

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var locked Referral
		if err := tx.GetContext(ctx, &locked, sqlLockReferral, params.ReferralID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to lock referral: %w", err)
		}

		if err := tx.GetContext(ctx, &flag, sqlInsertManualFraudFlag,
			params.AppID,
			locked.ReferralCode,
			params.FraudType,
			params.Description,
			params.IPAddress); err != nil {
			return fmt.Errorf("failed to create fraud flag: %w", err)
		}

		if err := tx.GetContext(ctx, &referral, sqlMarkReferralFlagged,
			params.ReferralID, ReferralStatusFlagged, params.FlaggedBy, now); err != nil {
			return fmt.Errorf("failed to flag referral: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error(ctx, "failed to flag referral", err)
		}
		return Referral{}, FraudFlag{}, err
	}
	return referral, flag, nil
}
