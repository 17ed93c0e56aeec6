package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReferralOwner(t *testing.T) {
	t.Run("returns referral with owning app and account", func(t *testing.T) {
		s, mock := newMockStore(t)
		referralID := uuid.New()
		appID := uuid.New()
		accountID := uuid.New()

		rows := sqlmock.NewRows(append(append([]string{}, referralRowColumns...), "app_id", "account_id")).
			AddRow(referralID.String(), uuid.NewString(), uuid.NewString(), "CODE1", int64(1), "PENDING",
				true, nil, time.Now(), nil, nil, "10.00", time.Now(), time.Now(),
				appID.String(), accountID.String())
		mock.ExpectQuery("JOIN apps a ON a.id = r.app_id").WithArgs(referralID).WillReturnRows(rows)

		owner, err := s.GetReferralOwner(context.Background(), referralID)

		require.NoError(t, err)
		assert.Equal(t, referralID, owner.ID)
		assert.Equal(t, appID, owner.AppID)
		assert.Equal(t, accountID, owner.AccountID)
		assert.True(t, owner.IsFlagged)
		assert.Equal(t, "10", owner.RewardAmount.Decimal.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing referral is not found", func(t *testing.T) {
		s, mock := newMockStore(t)
		referralID := uuid.New()

		mock.ExpectQuery("JOIN apps a ON a.id = r.app_id").WithArgs(referralID).
			WillReturnRows(sqlmock.NewRows(referralRowColumns))

		_, err := s.GetReferralOwner(context.Background(), referralID)

		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestResolveReferralFlags_CommitsConvertedReferral(t *testing.T) {
	s, mock := newMockStore(t)
	referralID := uuid.New()
	appID := uuid.New()
	actorID := uuid.New()
	clicked := time.Now().Add(-2 * time.Hour)
	converted := time.Now().Add(-time.Hour)
	conversionID := uuid.New()

	expectTxStart(mock)
	mock.ExpectQuery("FOR UPDATE").WithArgs(referralID).WillReturnRows(referralRows(referralRow{
		id: referralID, code: "CODE1", status: ReferralStatusFlagged, flagged: true,
		clickedAt: &clicked, convertedAt: &converted, amount: "10.00",
	}))
	mock.ExpectExec("UPDATE fraud_flags").
		WithArgs(appID, "CODE1", actorID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("UPDATE referrals r").
		WithArgs(referralID, ReferralStatusConverted, sqlmock.AnyArg()).
		WillReturnRows(referralRows(referralRow{
			id: referralID, code: "CODE1", status: ReferralStatusConverted,
			clickedAt: &clicked, convertedAt: &converted, amount: "10.00",
		}))
	mock.ExpectQuery("FROM conversions").WithArgs(referralID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "referral_id", "created_at"}).
			AddRow(conversionID.String(), referralID.String(), converted))
	mock.ExpectCommit()

	result, err := s.ResolveReferralFlags(context.Background(), ResolveFlagsParams{
		ReferralID: referralID,
		AppID:      appID,
		ResolvedBy: actorID,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2), result.FlagsResolved)
	assert.Equal(t, ReferralStatusConverted, result.Referral.Status)
	assert.False(t, result.Referral.IsFlagged)
	require.Len(t, result.Conversions, 1)
	assert.Equal(t, conversionID, result.Conversions[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveReferralFlags_AlreadyResolvedIsNoOp(t *testing.T) {
	s, mock := newMockStore(t)
	referralID := uuid.New()
	appID := uuid.New()

	expectTxStart(mock)
	mock.ExpectQuery("FOR UPDATE").WithArgs(referralID).
		WillReturnRows(referralRows(referralRow{id: referralID, code: "CODE1", status: ReferralStatusPending}))
	mock.ExpectExec("UPDATE fraud_flags").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("UPDATE referrals r").
		WithArgs(referralID, ReferralStatusPending, sqlmock.AnyArg()).
		WillReturnRows(referralRows(referralRow{id: referralID, code: "CODE1", status: ReferralStatusPending}))
	mock.ExpectQuery("FROM conversions").WithArgs(referralID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "referral_id", "created_at"}))
	mock.ExpectCommit()

	result, err := s.ResolveReferralFlags(context.Background(), ResolveFlagsParams{
		ReferralID: referralID,
		AppID:      appID,
		ResolvedBy: uuid.New(),
	})

	require.NoError(t, err)
	assert.Zero(t, result.FlagsResolved)
	assert.NotNil(t, result.Conversions)
	assert.Empty(t, result.Conversions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveReferralFlags_RollsBackWhenReferralUpdateFails(t *testing.T) {
	s, mock := newMockStore(t)
	referralID := uuid.New()

	expectTxStart(mock)
	mock.ExpectQuery("FOR UPDATE").WithArgs(referralID).
		WillReturnRows(referralRows(referralRow{id: referralID, code: "CODE1", status: ReferralStatusFlagged, flagged: true}))
	mock.ExpectExec("UPDATE fraud_flags").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectQuery("UPDATE referrals r").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := s.ResolveReferralFlags(context.Background(), ResolveFlagsParams{
		ReferralID: referralID,
		AppID:      uuid.New(),
		ResolvedBy: uuid.New(),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to update referral status")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveReferralFlags_LockTimeoutIsTransient(t *testing.T) {
	s, mock := newMockStore(t)
	referralID := uuid.New()

	expectTxStart(mock)
	mock.ExpectQuery("FOR UPDATE").WithArgs(referralID).
		WillReturnError(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})
	mock.ExpectRollback()

	_, err := s.ResolveReferralFlags(context.Background(), ResolveFlagsParams{
		ReferralID: referralID,
		AppID:      uuid.New(),
		ResolvedBy: uuid.New(),
	})

	assert.ErrorIs(t, err, ErrTransient)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveReferralFlags_MissingReferral(t *testing.T) {
	s, mock := newMockStore(t)
	referralID := uuid.New()

	expectTxStart(mock)
	mock.ExpectQuery("FOR UPDATE").WithArgs(referralID).WillReturnRows(sqlmock.NewRows(referralRowColumns))
	mock.ExpectRollback()

	_, err := s.ResolveReferralFlags(context.Background(), ResolveFlagsParams{
		ReferralID: referralID,
		AppID:      uuid.New(),
		ResolvedBy: uuid.New(),
	})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlagReferral_PreservesFactsAndOverlaysFlag(t *testing.T) {
	s, mock := newMockStore(t)
	referralID := uuid.New()
	appID := uuid.New()
	actorID := uuid.New()
	clicked := time.Now().Add(-time.Hour)
	description := "burst of signups from one subnet"

	expectTxStart(mock)
	mock.ExpectQuery("FOR UPDATE").WithArgs(referralID).
		WillReturnRows(referralRows(referralRow{id: referralID, code: "CODE9", status: ReferralStatusClicked, clickedAt: &clicked}))
	mock.ExpectQuery("INSERT INTO fraud_flags").
		WithArgs(appID, "CODE9", "velocity", description, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "app_id", "referral_code", "fraud_type", "is_manual", "is_resolved", "resolved_by", "resolved_at", "description", "ip_address", "created_at"}).
			AddRow(uuid.NewString(), appID.String(), "CODE9", "velocity", true, false, nil, nil, description, nil, time.Now()))
	mock.ExpectQuery("UPDATE referrals r").
		WithArgs(referralID, ReferralStatusFlagged, actorID, sqlmock.AnyArg()).
		WillReturnRows(referralRows(referralRow{id: referralID, code: "CODE9", status: ReferralStatusFlagged, flagged: true, clickedAt: &clicked}))
	mock.ExpectCommit()

	referral, flag, err := s.FlagReferral(context.Background(), FlagReferralParams{
		ReferralID:  referralID,
		AppID:       appID,
		FlaggedBy:   actorID,
		FraudType:   "velocity",
		Description: &description,
	})

	require.NoError(t, err)
	assert.True(t, flag.IsManual)
	assert.False(t, flag.IsResolved)
	assert.Equal(t, ReferralStatusFlagged, referral.Status)
	require.NotNil(t, referral.ClickedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
