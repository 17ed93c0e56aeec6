package store

import (
	"database/sql/driver"
	"testing"
	"time"

	"referral-server/internal/observability"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

var referralRowColumns = []string{
	"id", "campaign_id", "referrer_id", "referral_code", "level", "status",
	"is_flagged", "flagged_by", "flagged_at", "clicked_at", "converted_at",
	"reward_amount", "created_at", "updated_at",
}

var rewardRowColumns = []string{
	"id", "referral_id", "conversion_id", "app_id", "user_id", "amount",
	"currency", "status", "level", "created_at",
}

func newMockStore(t *testing.T) (Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewWithDB(sqlx.NewDb(db, "sqlmock"), observability.NewLogger(), Options{
		LockTimeout: 2 * time.Second,
		TxTimeout:   5 * time.Second,
	})
	return s, mock
}

// expectTxStart registers the statements withTx issues before running its body.
func expectTxStart(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout = '2000ms'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SET LOCAL statement_timeout = '5000ms'").WillReturnResult(sqlmock.NewResult(0, 0))
}

type referralRow struct {
	id          uuid.UUID
	code        string
	status      ReferralStatus
	flagged     bool
	clickedAt   *time.Time
	convertedAt *time.Time
	amount      interface{}
}

func referralRows(rows ...referralRow) *sqlmock.Rows {
	result := sqlmock.NewRows(referralRowColumns)
	now := time.Now()
	for _, r := range rows {
		var flaggedAt driver.Value
		if r.flagged {
			flaggedAt = now
		}
		result.AddRow(r.id.String(), uuid.NewString(), uuid.NewString(), r.code, int64(1), string(r.status),
			r.flagged, nil, flaggedAt, timeValue(r.clickedAt), timeValue(r.convertedAt),
			r.amount, now, now)
	}
	return result
}

func timeValue(t *time.Time) driver.Value {
	if t == nil {
		return nil
	}
	return *t
}
