package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ListFraudFlagsParams filters fraud flags visible to one account
type ListFraudFlagsParams struct {
	AccountID uuid.UUID
	Resolved  *bool
	Manual    *bool
	Search    string
	Limit     int
	Offset    int
}

const sqlFraudFlagFilter = `
FROM fraud_flags f
JOIN apps a ON a.id = f.app_id
WHERE a.account_id = $1
  AND ($2::boolean IS NULL OR f.is_resolved = $2)
  AND ($3::boolean IS NULL OR f.is_manual = $3)
  AND ($4 = '' OR a.name ILIKE $4 OR f.referral_code ILIKE $4 OR COALESCE(f.ip_address, '') ILIKE $4)
`

const sqlListFraudFlags = `
SELECT f.id, f.app_id, f.referral_code, f.fraud_type, f.is_manual, f.is_resolved, f.resolved_by, f.resolved_at, f.description, f.ip_address, f.created_at, a.name AS app_name
` + sqlFraudFlagFilter + `
ORDER BY f.created_at DESC, f.id DESC
LIMIT $5 OFFSET $6
`

const sqlCountFraudFlags = `SELECT COUNT(*)` + sqlFraudFlagFilter

// ListFraudFlags retrieves an account's fraud flags joined with their app, newest first
func (s *Store) ListFraudFlags(ctx context.Context, params ListFraudFlagsParams) ([]FraudFlagWithApp, error) {
	flags := []FraudFlagWithApp{}
	err := s.db.SelectContext(ctx, &flags, sqlListFraudFlags,
		params.AccountID,
		params.Resolved,
		params.Manual,
		searchPattern(params.Search),
		params.Limit,
		params.Offset)
	if err != nil {
		s.logger.Error(ctx, "failed to list fraud flags", err)
		return nil, classify(ctx, fmt.Errorf("failed to list fraud flags: %w", err))
	}
	return flags, nil
}

// CountFraudFlags counts an account's fraud flags matching the same filters as ListFraudFlags
func (s *Store) CountFraudFlags(ctx context.Context, params ListFraudFlagsParams) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, sqlCountFraudFlags,
		params.AccountID,
		params.Resolved,
		params.Manual,
		searchPattern(params.Search))
	if err != nil {
		s.logger.Error(ctx, "failed to count fraud flags", err)
		return 0, classify(ctx, fmt.Errorf("failed to count fraud flags: %w", err))
	}
	return count, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchPattern turns free text into a case-insensitive substring pattern.
func searchPattern(search string) string {
	search = strings.TrimSpace(search)
	if search == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(search) + "%"
}
