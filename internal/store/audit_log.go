package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CreateAuditLogParams represents parameters for appending an audit log entry
type CreateAuditLogParams struct {
	AccountID *uuid.UUID
	AppID     *uuid.UUID
	Level     string
	Category  string
	Message   string
	Fields    JSONB
}

const sqlCreateAuditLog = `
INSERT INTO audit_logs (account_id, app_id, level, category, message, fields)
VALUES ($1, $2, $3, $4, $5, $6)
`

// CreateAuditLog appends an entry to audit_logs
func (s *Store) CreateAuditLog(ctx context.Context, params CreateAuditLogParams) error {
	_, err := s.db.ExecContext(ctx, sqlCreateAuditLog,
		params.AccountID,
		params.AppID,
		params.Level,
		params.Category,
		params.Message,
		params.Fields)
	if err != nil {
		return classify(ctx, fmt.Errorf("failed to create audit log: %w", err))
	}
	return nil
}
