package audit

import (
	"context"

	"referral-server/internal/observability"
	"referral-server/internal/store"

	"github.com/google/uuid"
)

const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

const (
	CategoryRewardCreated   = "REWARD_CREATED"
	CategoryFlagsResolved   = "FRAUD_FLAGS_RESOLVED"
	CategoryReferralFlagged = "REFERRAL_FLAGGED"
	CategorySettlement      = "REWARD_SETTLEMENT"
)

// AuditStore appends rows to the audit trail
type AuditStore interface {
	CreateAuditLog(ctx context.Context, params store.CreateAuditLogParams) error
}

// Entry is one audit record
type Entry struct {
	AccountID *uuid.UUID
	AppID     *uuid.UUID
	Level     string
	Category  string
	Message   string
	Fields    map[string]interface{}
	// Err is the cause of an ERROR entry; its text is persisted under "error"
	Err error
}

// Logger writes audit entries to the store and mirrors them to the structured log.
// A store failure is logged and never returned.
type Logger struct {
	store  AuditStore
	logger *observability.Logger
}

// New creates a new audit Logger
func New(store AuditStore, logger *observability.Logger) *Logger {
	return &Logger{store: store, logger: logger}
}

// Log records entry
func (l *Logger) Log(ctx context.Context, entry Entry) {
	if entry.Level == "" {
		entry.Level = LevelInfo
	}

	fields := make([]observability.Field, 0, len(entry.Fields)+2)
	fields = append(fields,
		observability.Field{Key: "audit_category", Value: entry.Category},
		observability.Field{Key: "audit_level", Value: entry.Level},
	)
	for k, v := range entry.Fields {
		fields = append(fields, observability.Field{Key: k, Value: v})
	}
	logCtx := observability.WithFields(ctx, fields...)

	switch entry.Level {
	case LevelWarn:
		l.logger.Warn(logCtx, entry.Message)
	case LevelError:
		l.logger.Error(logCtx, entry.Message, entry.Err)
	default:
		l.logger.Info(logCtx, entry.Message)
	}

	persisted := store.JSONB(entry.Fields)
	if entry.Err != nil {
		persisted = store.JSONB{}
		for k, v := range entry.Fields {
			persisted[k] = v
		}
		persisted["error"] = entry.Err.Error()
	}

	err := l.store.CreateAuditLog(ctx, store.CreateAuditLogParams{
		AccountID: entry.AccountID,
		AppID:     entry.AppID,
		Level:     entry.Level,
		Category:  entry.Category,
		Message:   entry.Message,
		Fields:    persisted,
	})
	if err != nil {
		l.logger.Error(logCtx, "failed to write audit log", err)
	}
}
