package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUniqueViolation = errors.New("unique constraint violation")
	ErrDuplicateReward = fmt.Errorf("reward already exists: %w", ErrUniqueViolation)
	// ErrSchemaMissing means a table the query needs does not exist yet.
	ErrSchemaMissing = errors.New("required table does not exist")
	// ErrTransient covers lock waits, timeouts and serialization failures. Callers may retry.
	ErrTransient = errors.New("transient store error")
)

// Postgres SQLSTATE codes the store distinguishes.
const (
	pgUniqueViolation      = "23505"
	pgUndefinedTable       = "42P01"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// classify maps driver errors onto the store's sentinel errors while keeping
// the original error in the chain.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrSchemaMissing) ||
		errors.Is(err, ErrUniqueViolation) || errors.Is(err, ErrTransient) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
		case pgUndefinedTable:
			return fmt.Errorf("%w: %w", ErrSchemaMissing, err)
		case pgLockNotAvailable, pgQueryCanceled, pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %w", ErrTransient, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return err
}
