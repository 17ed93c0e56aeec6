package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"referral-server/internal/observability"

	_ "github.com/jackc/pgx/v5/stdlib" // Import the pgx stdlib for sqlx
	"github.com/jmoiron/sqlx"
)

const (
	defaultLockTimeout = 5 * time.Second
	defaultTxTimeout   = 10 * time.Second
)

// Options bounds how long transactional work may wait on row locks and run overall.
type Options struct {
	LockTimeout time.Duration
	TxTimeout   time.Duration
}

type Store struct {
	db          *sqlx.DB
	logger      *observability.Logger
	lockTimeout time.Duration
	txTimeout   time.Duration
}

func New(connectionString string, logger *observability.Logger, opts Options) (Store, error) {
	db, err := sqlx.Open("pgx", connectionString)
	if err != nil {
		return Store{}, fmt.Errorf("failed to open database: %w", err)
	}
	return NewWithDB(db, logger, opts), nil
}

// NewWithDB wraps an existing connection. Tests use it with sqlmock.
func NewWithDB(db *sqlx.DB, logger *observability.Logger, opts Options) Store {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = defaultLockTimeout
	}
	if opts.TxTimeout <= 0 {
		opts.TxTimeout = defaultTxTimeout
	}
	return Store{
		db:          db,
		logger:      logger,
		lockTimeout: opts.LockTimeout,
		txTimeout:   opts.TxTimeout,
	}
}

// DB returns the underlying database connection
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a read-committed transaction bounded by the store's
// lock and statement timeouts. fn's error triggers a rollback; the returned
// error is classified.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return classify(ctx, fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())); err != nil {
		return classify(ctx, fmt.Errorf("failed to set lock timeout: %w", err))
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", s.txTimeout.Milliseconds())); err != nil {
		return classify(ctx, fmt.Errorf("failed to set statement timeout: %w", err))
	}

	if err := fn(tx); err != nil {
		return classify(ctx, err)
	}

	if err := tx.Commit(); err != nil {
		return classify(ctx, fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}
