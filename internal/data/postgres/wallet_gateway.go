// Package postgres provides PostgreSQL implementations of the storage and
// scheduler gateways. Every protocol-relevant write is a single conditional
// statement or a single transaction, so the database remains the only
// synchronization point between concurrent invocations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/wallet-lock-ledger/internal/domain/ledger"
	"github.com/wallet-lock-ledger/internal/domain/wallet"
	"github.com/wallet-lock-ledger/internal/platform/persistence"
	"github.com/wallet-lock-ledger/internal/storage"
)

// SQLSTATE codes that signal two atomic writes collided
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// idempotencyKeyIndex backs the dedup token. A unique violation on it means
// another writer landed the same token between our replay check and insert.
const idempotencyKeyIndex = "idx_ledger_entries_idempotency_key"

// poolQuerier is the subset of pgxpool.Pool the gateway needs. pgxmock
// satisfies it in tests.
type poolQuerier interface {
	persistence.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// WalletGateway implements the storage.Gateway interface for PostgreSQL
type WalletGateway struct {
	db     poolQuerier
	logger *slog.Logger
}

// NewWalletGateway creates a new PostgreSQL wallet gateway
func NewWalletGateway(logger *slog.Logger, db *persistence.PostgresDB) storage.Gateway {
	return &WalletGateway{
		db:     db.Pool(),
		logger: logger,
	}
}

// GetAggregate performs a strongly consistent read of the user's aggregate.
// Returns (nil, nil) when the user has never been seen.
func (g *WalletGateway) GetAggregate(ctx context.Context, userID string) (*wallet.Aggregate, error) {
	query := `
		SELECT user_id, balance::text, locked, updated_at
		FROM wallet_aggregates
		WHERE user_id = $1
	`

	var agg wallet.Aggregate
	var balanceStr string
	err := g.db.QueryRow(ctx, query, userID).Scan(&agg.UserID, &balanceStr, &agg.Locked, &agg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		g.logger.Error("Failed to read aggregate", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to read aggregate: %w", err)
	}

	agg.Balance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored balance %q: %w", balanceStr, err)
	}

	return &agg, nil
}

// LockAggregate creates the aggregate locked with a zero balance when absent,
// or flips the lock flag when it is currently clear, in one conditional
// statement. No row returned means the lock is held elsewhere; a lost
// creation race ends up on the same path.
func (g *WalletGateway) LockAggregate(ctx context.Context, userID string) (decimal.Decimal, error) {
	query := `
		INSERT INTO wallet_aggregates (user_id, balance, locked, updated_at)
		VALUES ($1, 0, TRUE, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET locked = TRUE, updated_at = NOW()
		WHERE wallet_aggregates.locked = FALSE
		RETURNING balance::text
	`

	var balanceStr string
	err := g.db.QueryRow(ctx, query, userID).Scan(&balanceStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, storage.ErrConditionFailed
		}
		g.logger.Error("Failed to lock aggregate", "user_id", userID, "error", err)
		return decimal.Zero, fmt.Errorf("failed to lock aggregate: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse stored balance %q: %w", balanceStr, err)
	}

	return balance, nil
}

// UnlockAggregate clears the lock flag only when it is currently set.
func (g *WalletGateway) UnlockAggregate(ctx context.Context, userID string) error {
	query := `
		UPDATE wallet_aggregates
		SET locked = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND locked = TRUE
	`

	result, err := g.db.Exec(ctx, query, userID)
	if err != nil {
		g.logger.Error("Failed to unlock aggregate", "user_id", userID, "error", err)
		return fmt.Errorf("failed to unlock aggregate: %w", err)
	}

	if result.RowsAffected() == 0 {
		return storage.ErrConditionFailed
	}

	return nil
}

// CommitEntry inserts the ledger entry and updates the aggregate in one
// transaction. The unique index on idempotency_key is the dedup token: an
// identical replay returns the prior entry's ID and the stored balance
// without reapplying the delta.
func (g *WalletGateway) CommitEntry(ctx context.Context, entry *ledger.Entry, newBalance decimal.Decimal) (uuid.UUID, decimal.Decimal, error) {
	tx, err := g.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, decimal.Zero, fmt.Errorf("failed to begin commit transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ledgerID, balance, err := g.commitEntryInTx(ctx, tx, entry, newBalance)
	if err != nil {
		return uuid.Nil, decimal.Zero, classifyCommitError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		g.logger.Error("Failed to commit ledger transaction",
			"user_id", entry.UserID, "idempotency_key", entry.IdempotencyKey, "error", err)
		return uuid.Nil, decimal.Zero, classifyCommitError(err)
	}

	return ledgerID, balance, nil
}

func (g *WalletGateway) commitEntryInTx(ctx context.Context, tx pgx.Tx, entry *ledger.Entry, newBalance decimal.Decimal) (uuid.UUID, decimal.Decimal, error) {
	existingQuery := `
		SELECT id, user_id, amount::text, kind
		FROM ledger_entries
		WHERE idempotency_key = $1
	`

	var existingID uuid.UUID
	var existingUser, existingAmount string
	var existingKind string
	err := tx.QueryRow(ctx, existingQuery, entry.IdempotencyKey).
		Scan(&existingID, &existingUser, &existingAmount, &existingKind)
	switch {
	case err == nil:
		return g.replayExistingEntry(ctx, tx, entry, existingID, existingUser, existingAmount, existingKind)
	case errors.Is(err, pgx.ErrNoRows):
		// Fresh token, apply the write below.
	default:
		return uuid.Nil, decimal.Zero, fmt.Errorf("failed to check idempotency key: %w", err)
	}

	updateQuery := `
		UPDATE wallet_aggregates
		SET balance = $2, locked = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND locked = TRUE
	`

	result, err := tx.Exec(ctx, updateQuery, entry.UserID, newBalance.String())
	if err != nil {
		return uuid.Nil, decimal.Zero, fmt.Errorf("failed to update aggregate: %w", err)
	}
	if result.RowsAffected() == 0 {
		return uuid.Nil, decimal.Zero, storage.ErrConditionFailed
	}

	insertQuery := `
		INSERT INTO ledger_entries (id, user_id, amount, kind, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = tx.Exec(ctx, insertQuery,
		entry.ID,
		entry.UserID,
		entry.Amount.String(),
		string(entry.Kind),
		entry.IdempotencyKey,
		entry.CreatedAt,
	)
	if err != nil {
		return uuid.Nil, decimal.Zero, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	return entry.ID, newBalance, nil
}

// replayExistingEntry handles a repeated dedup token. An identical payload
// means the delta was already applied: the replayer's lock is released and
// the stored state returned. A differing payload is a dedup mismatch.
func (g *WalletGateway) replayExistingEntry(
	ctx context.Context,
	tx pgx.Tx,
	entry *ledger.Entry,
	existingID uuid.UUID,
	existingUser, existingAmount, existingKind string,
) (uuid.UUID, decimal.Decimal, error) {
	storedAmount, err := decimal.NewFromString(existingAmount)
	if err != nil {
		return uuid.Nil, decimal.Zero, fmt.Errorf("failed to parse stored amount %q: %w", existingAmount, err)
	}

	if existingUser != entry.UserID || existingKind != string(entry.Kind) || !storedAmount.Equal(entry.Amount) {
		return uuid.Nil, decimal.Zero, storage.ErrDedupMismatch
	}

	// The replayer still holds the lock it acquired before committing; the
	// condition may legitimately not match if the lock was already released.
	unlockQuery := `
		UPDATE wallet_aggregates
		SET locked = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND locked = TRUE
	`
	if _, err := tx.Exec(ctx, unlockQuery, entry.UserID); err != nil {
		return uuid.Nil, decimal.Zero, fmt.Errorf("failed to release lock on replay: %w", err)
	}

	var balanceStr string
	balanceQuery := `SELECT balance::text FROM wallet_aggregates WHERE user_id = $1`
	if err := tx.QueryRow(ctx, balanceQuery, entry.UserID).Scan(&balanceStr); err != nil {
		return uuid.Nil, decimal.Zero, fmt.Errorf("failed to read balance on replay: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return uuid.Nil, decimal.Zero, fmt.Errorf("failed to parse stored balance %q: %w", balanceStr, err)
	}

	g.logger.Info("Idempotent replay detected, returning prior ledger entry",
		"user_id", entry.UserID,
		"idempotency_key", entry.IdempotencyKey,
		"ledger_id", existingID.String(),
	)
	return existingID, balance, nil
}

// classifyCommitError maps SQLSTATEs onto the storage sentinels. Only
// serialization failures and deadlocks are write conflicts, where the
// colliding writer holds the same aggregate and will release its lock. A
// unique violation on the dedup index is a token collision with a writer on
// a different aggregate, so it must take the compensation path instead.
func classifyCommitError(err error) error {
	if errors.Is(err, storage.ErrConditionFailed) || errors.Is(err, storage.ErrDedupMismatch) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %v", storage.ErrWriteConflict, err)
		case pgUniqueViolation:
			if pgErr.ConstraintName == idempotencyKeyIndex {
				return fmt.Errorf("%w: %v", storage.ErrDedupMismatch, err)
			}
		}
	}

	return err
}
