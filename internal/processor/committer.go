package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wallet-lock-ledger/internal/domain/ledger"
	"github.com/wallet-lock-ledger/internal/domain/wallet"
	"github.com/wallet-lock-ledger/internal/storage"
)

// CommitterImpl implements the Committer interface
type CommitterImpl struct {
	store       storage.Gateway
	compensator Compensator
	logger      *slog.Logger
}

// NewCommitter creates a new CommitterImpl
func NewCommitter(store storage.Gateway, compensator Compensator, logger *slog.Logger) Committer {
	return &CommitterImpl{
		store:       store,
		compensator: compensator,
		logger:      logger,
	}
}

// Commit applies the delta under the caller's lock. A single commit attempt
// ends in exactly one of: committed, conflict-aborted (lock left to the
// colliding writer), invariant-violated, or compensated-and-failed.
func (c *CommitterImpl) Commit(
	ctx context.Context,
	userID string,
	heldBalance, amount decimal.Decimal,
	kind ledger.Kind,
	idempotencyKey string,
) (uuid.UUID, decimal.Decimal, error) {
	newBalance := heldBalance.Add(amount)
	if kind == ledger.KindDebit {
		newBalance = heldBalance.Sub(amount)
	}

	var commitErr error
	if newBalance.IsNegative() {
		// The write is skipped, but the lock still has to be released: the
		// validation failure takes the same compensation path as a failed
		// write.
		c.logger.Warn("Rejecting transaction that would make balance negative",
			"user_id", userID,
			"balance", heldBalance.String(),
			"amount", amount.String(),
			"kind", string(kind),
		)
		commitErr = wallet.ErrNegativeBalance
	} else {
		entry := &ledger.Entry{
			ID:             uuid.New(),
			UserID:         userID,
			Amount:         amount,
			Kind:           kind,
			IdempotencyKey: idempotencyKey,
			CreatedAt:      time.Now().UTC(),
		}

		ledgerID, storedBalance, err := c.store.CommitEntry(ctx, entry, newBalance)
		if err == nil {
			c.logger.Info("Transaction committed",
				"user_id", userID,
				"ledger_id", ledgerID.String(),
				"kind", string(kind),
				"amount", amount.String(),
				"new_balance", storedBalance.String(),
			)
			return ledgerID, storedBalance, nil
		}

		switch {
		case errors.Is(err, storage.ErrWriteConflict):
			// The colliding writer owns the outcome of the lock flag; an
			// unlock here could break mutual exclusion.
			c.logger.Warn("Commit collided with a concurrent write, leaving lock untouched",
				"user_id", userID, "error", err)
			return uuid.Nil, decimal.Zero, fmt.Errorf("commit collided for user %s: %w", userID, wallet.ErrServiceUnavailable)

		case errors.Is(err, storage.ErrConditionFailed):
			c.logger.Error("Expected aggregate to be locked at commit time, but it was not",
				"user_id", userID, "error", err)
			return uuid.Nil, decimal.Zero, wallet.InvariantViolationError{
				UserID: userID,
				Reason: "aggregate not locked at commit time",
				Err:    err,
			}
		}

		commitErr = err
	}

	// Compensation path: release the lock before surfacing the failure.
	// Unlock failures are swallowed here; the compensator has already
	// scheduled its own retry.
	if unlockErr := c.compensator.Unlock(ctx, userID, 0, true); unlockErr != nil {
		c.logger.Error("Failed to unlock aggregate after failed commit",
			"user_id", userID,
			"commit_error", commitErr,
			"unlock_error", unlockErr,
		)
	}

	if errors.Is(commitErr, storage.ErrDedupMismatch) {
		return uuid.Nil, decimal.Zero, wallet.AlreadyProcessedError{IdempotencyKey: idempotencyKey}
	}

	return uuid.Nil, decimal.Zero, commitErr
}
