package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wallet-lock-ledger/internal/domain/wallet"
	"github.com/wallet-lock-ledger/internal/storage"
)

// LockManagerImpl implements the LockManager interface
type LockManagerImpl struct {
	store         storage.Gateway
	acquireBudget time.Duration
	logger        *slog.Logger
}

// NewLockManager creates a new LockManagerImpl. acquireBudget bounds the
// whole acquisition attempt in wall-clock time.
func NewLockManager(store storage.Gateway, acquireBudget time.Duration, logger *slog.Logger) LockManager {
	return &LockManagerImpl{
		store:         store,
		acquireBudget: acquireBudget,
		logger:        logger,
	}
}

// Acquire locks the user's aggregate, creating it locked with a zero balance
// when absent. Contention is retried in a tight loop; expected hold times are
// short, so a bounded busy-poll beats backoff on latency here.
func (m *LockManagerImpl) Acquire(ctx context.Context, userID string) (decimal.Decimal, error) {
	deadline := time.Now().Add(m.acquireBudget)

	for {
		balance, err := m.store.LockAggregate(ctx, userID)
		if err == nil {
			m.logger.Debug("Aggregate locked", "user_id", userID, "balance", balance.String())
			return balance, nil
		}

		if !errors.Is(err, storage.ErrConditionFailed) {
			m.logger.Error("Failed to lock aggregate", "user_id", userID, "error", err)
			return decimal.Zero, fmt.Errorf("failed to lock aggregate for user %s: %w", userID, err)
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return decimal.Zero, ctxErr
		}

		if time.Now().After(deadline) {
			m.logger.Warn("Gave up acquiring aggregate lock",
				"user_id", userID,
				"budget", m.acquireBudget.String(),
			)
			return decimal.Zero, wallet.ErrLockTimeout
		}
	}
}
