package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/wallet-lock-ledger/internal/domain/ledger"
	"github.com/wallet-lock-ledger/internal/domain/wallet"
	"github.com/wallet-lock-ledger/internal/storage"
)

// BalanceReaderImpl implements the BalanceReader interface
type BalanceReaderImpl struct {
	store          storage.Gateway
	locks          LockManager
	committer      Committer
	openingBalance decimal.Decimal
	logger         *slog.Logger
}

// NewBalanceReader creates a new BalanceReaderImpl. openingBalance is the
// default credit applied when a never-before-seen user is read.
func NewBalanceReader(
	store storage.Gateway,
	locks LockManager,
	committer Committer,
	openingBalance decimal.Decimal,
	logger *slog.Logger,
) BalanceReader {
	return &BalanceReaderImpl{
		store:          store,
		locks:          locks,
		committer:      committer,
		openingBalance: openingBalance,
		logger:         logger,
	}
}

// GetBalance returns the user's balance. A first-time read drives the full
// lock-and-commit flow to apply the opening credit; the deterministic
// bootstrap idempotency key makes concurrent first-time readers converge on
// one ledger entry.
func (r *BalanceReaderImpl) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	agg, err := r.store.GetAggregate(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read aggregate for user %s: %w", userID, err)
	}
	if agg != nil {
		return agg.Balance, nil
	}

	heldBalance, err := r.locks.Acquire(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	_, newBalance, err := r.committer.Commit(
		ctx, userID, heldBalance, r.openingBalance, ledger.KindCredit, ledger.BootstrapKey(userID),
	)
	if err != nil {
		if errors.Is(err, wallet.AlreadyProcessedError{}) {
			// A concurrent bootstrap won the race; the aggregate now exists,
			// so the current value can simply be re-read.
			r.logger.Warn("Concurrent bootstrap already credited the opening balance",
				"user_id", userID)
			agg, readErr := r.store.GetAggregate(ctx, userID)
			if readErr != nil {
				return decimal.Zero, fmt.Errorf("failed to re-read aggregate for user %s: %w", userID, readErr)
			}
			if agg == nil {
				return decimal.Zero, fmt.Errorf("aggregate for user %s vanished after bootstrap race", userID)
			}
			return agg.Balance, nil
		}
		return decimal.Zero, err
	}

	r.logger.Info("Bootstrapped wallet with opening balance",
		"user_id", userID, "balance", newBalance.String())
	return newBalance, nil
}
