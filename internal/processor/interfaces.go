// Package processor implements the concurrency-control and compensation
// protocol for wallet aggregates: exclusive lock acquisition over the store's
// CAS primitive, at-most-once commit of balance deltas, and saga-style unlock
// compensation with a durable-timer fallback.
package processor

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wallet-lock-ledger/internal/domain/ledger"
)

// LockManager acquires the exclusive hold on a user's aggregate.
type LockManager interface {
	// Acquire locks the aggregate, creating it with a zero balance on first
	// sight, and returns the balance observed at lock time. It retries while
	// the aggregate is held elsewhere until the wall-clock budget elapses,
	// then fails with wallet.ErrLockTimeout. Callers must eventually hand the
	// lock to the Committer or the Compensator.
	Acquire(ctx context.Context, userID string) (decimal.Decimal, error)
}

// Committer applies a validated balance delta under a held lock, atomically
// with ledger-entry creation and lock release.
type Committer interface {
	// Commit computes the new balance from heldBalance and the delta,
	// persists it with the ledger entry in one deduplicated atomic write, and
	// classifies every failure mode: write conflicts and commit-time lock
	// invariant violations propagate without an unlock attempt; every other
	// failure (including a negative resulting balance) triggers immediate
	// compensation before the original error is re-raised.
	Commit(ctx context.Context, userID string, heldBalance, amount decimal.Decimal, kind ledger.Kind, idempotencyKey string) (uuid.UUID, decimal.Decimal, error)
}

// Compensator releases a held lock, falling back to a durably scheduled retry
// when the release can't be confirmed.
type Compensator interface {
	// Unlock attempts to clear the lock flag. immediate marks an inline call
	// on the failure path of a commit; false marks a fired deferred task,
	// where finding the aggregate already unlocked is benign. On an
	// unconfirmed unlock a retry task is scheduled (created when immediate,
	// rescheduled otherwise) with tryNumber+1, and the original unlock
	// failure is returned regardless of the scheduling outcome.
	Unlock(ctx context.Context, userID string, tryNumber int, immediate bool) error
}

// BalanceReader returns the user's current balance, bootstrapping a default
// opening credit on first access.
type BalanceReader interface {
	GetBalance(ctx context.Context, userID string) (decimal.Decimal, error)
}
