// Package storage defines the gateway to the shared data store. The store is
// the only synchronization point between concurrent invocations: every method
// maps onto exactly one atomic store operation (strong read, single-record
// CAS, or bounded multi-item write).
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wallet-lock-ledger/internal/domain/ledger"
	"github.com/wallet-lock-ledger/internal/domain/wallet"
)

var (
	// ErrConditionFailed means the write's predicate did not hold; the store
	// was left untouched.
	ErrConditionFailed = errors.New("storage condition failed")

	// ErrWriteConflict means two atomic writes touching the same records
	// collided. The aggregate's lock state is ambiguous to the caller.
	ErrWriteConflict = errors.New("storage write conflict")

	// ErrDedupMismatch means the idempotency token was reused with a
	// different payload.
	ErrDedupMismatch = errors.New("idempotency token reused with different payload")
)

// Gateway exposes the store operations the lock/commit protocol relies on.
type Gateway interface {
	// GetAggregate performs a strongly consistent read of the user's
	// aggregate. Returns (nil, nil) when no aggregate exists.
	GetAggregate(ctx context.Context, userID string) (*wallet.Aggregate, error)

	// LockAggregate atomically locks the user's aggregate, creating it with a
	// zero balance when absent. The write proceeds only if the aggregate is
	// absent or unlocked; otherwise ErrConditionFailed is returned. On
	// success it returns the balance observed at lock time. A creation race
	// lost to another caller surfaces as ErrConditionFailed as well.
	LockAggregate(ctx context.Context, userID string) (decimal.Decimal, error)

	// UnlockAggregate atomically clears the lock flag. The write proceeds
	// only if the aggregate exists and is locked; otherwise
	// ErrConditionFailed is returned.
	UnlockAggregate(ctx context.Context, userID string) error

	// CommitEntry atomically inserts the ledger entry and updates the
	// aggregate to newBalance with the lock released, conditioned on the lock
	// being held. The write is deduplicated on entry.IdempotencyKey: an
	// identical replay is not reapplied and returns the previously generated
	// ledger ID together with the stored balance (releasing the replayer's
	// lock); a replay with a differing payload returns ErrDedupMismatch.
	// Colliding concurrent writers return ErrWriteConflict; a lock not held
	// at commit time returns ErrConditionFailed.
	CommitEntry(ctx context.Context, entry *ledger.Entry, newBalance decimal.Decimal) (uuid.UUID, decimal.Decimal, error)
}
