package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wallet-lock-ledger/internal/domain/unlock"
	"github.com/wallet-lock-ledger/internal/domain/wallet"
	"github.com/wallet-lock-ledger/internal/scheduler"
	"github.com/wallet-lock-ledger/internal/storage"
)

// CompensatorImpl implements the Compensator interface
type CompensatorImpl struct {
	store      storage.Gateway
	sched      scheduler.Gateway
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewCompensator creates a new CompensatorImpl. retryDelay is how far in the
// future a deferred unlock retry is scheduled.
func NewCompensator(store storage.Gateway, sched scheduler.Gateway, retryDelay time.Duration, logger *slog.Logger) Compensator {
	return &CompensatorImpl{
		store:      store,
		sched:      sched,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// Unlock reports whether unlocking succeeded, not whether compensation
// scheduling did: a failed unlock schedules a retry task and still returns
// the unlock failure.
func (s *CompensatorImpl) Unlock(ctx context.Context, userID string, tryNumber int, immediate bool) error {
	taskName := unlock.TaskName(userID)

	err := s.store.UnlockAggregate(ctx, userID)
	if err == nil {
		if immediate {
			// Any previously scheduled retry is now pointless. Deleting it is
			// best-effort: a leftover task fires against an unlocked
			// aggregate, which the deferred path below treats as benign.
			if delErr := s.sched.DeleteTask(ctx, taskName); delErr != nil {
				s.logger.Warn("Failed to delete pending unlock task",
					"user_id", userID, "task", taskName, "error", delErr)
			}
		}
		s.logger.Debug("Aggregate unlocked", "user_id", userID, "try_number", tryNumber)
		return nil
	}

	if errors.Is(err, storage.ErrConditionFailed) {
		if immediate {
			s.logger.Error("Expected aggregate to be locked, but it was already unlocked",
				"user_id", userID, "error", err)
			return wallet.InvariantViolationError{
				UserID: userID,
				Reason: "aggregate not locked at immediate-unlock time",
				Err:    err,
			}
		}
		// A fired deferred task found the aggregate already unlocked: another
		// path won the race.
		s.logger.Warn("Deferred unlock found aggregate already unlocked",
			"user_id", userID, "try_number", tryNumber)
		return nil
	}

	// The store did not confirm the unlock; fall back to the durable timer so
	// the lock isn't held forever.
	nextTry := tryNumber + 1
	dueAt := time.Now().Add(s.retryDelay)

	var schedErr error
	if immediate {
		schedErr = s.sched.CreateTask(ctx, taskName, dueAt, unlock.Task{
			UserID:    userID,
			TryNumber: nextTry,
			DueAt:     dueAt,
		})
	} else {
		schedErr = s.sched.UpdateTask(ctx, taskName, dueAt, nextTry)
	}

	if schedErr != nil {
		if immediate && errors.Is(schedErr, scheduler.ErrTaskConflict) {
			s.logger.Warn("Unlock task already scheduled", "user_id", userID, "task", taskName)
		} else {
			s.logger.Error("Failed to schedule unlock retry task",
				"user_id", userID,
				"task", taskName,
				"try_number", nextTry,
				"immediate", immediate,
				"error", schedErr,
			)
		}
	} else {
		s.logger.Info("Scheduled unlock retry task",
			"user_id", userID, "try_number", nextTry, "due_at", dueAt)
	}

	return fmt.Errorf("failed to unlock aggregate for user %s: %w", userID, err)
}
