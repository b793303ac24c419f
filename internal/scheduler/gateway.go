// Package scheduler defines the gateway to the durable timer service used as
// the saga fallback: when an unlock can't be confirmed inline, a named task is
// scheduled to retry it later.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/wallet-lock-ledger/internal/domain/unlock"
)

// ErrTaskConflict means a task with the same name already exists or is
// mid-transition.
var ErrTaskConflict = errors.New("unlock task already exists")

// Gateway manages named, time-deferred unlock tasks.
type Gateway interface {
	// CreateTask registers a new task firing at dueAt. Returns
	// ErrTaskConflict when the name is already taken.
	CreateTask(ctx context.Context, name string, dueAt time.Time, task unlock.Task) error

	// UpdateTask reschedules an existing task, superseding its try counter.
	UpdateTask(ctx context.Context, name string, dueAt time.Time, tryNumber int) error

	// DeleteTask removes a task. Callers treat failures as best-effort: a
	// leftover task fires harmlessly against an already-unlocked aggregate.
	DeleteTask(ctx context.Context, name string) error
}
