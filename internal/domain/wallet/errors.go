package wallet

import "errors"

// Common errors
var (
	// ErrLockTimeout is returned when the lock on an aggregate could not be
	// acquired within the configured wall-clock budget. Transient; clients
	// should retry.
	ErrLockTimeout = errors.New("timed out waiting for wallet lock")

	// ErrNegativeBalance is the business-rule rejection for debits that would
	// take the balance below zero. Permanent for that request.
	ErrNegativeBalance = errors.New("balance can't be negative")

	// ErrServiceUnavailable is returned when two atomic commits collided on
	// the same aggregate. The aggregate may still be locked on the storage
	// side, so no unlock is attempted. Transient; clients should retry.
	ErrServiceUnavailable = errors.New("wallet is busy, please retry")

	// ErrUserNotFound indicates the user-existence check failed.
	ErrUserNotFound = errors.New("user not found")
)

// AlreadyProcessedError signals that the idempotency key was already used for
// a different transaction payload. Permanent duplicate-submission signal.
type AlreadyProcessedError struct {
	IdempotencyKey string
}

func (e AlreadyProcessedError) Error() string {
	return "transaction already processed for idempotency key: " + e.IdempotencyKey
}

// Is matches any AlreadyProcessedError when the target carries no key.
func (e AlreadyProcessedError) Is(target error) bool {
	t, ok := target.(AlreadyProcessedError)
	if !ok {
		return false
	}
	return t.IdempotencyKey == "" || t.IdempotencyKey == e.IdempotencyKey
}

// InvariantViolationError reports that the lock flag was in a state the
// protocol guarantees impossible (for example unlocked at commit time). It is
// a bug signal and should alert operators.
type InvariantViolationError struct {
	UserID string
	Reason string
	Err    error
}

func (e InvariantViolationError) Error() string {
	return "lock invariant violated for user " + e.UserID + ": " + e.Reason
}

func (e InvariantViolationError) Unwrap() error {
	return e.Err
}

// Is matches any InvariantViolationError when the target carries no user ID.
func (e InvariantViolationError) Is(target error) bool {
	t, ok := target.(InvariantViolationError)
	if !ok {
		return false
	}
	return t.UserID == "" || t.UserID == e.UserID
}
