package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind defines the direction of a ledger entry
type Kind string

const (
	KindCredit Kind = "CREDIT"
	KindDebit  Kind = "DEBIT"
)

// bootstrapKeyPrefix is the reserved idempotency-key namespace for opening
// credits. Client-supplied keys must never use it, so a deterministic
// bootstrap key can't collide with a legitimate transaction.
const bootstrapKeyPrefix = "bootstrap:"

// Entry is an immutable record of one applied balance change. It is written
// atomically with the aggregate update that it describes and deduplicated on
// IdempotencyKey.
type Entry struct {
	ID             uuid.UUID       `json:"id"`
	UserID         string          `json:"user_id"`
	Amount         decimal.Decimal `json:"amount"`
	Kind           Kind            `json:"kind"`
	IdempotencyKey string          `json:"idempotency_key"`
	CreatedAt      time.Time       `json:"created_at"`
}

// BootstrapKey derives the deterministic idempotency key for a user's opening
// credit, so concurrent first-time readers converge on a single ledger entry.
func BootstrapKey(userID string) string {
	return bootstrapKeyPrefix + userID
}

// IsBootstrapKey reports whether key lives in the reserved bootstrap
// namespace.
func IsBootstrapKey(key string) bool {
	return strings.HasPrefix(key, bootstrapKeyPrefix)
}

// CommittedEvent is published to the event stream after an entry has been
// durably committed.
type CommittedEvent struct {
	LedgerID      uuid.UUID       `json:"ledger_id"`
	UserID        string          `json:"user_id"`
	Kind          Kind            `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	NewBalance    decimal.Decimal `json:"new_balance"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	CommittedAt   time.Time       `json:"committed_at"`
}
