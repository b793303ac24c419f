package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wallet-lock-ledger/internal/domain/ledger"
)

// TransactionService defines the interface for the create-transaction entry point
type TransactionService interface {
	// CreateTransaction checks the user exists, acquires the aggregate lock,
	// and commits the balance delta at most once under the idempotency key.
	// Returns the ledger entry ID and the balance after the commit.
	CreateTransaction(ctx context.Context, userID string, amount decimal.Decimal, kind ledger.Kind, idempotencyKey, correlationID string) (uuid.UUID, decimal.Decimal, error)
}

// BalanceService defines the interface for balance retrieval
type BalanceService interface {
	// GetBalance returns the user's current balance, bootstrapping the
	// default opening credit on first access.
	// Returns wallet.ErrUserNotFound for unknown users.
	GetBalance(ctx context.Context, userID string) (decimal.Decimal, error)
}
