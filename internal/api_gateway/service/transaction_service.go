package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wallet-lock-ledger/internal/domain/ledger"
	"github.com/wallet-lock-ledger/internal/domain/users"
	"github.com/wallet-lock-ledger/internal/domain/wallet"
	"github.com/wallet-lock-ledger/internal/platform/messaging/producers"
	"github.com/wallet-lock-ledger/internal/processor"
)

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	userRepo  users.Repository
	locks     processor.LockManager
	committer processor.Committer
	producer  producers.MessagePublisher // May be nil when eventing is disabled
	logger    *slog.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(
	logger *slog.Logger,
	userRepo users.Repository,
	locks processor.LockManager,
	committer processor.Committer,
	producer producers.MessagePublisher,
) TransactionService {
	return &TransactionServiceImpl{
		userRepo:  userRepo,
		locks:     locks,
		committer: committer,
		producer:  producer,
		logger:    logger,
	}
}

// CreateTransaction drives the lock-then-commit flow for one balance delta.
// Once the lock is acquired, the committer owns its release on every path.
func (s *TransactionServiceImpl) CreateTransaction(
	ctx context.Context,
	userID string,
	amount decimal.Decimal,
	kind ledger.Kind,
	idempotencyKey, correlationID string,
) (uuid.UUID, decimal.Decimal, error) {
	logger := s.logger
	if correlationID != "" {
		logger = s.logger.With("correlation_id", correlationID)
	}

	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return uuid.Nil, decimal.Zero, fmt.Errorf("failed to check user %s: %w", userID, err)
	}
	if !exists {
		return uuid.Nil, decimal.Zero, wallet.ErrUserNotFound
	}

	heldBalance, err := s.locks.Acquire(ctx, userID)
	if err != nil {
		return uuid.Nil, decimal.Zero, err
	}

	ledgerID, newBalance, err := s.committer.Commit(ctx, userID, heldBalance, amount, kind, idempotencyKey)
	if err != nil {
		return uuid.Nil, decimal.Zero, err
	}

	s.publishCommitted(ctx, logger, ledger.CommittedEvent{
		LedgerID:      ledgerID,
		UserID:        userID,
		Kind:          kind,
		Amount:        amount,
		NewBalance:    newBalance,
		CorrelationID: correlationID,
		CommittedAt:   time.Now().UTC(),
	})

	return ledgerID, newBalance, nil
}

// publishCommitted emits the committed event. The commit is already durable,
// so a publish failure is logged and never surfaced to the client.
func (s *TransactionServiceImpl) publishCommitted(ctx context.Context, logger *slog.Logger, event ledger.CommittedEvent) {
	if s.producer == nil {
		return
	}

	if err := s.producer.Publish(ctx, event.UserID, event); err != nil {
		logger.Error("Failed to publish committed event",
			"user_id", event.UserID,
			"ledger_id", event.LedgerID.String(),
			"error", err,
		)
		return
	}

	logger.Debug("Committed event published",
		"user_id", event.UserID,
		"ledger_id", event.LedgerID.String(),
	)
}
