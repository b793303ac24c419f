package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wallet-lock-ledger/internal/domain/users"
	"github.com/wallet-lock-ledger/internal/domain/wallet"
	"github.com/wallet-lock-ledger/internal/processor"
)

// BalanceServiceImpl implements the BalanceService interface
type BalanceServiceImpl struct {
	userRepo users.Repository
	reader   processor.BalanceReader
}

// NewBalanceService creates a new balance service
func NewBalanceService(userRepo users.Repository, reader processor.BalanceReader) BalanceService {
	return &BalanceServiceImpl{
		userRepo: userRepo,
		reader:   reader,
	}
}

// GetBalance checks the user exists, then delegates to the balance reader
func (s *BalanceServiceImpl) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to check user %s: %w", userID, err)
	}
	if !exists {
		return decimal.Zero, wallet.ErrUserNotFound
	}

	return s.reader.GetBalance(ctx, userID)
}
