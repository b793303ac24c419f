package processor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/wallet-lock-ledger/internal/domain/ledger"
	"github.com/wallet-lock-ledger/internal/domain/unlock"
	"github.com/wallet-lock-ledger/internal/domain/wallet"
	"github.com/wallet-lock-ledger/internal/scheduler"
	"github.com/wallet-lock-ledger/internal/storage"
)

type MockStorageGateway struct {
	mock.Mock
}

func (m *MockStorageGateway) GetAggregate(ctx context.Context, userID string) (*wallet.Aggregate, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Aggregate), args.Error(1)
}

func (m *MockStorageGateway) LockAggregate(ctx context.Context, userID string) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockStorageGateway) UnlockAggregate(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockStorageGateway) CommitEntry(ctx context.Context, entry *ledger.Entry, newBalance decimal.Decimal) (uuid.UUID, decimal.Decimal, error) {
	args := m.Called(ctx, entry, newBalance)
	return args.Get(0).(uuid.UUID), args.Get(1).(decimal.Decimal), args.Error(2)
}

type MockSchedulerGateway struct {
	mock.Mock
}

func (m *MockSchedulerGateway) CreateTask(ctx context.Context, name string, dueAt time.Time, task unlock.Task) error {
	args := m.Called(ctx, name, dueAt, task)
	return args.Error(0)
}

func (m *MockSchedulerGateway) UpdateTask(ctx context.Context, name string, dueAt time.Time, tryNumber int) error {
	args := m.Called(ctx, name, dueAt, tryNumber)
	return args.Error(0)
}

func (m *MockSchedulerGateway) DeleteTask(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

type MockCompensator struct {
	mock.Mock
}

func (m *MockCompensator) Unlock(ctx context.Context, userID string, tryNumber int, immediate bool) error {
	args := m.Called(ctx, userID, tryNumber, immediate)
	return args.Error(0)
}

type MockLockManager struct {
	mock.Mock
}

func (m *MockLockManager) Acquire(ctx context.Context, userID string) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockCommitter struct {
	mock.Mock
}

func (m *MockCommitter) Commit(ctx context.Context, userID string, heldBalance, amount decimal.Decimal, kind ledger.Kind, idempotencyKey string) (uuid.UUID, decimal.Decimal, error) {
	args := m.Called(ctx, userID, heldBalance, amount, kind, idempotencyKey)
	return args.Get(0).(uuid.UUID), args.Get(1).(decimal.Decimal), args.Error(2)
}

var _ storage.Gateway = (*MockStorageGateway)(nil)
var _ scheduler.Gateway = (*MockSchedulerGateway)(nil)
var _ Compensator = (*MockCompensator)(nil)
var _ LockManager = (*MockLockManager)(nil)
var _ Committer = (*MockCommitter)(nil)
