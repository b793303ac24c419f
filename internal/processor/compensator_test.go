package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/wallet-lock-ledger/internal/domain/unlock"
	"github.com/wallet-lock-ledger/internal/domain/wallet"
	"github.com/wallet-lock-ledger/internal/scheduler"
	"github.com/wallet-lock-ledger/internal/storage"
)

func TestCompensatorImpl_Unlock(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	userID := "user-1"
	taskName := unlock.TaskName(userID)
	retryDelay := 5 * time.Minute

	dueAround := func(expected time.Time) interface{} {
		return mock.MatchedBy(func(dueAt time.Time) bool {
			diff := dueAt.Sub(expected)
			return diff > -time.Second && diff < time.Second
		})
	}

	t.Run("ImmediateSuccessDeletesPendingTask", func(t *testing.T) {
		mockStore := new(MockStorageGateway)
		mockSched := new(MockSchedulerGateway)
		compensator := NewCompensator(mockStore, mockSched, retryDelay, logger)

		mockStore.On("UnlockAggregate", ctx, userID).Return(nil).Once()
		mockSched.On("DeleteTask", ctx, taskName).Return(nil).Once()

		err := compensator.Unlock(ctx, userID, 0, true)

		assert.NoError(t, err)
		mockStore.AssertExpectations(t)
		mockSched.AssertExpectations(t)
	})

	t.Run("ImmediateSuccessToleratesTaskDeleteFailure", func(t *testing.T) {
		mockStore := new(MockStorageGateway)
		mockSched := new(MockSchedulerGateway)
		compensator := NewCompensator(mockStore, mockSched, retryDelay, logger)

		mockStore.On("UnlockAggregate", ctx, userID).Return(nil).Once()
		mockSched.On("DeleteTask", ctx, taskName).Return(errors.New("scheduler down")).Once()

		err := compensator.Unlock(ctx, userID, 0, true)

		assert.NoError(t, err)
		mockStore.AssertExpectations(t)
		mockSched.AssertExpectations(t)
	})

	t.Run("DeferredSuccessLeavesTaskManagementToCaller", func(t *testing.T) {
		mockStore := new(MockStorageGateway)
		mockSched := new(MockSchedulerGateway)
		compensator := NewCompensator(mockStore, mockSched, retryDelay, logger)

		mockStore.On("UnlockAggregate", ctx, userID).Return(nil).Once()

		err := compensator.Unlock(ctx, userID, 3, false)

		assert.NoError(t, err)
		mockSched.AssertNotCalled(t, "DeleteTask", mock.Anything, mock.Anything)
		mockStore.AssertExpectations(t)
	})

	t.Run("ImmediateAlreadyUnlockedIsInvariantViolation", func(t *testing.T) {
		mockStore := new(MockStorageGateway)
		mockSched := new(MockSchedulerGateway)
		compensator := NewCompensator(mockStore, mockSched, retryDelay, logger)

		mockStore.On("UnlockAggregate", ctx, userID).Return(storage.ErrConditionFailed).Once()

		err := compensator.Unlock(ctx, userID, 0, true)

		var invariantErr wallet.InvariantViolationError
		assert.ErrorAs(t, err, &invariantErr)
		assert.Equal(t, userID, invariantErr.UserID)
		mockSched.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		mockStore.AssertExpectations(t)
	})

	t.Run("DeferredAlreadyUnlockedIsBenign", func(t *testing.T) {
		mockStore := new(MockStorageGateway)
		mockSched := new(MockSchedulerGateway)
		compensator := NewCompensator(mockStore, mockSched, retryDelay, logger)

		mockStore.On("UnlockAggregate", ctx, userID).Return(storage.ErrConditionFailed).Once()

		err := compensator.Unlock(ctx, userID, 2, false)

		assert.NoError(t, err)
		mockSched.AssertNotCalled(t, "UpdateTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		mockStore.AssertExpectations(t)
	})

	t.Run("ImmediateFailureSchedulesRetryTask", func(t *testing.T) {
		mockStore := new(MockStorageGateway)
		mockSched := new(MockSchedulerGateway)
		compensator := NewCompensator(mockStore, mockSched, retryDelay, logger)
		storeErr := errors.New("store unreachable")

		mockStore.On("UnlockAggregate", ctx, userID).Return(storeErr).Once()
		mockSched.On("CreateTask", ctx, taskName, dueAround(time.Now().Add(retryDelay)),
			mock.MatchedBy(func(task unlock.Task) bool {
				return task.UserID == userID && task.TryNumber == 1
			})).Return(nil).Once()

		err := compensator.Unlock(ctx, userID, 0, true)

		assert.ErrorIs(t, err, storeErr)
		mockStore.AssertExpectations(t)
		mockSched.AssertExpectations(t)
	})

	t.Run("ImmediateFailureWithTaskConflictStillReturnsUnlockError", func(t *testing.T) {
		mockStore := new(MockStorageGateway)
		mockSched := new(MockSchedulerGateway)
		compensator := NewCompensator(mockStore, mockSched, retryDelay, logger)
		storeErr := errors.New("store unreachable")

		mockStore.On("UnlockAggregate", ctx, userID).Return(storeErr).Once()
		mockSched.On("CreateTask", ctx, taskName, mock.Anything, mock.Anything).
			Return(scheduler.ErrTaskConflict).Once()

		err := compensator.Unlock(ctx, userID, 0, true)

		assert.ErrorIs(t, err, storeErr)
		mockStore.AssertExpectations(t)
		mockSched.AssertExpectations(t)
	})

	t.Run("DeferredFailureReschedulesWithIncrementedTry", func(t *testing.T) {
		mockStore := new(MockStorageGateway)
		mockSched := new(MockSchedulerGateway)
		compensator := NewCompensator(mockStore, mockSched, retryDelay, logger)
		storeErr := errors.New("store unreachable")

		mockStore.On("UnlockAggregate", ctx, userID).Return(storeErr).Once()
		mockSched.On("UpdateTask", ctx, taskName, dueAround(time.Now().Add(retryDelay)), 4).
			Return(nil).Once()

		err := compensator.Unlock(ctx, userID, 3, false)

		assert.ErrorIs(t, err, storeErr)
		mockStore.AssertExpectations(t)
		mockSched.AssertExpectations(t)
	})

	t.Run("DeferredFailureWithRescheduleFailureStillReturnsUnlockError", func(t *testing.T) {
		mockStore := new(MockStorageGateway)
		mockSched := new(MockSchedulerGateway)
		compensator := NewCompensator(mockStore, mockSched, retryDelay, logger)
		storeErr := errors.New("store unreachable")

		mockStore.On("UnlockAggregate", ctx, userID).Return(storeErr).Once()
		mockSched.On("UpdateTask", ctx, taskName, mock.Anything, 1).
			Return(errors.New("scheduler down")).Once()

		err := compensator.Unlock(ctx, userID, 0, false)

		assert.ErrorIs(t, err, storeErr)
		mockStore.AssertExpectations(t)
		mockSched.AssertExpectations(t)
	})
}
