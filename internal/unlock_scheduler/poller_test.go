package unlock_scheduler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wallet-lock-ledger/internal/config"
	"github.com/wallet-lock-ledger/internal/domain/unlock"
)

type MockTaskSource struct {
	mock.Mock
}

func (m *MockTaskSource) DueTasks(ctx context.Context, limit int) ([]unlock.Task, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]unlock.Task), args.Error(1)
}

func (m *MockTaskSource) DeleteTask(ctx context.Context, name string) error {
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

func newTestPoller(t *testing.T, tasks TaskSource, compensator *MockCompensator) *Poller {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := &config.SchedulerConfig{
		PollingInterval: 10 * time.Millisecond,
		BatchSize:       10,
		WorkerPoolSize:  2,
	}
	poller, err := NewPoller(cfg, tasks, compensator, logger)
	require.NoError(t, err)
	return poller
}

func TestPoller_FireDueTasks(t *testing.T) {
	ctx := context.Background()

	t.Run("FiresAndRetiresDueTasks", func(t *testing.T) {
		mockTasks := new(MockTaskSource)
		mockCompensator := new(MockCompensator)
		poller := newTestPoller(t, mockTasks, mockCompensator)
		defer poller.Shutdown()

		due := []unlock.Task{
			{UserID: "user-1", TryNumber: 1},
			{UserID: "user-2", TryNumber: 3},
		}
		mockTasks.On("DueTasks", ctx, 10).Return(due, nil).Once()
		mockCompensator.On("Unlock", ctx, "user-1", 1, false).Return(nil).Once()
		mockCompensator.On("Unlock", ctx, "user-2", 3, false).Return(nil).Once()
		mockTasks.On("DeleteTask", ctx, unlock.TaskName("user-1")).Return(nil).Once()
		mockTasks.On("DeleteTask", ctx, unlock.TaskName("user-2")).Return(nil).Once()

		err := poller.fireDueTasks(ctx)

		assert.NoError(t, err)
		mockTasks.AssertExpectations(t)
		mockCompensator.AssertExpectations(t)
	})

	t.Run("FailedUnlockLeavesTaskInPlace", func(t *testing.T) {
		mockTasks := new(MockTaskSource)
		mockCompensator := new(MockCompensator)
		poller := newTestPoller(t, mockTasks, mockCompensator)
		defer poller.Shutdown()

		due := []unlock.Task{{UserID: "user-1", TryNumber: 2}}
		mockTasks.On("DueTasks", ctx, 10).Return(due, nil).Once()
		mockCompensator.On("Unlock", ctx, "user-1", 2, false).Return(errors.New("store unreachable")).Once()

		err := poller.fireDueTasks(ctx)

		assert.NoError(t, err)
		mockTasks.AssertNotCalled(t, "DeleteTask", mock.Anything, mock.Anything)
		mockCompensator.AssertExpectations(t)
	})

	t.Run("DeleteFailureIsTolerated", func(t *testing.T) {
		mockTasks := new(MockTaskSource)
		mockCompensator := new(MockCompensator)
		poller := newTestPoller(t, mockTasks, mockCompensator)
		defer poller.Shutdown()

		due := []unlock.Task{{UserID: "user-1", TryNumber: 1}}
		mockTasks.On("DueTasks", ctx, 10).Return(due, nil).Once()
		mockCompensator.On("Unlock", ctx, "user-1", 1, false).Return(nil).Once()
		mockTasks.On("DeleteTask", ctx, unlock.TaskName("user-1")).Return(errors.New("delete failed")).Once()

		err := poller.fireDueTasks(ctx)

		assert.NoError(t, err)
		mockTasks.AssertExpectations(t)
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		mockTasks := new(MockTaskSource)
		mockCompensator := new(MockCompensator)
		poller := newTestPoller(t, mockTasks, mockCompensator)
		defer poller.Shutdown()

		mockTasks.On("DueTasks", ctx, 10).Return([]unlock.Task{}, nil).Once()

		err := poller.fireDueTasks(ctx)

		assert.NoError(t, err)
		mockCompensator.AssertNotCalled(t, "Unlock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("FetchError", func(t *testing.T) {
		mockTasks := new(MockTaskSource)
		mockCompensator := new(MockCompensator)
		poller := newTestPoller(t, mockTasks, mockCompensator)
		defer poller.Shutdown()

		fetchErr := errors.New("query failed")
		mockTasks.On("DueTasks", ctx, 10).Return(nil, fetchErr).Once()

		err := poller.fireDueTasks(ctx)

		assert.ErrorIs(t, err, fetchErr)
	})
}

func TestPoller_StartStopsOnContextCancel(t *testing.T) {
	mockTasks := new(MockTaskSource)
	mockCompensator := new(MockCompensator)
	poller := newTestPoller(t, mockTasks, mockCompensator)
	defer poller.Shutdown()

	mockTasks.On("DueTasks", mock.Anything, 10).Return([]unlock.Task{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Start(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after context cancellation")
	}

	mockTasks.AssertCalled(t, "DueTasks", mock.Anything, 10)
}
