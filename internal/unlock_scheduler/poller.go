// Package unlock_scheduler runs the durable-timer side of the compensation
// saga: it periodically fires due unlock tasks through the compensator.
package unlock_scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/wallet-lock-ledger/internal/config"
	"github.com/wallet-lock-ledger/internal/domain/unlock"
	"github.com/wallet-lock-ledger/internal/processor"
)

// TaskSource provides due unlock tasks and lets the poller retire them.
type TaskSource interface {
	DueTasks(ctx context.Context, limit int) ([]unlock.Task, error)
	DeleteTask(ctx context.Context, name string) error
}

// Poller fires due unlock tasks
type Poller struct {
	tasks        TaskSource
	compensator  processor.Compensator
	pool         *ants.Pool
	logger       *slog.Logger
	pollInterval time.Duration
	batchSize    int
}

func NewPoller(
	cfg *config.SchedulerConfig,
	tasks TaskSource,
	compensator processor.Compensator,
	logger *slog.Logger,
) (*Poller, error) {
	pool, err := ants.NewPool(cfg.WorkerPoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create unlock worker pool: %w", err)
	}

	return &Poller{
		tasks:        tasks,
		compensator:  compensator,
		pool:         pool,
		logger:       logger,
		pollInterval: cfg.PollingInterval,
		batchSize:    cfg.BatchSize,
	}, nil
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting unlock task poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"worker_pool_size", p.pool.Cap(),
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Unlock task poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			p.logger.Debug("Unlock task poller tick: firing due tasks")
			if err := p.fireDueTasks(ctx); err != nil {
				p.logger.Error("Error during batch firing of due unlock tasks", "error", err)
			}
		}
	}
}

// fireDueTasks runs one batch. A task that unlocks (or finds the aggregate
// already unlocked) is deleted; a task whose unlock failed has already been
// rescheduled by the compensator and is left in place.
func (p *Poller) fireDueTasks(ctx context.Context) error {
	tasks, err := p.tasks.DueTasks(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch due unlock tasks: %w", err)
	}

	if len(tasks) == 0 {
		p.logger.Debug("No due unlock tasks found.")
		return nil
	}

	p.logger.Info("Fetched due unlock tasks", "count", len(tasks))

	var wg sync.WaitGroup
	for _, task := range tasks {
		task := task
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			p.fireTask(ctx, task)
		})
		if submitErr != nil {
			wg.Done()
			p.logger.Error("Failed to submit unlock task to worker pool",
				"user_id", task.UserID, "error", submitErr)
		}
	}
	wg.Wait()

	return nil
}

func (p *Poller) fireTask(ctx context.Context, task unlock.Task) {
	if err := p.compensator.Unlock(ctx, task.UserID, task.TryNumber, false); err != nil {
		// The compensator has rescheduled the task with an incremented try
		// counter; it stays in the table until a later fire succeeds.
		p.logger.Error("Deferred unlock attempt failed",
			"user_id", task.UserID,
			"try_number", task.TryNumber,
			"error", err,
		)
		return
	}

	name := unlock.TaskName(task.UserID)
	if err := p.tasks.DeleteTask(ctx, name); err != nil {
		p.logger.Warn("Failed to delete fired unlock task; a duplicate fire is harmless",
			"task", name, "error", err)
	}
}

// Shutdown releases the worker pool.
func (p *Poller) Shutdown() {
	p.logger.Info("Shutting down unlock worker pool", "running_workers", p.pool.Running())
	p.pool.Release()
}
