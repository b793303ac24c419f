package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/wallet-lock-ledger/internal/domain/unlock"
	"github.com/wallet-lock-ledger/internal/platform/persistence"
	"github.com/wallet-lock-ledger/internal/scheduler"
)

// TaskRepository implements the scheduler.Gateway interface on a PostgreSQL
// table and additionally exposes the queries the deferred unlock worker needs
// to find and retire due tasks.
type TaskRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTaskRepository creates a new PostgreSQL unlock task repository
func NewTaskRepository(logger *slog.Logger, db *persistence.PostgresDB) *TaskRepository {
	return &TaskRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// CreateTask registers a new named task. A primary-key violation means a task
// for the same aggregate already exists and maps to scheduler.ErrTaskConflict.
func (r *TaskRepository) CreateTask(ctx context.Context, name string, dueAt time.Time, task unlock.Task) error {
	query := `
		INSERT INTO unlock_tasks (name, user_id, try_number, due_at, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`

	_, err := r.querier.Exec(ctx, query, name, task.UserID, task.TryNumber, dueAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return scheduler.ErrTaskConflict
		}
		r.logger.Error("Failed to create unlock task", "task", name, "error", err)
		return fmt.Errorf("failed to create unlock task: %w", err)
	}

	return nil
}

// UpdateTask reschedules an existing task and supersedes its try counter.
func (r *TaskRepository) UpdateTask(ctx context.Context, name string, dueAt time.Time, tryNumber int) error {
	query := `
		UPDATE unlock_tasks
		SET due_at = $2, try_number = $3
		WHERE name = $1
	`

	result, err := r.querier.Exec(ctx, query, name, dueAt, tryNumber)
	if err != nil {
		r.logger.Error("Failed to update unlock task", "task", name, "error", err)
		return fmt.Errorf("failed to update unlock task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("unlock task %s not found", name)
	}

	return nil
}

// DeleteTask removes a task; deleting an absent task is not an error.
func (r *TaskRepository) DeleteTask(ctx context.Context, name string) error {
	query := `DELETE FROM unlock_tasks WHERE name = $1`

	if _, err := r.querier.Exec(ctx, query, name); err != nil {
		r.logger.Error("Failed to delete unlock task", "task", name, "error", err)
		return fmt.Errorf("failed to delete unlock task: %w", err)
	}

	return nil
}

// DueTasks returns up to limit tasks whose due time has passed, oldest first.
func (r *TaskRepository) DueTasks(ctx context.Context, limit int) ([]unlock.Task, error) {
	query := `
		SELECT user_id, try_number, due_at
		FROM unlock_tasks
		WHERE due_at <= NOW()
		ORDER BY due_at
		LIMIT $1
	`

	rows, err := r.querier.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due unlock tasks: %w", err)
	}
	defer rows.Close()

	var tasks []unlock.Task
	for rows.Next() {
		var t unlock.Task
		if err := rows.Scan(&t.UserID, &t.TryNumber, &t.DueAt); err != nil {
			return nil, fmt.Errorf("failed to scan unlock task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate unlock tasks: %w", err)
	}

	return tasks, nil
}
