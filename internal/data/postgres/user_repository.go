package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wallet-lock-ledger/internal/domain/users"
	"github.com/wallet-lock-ledger/internal/platform/persistence"
)

// UserRepository implements the users.Repository interface for PostgreSQL
type UserRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(logger *slog.Logger, db *persistence.PostgresDB) users.Repository {
	return &UserRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Exists reports whether a user with the given ID is known
func (r *UserRepository) Exists(ctx context.Context, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`

	var exists bool
	if err := r.querier.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		r.logger.Error("Failed to check user existence", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}

	return exists, nil
}
