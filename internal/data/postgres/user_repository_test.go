package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Exists(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &UserRepository{querier: mock, logger: logger}
	userID := "user-1"

	query := `SELECT EXISTS \(SELECT 1 FROM users WHERE id = \$1\)`

	t.Run("user exists", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		exists, err := repo.Exists(ctx, userID)
		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("user does not exist", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		exists, err := repo.Exists(ctx, userID)
		assert.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("exists db error")
		mock.ExpectQuery(query).WithArgs(userID).WillReturnError(dbErr)

		exists, err := repo.Exists(ctx, userID)
		assert.Error(t, err)
		assert.False(t, exists)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
