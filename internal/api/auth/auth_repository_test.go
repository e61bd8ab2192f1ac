package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/shophub-api/internal/types"
)

var userRowColumns = []string{"id", "email", "username", "password_hash", "firstname", "lastname", "phone", "address", "created_at", "updated_at"}

func setupPostgresUserRepoTest(t *testing.T) (*PostgresUserRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return NewPostgresUserRepo(mockPool, testLogger()), mockPool
}

func TestPostgresUserRepo_GetUserByEmail(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := uuid.NewString()

	t.Run("found with address", func(t *testing.T) {
		repo, mockPool := setupPostgresUserRepoTest(t)
		rows := mockPool.NewRows(userRowColumns).AddRow(
			id, "jane@example.com", "jane", "$2a$10$digest", "Jane", "Doe", "555-0101",
			[]byte(`{"street":"Main","number":"1","city":"Lisbon","zipcode":"1000"}`), now, now)
		mockPool.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
			WithArgs("jane@example.com").
			WillReturnRows(rows)

		user, err := repo.GetUserByEmail(ctx, "jane@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, "$2a$10$digest", user.PasswordHash)
		require.NotNil(t, user.Address)
		assert.Equal(t, "Lisbon", user.Address.City)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("found without address", func(t *testing.T) {
		repo, mockPool := setupPostgresUserRepoTest(t)
		rows := mockPool.NewRows(userRowColumns).AddRow(
			id, "jane@example.com", "jane", "$2a$10$digest", "Jane", "Doe", "", []byte("null"), now, now)
		mockPool.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
			WithArgs("jane@example.com").
			WillReturnRows(rows)

		user, err := repo.GetUserByEmail(ctx, "jane@example.com")
		require.NoError(t, err)
		assert.Nil(t, user.Address)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mockPool := setupPostgresUserRepoTest(t)
		mockPool.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
			WithArgs("ghost@example.com").
			WillReturnRows(mockPool.NewRows(userRowColumns))

		_, err := repo.GetUserByEmail(ctx, "ghost@example.com")
		assert.Equal(t, types.ErrNotFound, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		repo, mockPool := setupPostgresUserRepoTest(t)
		dbErr := errors.New("connection refused")
		mockPool.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
			WithArgs("jane@example.com").
			WillReturnError(dbErr)

		_, err := repo.GetUserByEmail(ctx, "jane@example.com")
		require.Error(t, err)
		assert.True(t, errors.Is(err, dbErr))
	})
}

func TestPostgresUserRepo_GetUserByID(t *testing.T) {
	t.Run("non uuid id never reaches the database", func(t *testing.T) {
		repo, mockPool := setupPostgresUserRepoTest(t)
		_, err := repo.GetUserByID(context.Background(), "not-a-uuid")
		assert.Equal(t, types.ErrNotFound, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mockPool := setupPostgresUserRepoTest(t)
		id := uuid.NewString()
		mockPool.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(mockPool.NewRows(userRowColumns))

		_, err := repo.GetUserByID(context.Background(), id)
		assert.True(t, errors.Is(err, types.ErrNotFound))
	})
}

func TestPostgresUserRepo_FindByEmailOrUsername(t *testing.T) {
	repo, mockPool := setupPostgresUserRepoTest(t)
	now := time.Now().UTC()
	mockPool.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1 OR username = \$2`).
		WithArgs("jane@example.com", "jane").
		WillReturnRows(mockPool.NewRows(userRowColumns).AddRow(
			uuid.NewString(), "jane@example.com", "other", "d", "J", "D", "", []byte("null"), now, now))

	user, err := repo.FindByEmailOrUsername(context.Background(), "jane@example.com", "jane")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresUserRepo_CreateUser(t *testing.T) {
	ctx := context.Background()
	params := types.NewUserParams{
		Email:        "jane@example.com",
		Username:     "jane",
		PasswordHash: "$2a$10$digest",
		Firstname:    "Jane",
		Lastname:     "Doe",
	}

	t.Run("success", func(t *testing.T) {
		repo, mockPool := setupPostgresUserRepoTest(t)
		now := time.Now().UTC()
		id := uuid.NewString()
		mockPool.ExpectQuery(`INSERT INTO users`).
			WithArgs(params.Email, params.Username, params.PasswordHash, params.Firstname, params.Lastname, params.Phone).
			WillReturnRows(mockPool.NewRows(userRowColumns).AddRow(
				id, params.Email, params.Username, params.PasswordHash, params.Firstname, params.Lastname, "", []byte("null"), now, now))

		user, err := repo.CreateUser(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	uniqueViolations := map[string]string{
		"users_email_key":    "email",
		"users_username_key": "username",
	}
	for constraint, field := range uniqueViolations {
		t.Run("unique violation on "+field, func(t *testing.T) {
			repo, mockPool := setupPostgresUserRepoTest(t)
			mockPool.ExpectQuery(`INSERT INTO users`).
				WithArgs(params.Email, params.Username, params.PasswordHash, params.Firstname, params.Lastname, params.Phone).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: constraint})

			_, err := repo.CreateUser(ctx, params)
			var conflict *types.ConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, field, conflict.Field)
		})
	}

	t.Run("other database error", func(t *testing.T) {
		repo, mockPool := setupPostgresUserRepoTest(t)
		mockPool.ExpectQuery(`INSERT INTO users`).
			WithArgs(params.Email, params.Username, params.PasswordHash, params.Firstname, params.Lastname, params.Phone).
			WillReturnError(&pgconn.PgError{Code: "23502", ColumnName: "firstname"})

		_, err := repo.CreateUser(ctx, params)
		require.Error(t, err)
		assert.False(t, errors.Is(err, types.ErrConflict))
	})
}

func TestMemoryUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepo()

	created, err := repo.CreateUser(ctx, types.NewUserParams{Email: "jane@example.com", Username: "jane", PasswordHash: "d"})
	require.NoError(t, err)
	_, err = uuid.Parse(created.ID)
	require.NoError(t, err)

	_, err = repo.CreateUser(ctx, types.NewUserParams{Email: "jane@example.com", Username: "other"})
	assert.Equal(t, &types.ConflictError{Field: "email"}, err)

	_, err = repo.CreateUser(ctx, types.NewUserParams{Email: "other@example.com", Username: "jane"})
	assert.Equal(t, &types.ConflictError{Field: "username"}, err)

	found, err := repo.FindByEmailOrUsername(ctx, "nobody@example.com", "jane")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	found.Firstname = "mutated"
	again, err := repo.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Firstname)

	repo.Delete(created.ID)
	_, err = repo.GetUserByEmail(ctx, "jane@example.com")
	assert.Equal(t, types.ErrNotFound, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = repo.CreateUser(cancelled, types.NewUserParams{Email: "late@example.com", Username: "late"})
	assert.True(t, errors.Is(err, context.Canceled))
	_, err = repo.GetUserByEmail(ctx, "late@example.com")
	assert.Equal(t, types.ErrNotFound, err)
}
