package container

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/shophub-api/config"
)

func memoryConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Storage.Driver = config.StorageMemory
	cfg.JWT = config.JWTConfig{SecretKey: "container-test", Issuer: "shophub-api", TokenTTL: time.Hour}
	cfg.Password = config.PasswordConfig{Cost: 4, MaxConcurrent: 2}
	cfg.Cache.DefaultTTL = time.Minute
	cfg.Cache.CleanupInterval = time.Minute
	return cfg
}

func TestNewContainer_Memory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := NewContainer(context.Background(), memoryConfig(), logger)
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Pool)
	assert.Nil(t, c.MongoClient)
	assert.NotNil(t, c.AuthHandler)
	assert.NotNil(t, c.ProductHandler)
	assert.NotNil(t, c.UploadHandler)
	assert.NotNil(t, c.AuthenticateMiddleware)
}

func TestNewContainer_EmptySecret(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := memoryConfig()
	cfg.JWT.SecretKey = ""

	_, err := NewContainer(context.Background(), cfg, logger)
	assert.Error(t, err)
}

func recordingPostgresSetup(steps *[]string, ready bool, migrateErr error) postgresSetup {
	return postgresSetup{
		init: func(context.Context, string, *slog.Logger) (*pgxpool.Pool, error) {
			*steps = append(*steps, "init")
			return nil, nil
		},
		wait: func(context.Context, *pgxpool.Pool, *slog.Logger) bool {
			*steps = append(*steps, "wait")
			return ready
		},
		migrate: func(string, *slog.Logger) error {
			*steps = append(*steps, "migrate")
			return migrateErr
		},
	}
}

func TestPostgresSetup_WaitsBeforeMigrating(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("ready database is migrated after the wait", func(t *testing.T) {
		var steps []string
		_, err := recordingPostgresSetup(&steps, true, nil).open(ctx, "postgres://db", logger)
		require.NoError(t, err)
		assert.Equal(t, []string{"init", "wait", "migrate"}, steps)
	})

	t.Run("database that never comes up is not migrated", func(t *testing.T) {
		var steps []string
		_, err := recordingPostgresSetup(&steps, false, nil).open(ctx, "postgres://db", logger)
		require.Error(t, err)
		assert.Equal(t, []string{"init", "wait"}, steps)
	})

	t.Run("migration failure is returned", func(t *testing.T) {
		var steps []string
		boom := errors.New("dirty database version")
		_, err := recordingPostgresSetup(&steps, true, boom).open(ctx, "postgres://db", logger)
		assert.ErrorIs(t, err, boom)
	})
}
