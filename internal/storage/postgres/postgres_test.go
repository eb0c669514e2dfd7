package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/equipment-market/internal/config"
	"github.com/cory-johannsen/equipment-market/internal/storage/postgres"
	"github.com/cory-johannsen/equipment-market/internal/testutil"
)

func TestStore_CheckSchemaBeforeMigrations(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	ctx := context.Background()

	err := postgres.NewStore(pc.Pool).CheckSchema(ctx)
	require.ErrorIs(t, err, postgres.ErrSchemaOutdated)

	_, err = postgres.Open(ctx, pc.Config, zap.NewNop())
	require.ErrorIs(t, err, postgres.ErrSchemaOutdated)
}

func TestStore_OpenAfterMigrations(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	ctx := context.Background()

	store, err := postgres.Open(ctx, pc.Config, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.CheckSchema(ctx))
	assert.NoError(t, store.Health(ctx, 5*time.Second))
	require.NotNil(t, store.History)
}

func TestOpen_Unreachable(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:            "127.0.0.1",
		Port:            1,
		User:            "nobody",
		Name:            "none",
		SSLMode:         "disable",
		MaxConns:        1,
		MaxConnLifetime: time.Minute,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := postgres.Open(ctx, cfg, zap.NewNop())
	require.Error(t, err)
}
