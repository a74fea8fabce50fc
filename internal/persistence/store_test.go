package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/paydesk/internal/config"
	"github.com/spec-kit/paydesk/internal/domain"
)

func TestOpenStoreMemory(t *testing.T) {
	cfg := config.Config{Store: config.StoreConfig{Driver: config.StoreMemory}}
	backend, err := OpenStore(context.Background(), cfg, true, zap.NewNop())
	require.NoError(t, err)
	defer backend.Close()

	assert.Equal(t, config.StoreMemory, backend.Driver)
	assert.NoError(t, backend.Ping(context.Background()))
}

func TestOpenStoreSQLiteMigrates(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "paydesk.db")
	cfg := config.Config{Store: config.StoreConfig{Driver: config.StoreSQLite, SQLitePath: path}}

	backend, err := OpenStore(ctx, cfg, true, zap.NewNop())
	require.NoError(t, err)
	defer backend.Close()
	require.NoError(t, backend.Ping(ctx))

	dept := &domain.Department{Name: "Finance"}
	require.NoError(t, backend.Store.Departments.Create(ctx, dept))
	assert.NotEmpty(t, dept.ID)
}

func TestOpenStoreSQLiteWithoutMigrationsHasNoSchema(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{Store: config.StoreConfig{Driver: config.StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "bare.db")}}

	backend, err := OpenStore(ctx, cfg, false, zap.NewNop())
	require.NoError(t, err)
	defer backend.Close()

	_, err = backend.Store.Agents.List(ctx)
	assert.Error(t, err)
}

func TestOpenStoreRejectsUnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), config.Config{Store: config.StoreConfig{Driver: "mongo"}}, false, zap.NewNop())
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestOpenStorePostgresNeedsDSN(t *testing.T) {
	cfg := config.Config{Store: config.StoreConfig{Driver: config.StorePostgres}}
	_, err := OpenStore(context.Background(), cfg, false, zap.NewNop())
	assert.Error(t, err)
}

func TestNilBackendIsSafe(t *testing.T) {
	var b *Backend
	assert.NoError(t, b.Ping(context.Background()))
	b.Close()
}
