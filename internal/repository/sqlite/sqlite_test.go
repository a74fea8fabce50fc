package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/spec-kit/paydesk/internal/persistence"
	"github.com/spec-kit/paydesk/internal/repository"
	"github.com/spec-kit/paydesk/internal/repository/repotest"
	"github.com/spec-kit/paydesk/internal/repository/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := persistence.OpenSQLite(ctx, filepath.Join(t.TempDir(), "paydesk.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, persistence.RunSQLiteMigrations(ctx, db, zap.NewNop()))
	return db
}

func TestSQLiteStore(t *testing.T) {
	st := &repotest.StoreSuite{}
	st.Open = func() repository.Store { return sqlite.New(openDB(st.T())) }
	suite.Run(t, st)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := openDB(t)
	require.NoError(t, persistence.RunSQLiteMigrations(context.Background(), db, zap.NewNop()))
}
