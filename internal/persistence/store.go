package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/paydesk/internal/config"
	"github.com/spec-kit/paydesk/internal/repository"
	"github.com/spec-kit/paydesk/internal/repository/memory"
	"github.com/spec-kit/paydesk/internal/repository/sqlite"
)

// Backend is an opened record store together with its lifecycle hooks.
type Backend struct {
	Driver string
	Store  repository.Store

	ping  func(context.Context) error
	close func()
}

// Ping checks the backend is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	if b == nil || b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

// Close releases the backend's connections.
func (b *Backend) Close() {
	if b != nil && b.close != nil {
		b.close()
	}
}

// OpenStore selects and opens the record store named by cfg.Store.Driver.
// When migrate is set the schema is brought up to date first.
func OpenStore(ctx context.Context, cfg config.Config, migrate bool, logger *zap.Logger) (*Backend, error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on exit")
		return &Backend{Driver: config.StoreMemory, Store: memory.New().Repositories()}, nil

	case config.StoreSQLite:
		db, err := OpenSQLite(ctx, cfg.Store.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := RunSQLiteMigrations(ctx, db, logger); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return &Backend{
			Driver: config.StoreSQLite,
			Store:  sqlite.New(db),
			ping:   db.PingContext,
			close:  func() { _ = db.Close() },
		}, nil

	case config.StorePostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		pool := pg.PoolHandle()
		return &Backend{
			Driver: config.StorePostgres,
			Store: repository.Store{
				Agents:      repository.NewAgentRepository(pool),
				Departments: repository.NewDepartmentRepository(pool),
				Payments:    repository.NewPaymentRepository(pool),
			},
			ping:  pg.Ping,
			close: pg.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
