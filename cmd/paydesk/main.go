package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/paydesk/internal/config"
	"github.com/spec-kit/paydesk/internal/events"
	"github.com/spec-kit/paydesk/internal/observability"
	"github.com/spec-kit/paydesk/internal/persistence"
	"github.com/spec-kit/paydesk/internal/service"
	"github.com/spec-kit/paydesk/internal/session"
	"github.com/spec-kit/paydesk/internal/worker"
)

var (
	outputJSON bool
	noMigrate  bool
)

var rootCmd = &cobra.Command{
	Use:           "paydesk",
	Short:         "Personnel, department and payment ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output JSON")
	rootCmd.PersistentFlags().BoolVar(&noMigrate, "no-migrate", false, "skip schema migrations on startup")
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(agentCmd())
	rootCmd.AddCommand(departmentCmd())
	rootCmd.AddCommand(paymentCmd())
}

// app holds the wired core for one command invocation.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *observability.Metrics
	backend  *persistence.Backend
	redis    *persistence.Redis
	sessions session.Store

	directory  *service.DirectoryService
	payments   *service.PaymentService
	statistics *service.StatisticsService
	auth       *service.AuthService
}

func (a *app) close() {
	a.redis.Close()
	a.backend.Close()
	_ = a.logger.Sync()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	migrate := !noMigrate
	if cfg.Store.Driver == config.StorePostgres {
		migrate = migrate && cfg.Postgres.RunMigrations
	}
	backend, err := persistence.OpenStore(ctx, *cfg, migrate, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(nil),
		backend: backend,
	}

	switch cfg.Session.Driver {
	case config.SessionRedis:
		a.redis = persistence.NewRedis(cfg.Redis, logger)
		a.sessions = session.NewRedisStore(a.redis.Client, cfg.Session.Key)
	case config.SessionMemory:
		a.sessions = session.NewMemoryStore()
	default:
		a.close()
		return nil, fmt.Errorf("unknown session driver %q", cfg.Session.Driver)
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, a.metrics))

	deps := service.DependenciesFromStore(backend.Store)
	deps.Dispatcher = dispatcher
	deps.Metrics = a.metrics
	deps.Logger = logger
	deps.FanoutConcurrency = cfg.Stats.FanoutConcurrency

	a.directory = service.NewDirectoryService(deps)
	a.payments = service.NewPaymentService(deps)
	a.statistics = service.NewStatisticsService(deps)
	a.auth = service.NewAuthService(deps, a.sessions)
	return a, nil
}

func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
