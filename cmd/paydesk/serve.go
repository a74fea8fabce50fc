package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/paydesk/internal/api/http"
	"github.com/spec-kit/paydesk/internal/api/http/handlers"
	"github.com/spec-kit/paydesk/internal/config"
	"github.com/spec-kit/paydesk/internal/observability"
	"github.com/spec-kit/paydesk/internal/persistence"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the health and metrics server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if addr == "" {
					addr = a.cfg.App.Addr()
				}

				server := fiber.New(fiber.Config{
					AppName:               a.cfg.App.Name,
					DisableStartupMessage: true,
				})
				httptransport.RegisterMiddlewares(server, a.logger, a.metrics, a.cfg.App.RequestTimeout())

				deps := []handlers.Dependency{{Name: "store:" + a.backend.Driver, Pinger: a.backend}}
				if a.redis != nil {
					deps = append(deps, handlers.Dependency{Name: "redis", Pinger: a.redis})
				}
				httptransport.RegisterRoutes(server, httptransport.RouteConfig{
					Health:  handlers.NewHealthHandler(a.cfg.App.Name, a.cfg.App.Version, deps...),
					Metrics: handlers.NewMetricsHandler(a.metrics.Registry),
				})

				errCh := make(chan error, 1)
				go func() {
					a.logger.Info("ops server listening", zap.String("addr", addr))
					errCh <- server.Listen(addr)
				}()

				select {
				case err := <-errCh:
					return err
				case sig := <-shutdownSignal():
					a.logger.Info("shutting down", zap.String("signal", sig.String()))
				}
				return server.Shutdown()
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to APP_HOST:APP_PORT)")
	return cmd
}

func shutdownSignal() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations to the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := observability.NewLogger(cfg.Logger)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			backend, err := persistence.OpenStore(cmd.Context(), *cfg, true, logger)
			if err != nil {
				return fmt.Errorf("migrate %s store: %w", cfg.Store.Driver, err)
			}
			defer backend.Close()
			logger.Info("migrations applied", zap.String("store", backend.Driver))
			return nil
		},
	}
}
