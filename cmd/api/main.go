package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/karsaku/session-gate/internal/api/http"
	"github.com/karsaku/session-gate/internal/api/http/handlers"
	"github.com/karsaku/session-gate/internal/backend"
	"github.com/karsaku/session-gate/internal/config"
	"github.com/karsaku/session-gate/internal/events"
	"github.com/karsaku/session-gate/internal/observability"
	"github.com/karsaku/session-gate/internal/securestore"
	"github.com/karsaku/session-gate/internal/service"
	"github.com/karsaku/session-gate/internal/session"
	"github.com/karsaku/session-gate/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := securestore.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open secret store", zap.Error(err))
	}
	defer store.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, metrics, logger))

	manager := session.NewManager(store.Store, session.Options{
		SplashMin: cfg.Session.SplashMin(),
		Logger:    logger,
		Events:    dispatcher,
	})
	// Bootstrap runs in the background so GET /session reports BOOTSTRAPPING meanwhile.
	go manager.Bootstrap(ctx)

	client := backend.NewClient(cfg.Backend, logger)
	sessions := service.NewSessionService(client, manager, logger)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, manager, store.Store, store.Ping, metrics),
		Session: handlers.NewSessionHandler(sessions),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
