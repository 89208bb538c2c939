package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/karsaku/session-gate/internal/config"
	"github.com/karsaku/session-gate/internal/devbackend"
	"github.com/karsaku/session-gate/internal/observability"
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

	seeds, err := devbackend.ParseSeed(cfg.DevBackend.Seed)
	if err != nil {
		logger.Fatal("invalid DEVBACKEND_SEED", zap.Error(err))
	}

	srv := devbackend.NewServer(cfg.Auth, logger)
	for _, seed := range seeds {
		if _, err := srv.AddAccount(seed); err != nil {
			logger.Fatal("failed to seed account", zap.String("login", seed.Login), zap.Error(err))
		}
	}

	go func() {
		logger.Info("dev backend listening", zap.String("addr", cfg.DevBackend.Addr()))
		if err := srv.Listen(cfg.DevBackend.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	_ = srv.Shutdown()
}
