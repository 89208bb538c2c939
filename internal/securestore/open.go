package securestore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/karsaku/session-gate/internal/config"
	"github.com/karsaku/session-gate/internal/persistence"
)

// Handle is an opened Store plus what it needs for health checks and shutdown.
type Handle struct {
	Store Store
	// Ping probes the backend; nil for backends with nothing to probe.
	Ping  func(context.Context) error
	close func()
}

// Close releases backend resources.
func (h *Handle) Close() {
	if h != nil && h.close != nil {
		h.close()
	}
}

// Open builds the configured backend and wraps it with the session store timeout.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Handle, error) {
	h := &Handle{close: func() {}}

	switch cfg.SecretStore.Backend {
	case config.StoreBackendMemory:
		logger.Warn("using in-memory secret store; sessions will not survive restart")
		h.Store = NewMemory()
	case config.StoreBackendFile:
		store, err := NewFile(cfg.SecretStore.FilePath, cfg.SecretStore.Passphrase)
		if err != nil {
			return nil, err
		}
		h.Store = store
	case config.StoreBackendSQLite:
		store, err := OpenSQLite(cfg.SecretStore.SQLitePath)
		if err != nil {
			return nil, err
		}
		h.Store = store
		h.Ping = store.db.PingContext
		h.close = func() { _ = store.Close() }
	case config.StoreBackendRedis:
		rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
		h.Store = NewRedis(rdb.Client, cfg.SecretStore.Namespace)
		h.Ping = rdb.Ping
		h.close = rdb.Close
	case config.StoreBackendPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		h.Store = NewPostgres(pg.Pool, cfg.SecretStore.Namespace)
		h.Ping = pg.Ping
		h.close = pg.Close
	default:
		return nil, fmt.Errorf("unknown secret store backend %q", cfg.SecretStore.Backend)
	}

	h.Store = WithTimeout(h.Store, cfg.Session.StoreTimeout())
	logger.Info("secret store ready", zap.String("backend", cfg.SecretStore.Backend))
	return h, nil
}
