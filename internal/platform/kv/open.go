package kv

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"leaveportal/internal/platform/config"
	"leaveportal/internal/platform/db"
)

// Open builds the store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return NewMemory(), nil
	case config.StoreSQLite:
		store, err := OpenSQLite(ctx, cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("opened sqlite store", zap.String("path", cfg.StorePath))
		return store, nil
	case config.StorePostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Migrate(ctx, pool, os.DirFS(cfg.MigrationsDir)); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		logger.Info("connected to postgres store")
		return NewPostgres(pool), nil
	case config.StoreRedis:
		store := NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.Info("connected to redis store", zap.String("addr", cfg.RedisAddr))
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
