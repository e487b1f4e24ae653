package persist

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/material-ledger/internal/config"
)

// Open creates the KV backend selected by cfg.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (KV, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		logger.Warn("using in-memory storage, ledger state will not survive a restart")
		return NewMemoryKV(), nil
	case config.BackendFile:
		kv, err := NewFileKV(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		logger.Info("storage opened", zap.String("backend", cfg.Backend), zap.String("path", cfg.FilePath))
		return kv, nil
	case config.BackendRedis:
		kv, err := NewRedisKV(ctx, RedisOptions{
			URL:      cfg.RedisURL,
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("storage opened", zap.String("backend", cfg.Backend), zap.Int("db", cfg.RedisDB))
		return kv, nil
	case config.BackendSQLite, config.BackendPostgres:
		kv, err := OpenSQL(cfg.Backend, cfg.DSN)
		if err != nil {
			return nil, err
		}
		logger.Info("storage opened", zap.String("backend", cfg.Backend))
		return kv, nil
	default:
		return nil, fmt.Errorf("open storage: %w", config.ErrInvalidStorageBackend)
	}
}
