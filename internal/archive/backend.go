package archive

import (
	"context"
	"fmt"
	"log/slog"

	"car-cost-estimator/internal/config"
	"car-cost-estimator/internal/database"
)

// OpenStore connects the storage backend selected by cfg.Archive.Backend.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.Archive.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil

	case config.BackendFile:
		logger.Info("using file archive", "path", cfg.Archive.Path)
		return NewFileStore(cfg.Archive.Path), nil

	case config.BackendRedis:
		logger.Info("connecting to redis", "addr", cfg.Redis.Addr)
		store := NewRedisStore(cfg.Redis.Addr, cfg.Archive.Key)
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil

	case config.BackendPostgres:
		logger.Info("connecting to database", "host", cfg.Database.Host, "database", cfg.Database.Name)
		pool, err := database.Connect(ctx, database.ConnectionConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Name,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return NewPostgresStore(pool, cfg.Archive.Key), nil

	case config.BackendSQLite:
		logger.Info("using sqlite archive", "path", cfg.Archive.SQLitePath)
		return OpenSQLiteStore(ctx, cfg.Archive.SQLitePath, cfg.Archive.Key)
	}
	return nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
}
