package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/fleet-tracker/internal/common"
	repo "github.com/joseph-ayodele/fleet-tracker/internal/repository"
)

// ConnectDB opens the pool and, when cfg.AutoMigrate is set, applies the schema.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := repo.Open(ctx, repo.ConfigFrom(cfg), logger)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := repo.Migrate(ctx, pool, logger); err != nil {
			repo.Close(pool, logger)
			return nil, err
		}
	}
	return pool, nil
}

// PingDB pings the database to ensure it's responsive
func PingDB(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger, timeout time.Duration) error {
	return repo.HealthCheck(ctx, pool, timeout, logger)
}

// CloseDB closes the database connections gracefully
func CloseDB(pool *pgxpool.Pool, logger *slog.Logger) {
	repo.Close(pool, logger)
}
