package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"tipsheet/internal/platform/config"
)

// Connect opens the pool used for advisory locks. No application data is
// stored in Postgres. Each outermost held lock pins one connection, so
// LOCK_POOL_SIZE bounds the number of concurrent lock holders per instance.
func Connect(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConns = int32(cfg.LockPoolSize)
	poolCfg.MinConns = 2
	return pgxpool.NewWithConfig(ctx, poolCfg)
}

func Ping(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return pool.Ping(ctx)
}
