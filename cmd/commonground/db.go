package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/Ryan-Har/commonground/database"
	"github.com/Ryan-Har/commonground/pkg/config"
)

// databases holds whichever handle the configured driver needs. sqlDB is
// set for both drivers so migrations can run through database/sql.
type databases struct {
	driver string
	sqlDB  *sql.DB
	pool   *pgxpool.Pool
}

func openDatabases(ctx context.Context, cfg *config.Config) (*databases, error) {
	switch cfg.DatabaseDriver {
	case config.DriverSqlite:
		db, err := sql.Open("sqlite3", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite database: %w", err)
		}
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
		return &databases{driver: database.DriverSqlite, sqlDB: db}, nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres pool: %w", err)
		}
		return &databases{driver: database.DriverPostgres, pool: pool, sqlDB: stdlib.OpenDBFromPool(pool)}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}

func (d *databases) Close() {
	if d.sqlDB != nil {
		d.sqlDB.Close()
	}
	if d.pool != nil {
		d.pool.Close()
	}
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}
