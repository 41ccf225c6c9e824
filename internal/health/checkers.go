// Package health provides health check implementations for external dependencies.
package health

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// DBChecker pings the Postgres pool.
type DBChecker struct {
	pool *pgxpool.Pool
}

func NewDBChecker(pool *pgxpool.Pool) *DBChecker {
	return &DBChecker{pool: pool}
}

func (d *DBChecker) HealthCheck(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// RedisChecker sends PING to Redis.
type RedisChecker struct {
	client *redis.Client
}

func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (r *RedisChecker) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
