package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectOptions - параметры повторных попыток подключения.
type ConnectOptions struct {
	MaxRetries int
	RetryDelay time.Duration
}

func (o ConnectOptions) normalized() ConnectOptions {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 1
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 3 * time.Second
	}
	return o
}

// ConnectPostgres initializes the PostgreSQL connection pool with retry logic.
func ConnectPostgres(ctx context.Context, dsn string, maxConns int, idleTimeout time.Duration, opts ConnectOptions, logger *zap.Logger) (*pgxpool.Pool, error) {
	opts = opts.normalized()
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres config: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = int32(maxConns)
	}
	if idleTimeout > 0 {
		poolConfig.MaxConnIdleTime = idleTimeout
	}

	logger.Info("Attempting to connect to PostgreSQL", zap.Int("max_retries", opts.MaxRetries), zap.Duration("retry_delay", opts.RetryDelay))

	var lastErr error
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
		if err == nil {
			err = pool.Ping(connectCtx)
			if err != nil {
				pool.Close()
			}
		}
		cancel()

		if err == nil {
			logger.Info("Successfully connected and pinged PostgreSQL", zap.Int("attempt", attempt))
			return pool, nil
		}

		lastErr = err
		logger.Warn("Postgres connection failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		if attempt < opts.MaxRetries {
			if err := sleepCtx(ctx, opts.RetryDelay); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", opts.MaxRetries, lastErr)
}

// ConnectRedis initializes the Redis client with retry logic.
func ConnectRedis(ctx context.Context, redisOpts *redis.Options, opts ConnectOptions, logger *zap.Logger) (*redis.Client, error) {
	opts = opts.normalized()
	logger.Info("Attempting to connect and ping Redis",
		zap.String("address", redisOpts.Addr),
		zap.Int("db", redisOpts.DB),
		zap.Int("max_retries", opts.MaxRetries),
	)

	var lastErr error
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		client := redis.NewClient(redisOpts)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()

		if err == nil {
			logger.Info("Successfully connected and pinged Redis", zap.Int("attempt", attempt))
			return client, nil
		}

		client.Close()
		lastErr = err
		logger.Warn("Redis ping failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		if attempt < opts.MaxRetries {
			if err := sleepCtx(ctx, opts.RetryDelay); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", opts.MaxRetries, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
