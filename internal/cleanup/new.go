package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"shopper/internal/config"
	"shopper/internal/metrics"
)

// New picks the Redis queue when an address is configured and the
// in-process one otherwise. The returned close func releases the Redis
// connection and is never nil.
func New(ctx context.Context, cfg config.CleanupConfig, del Deleter, log *slog.Logger, m *metrics.Metrics) (Queue, func() error, error) {
	opts := OptionsFrom(cfg)
	if cfg.RedisAddr == "" {
		return NewMemory(del, opts, log, m), func() error { return nil }, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("cleanup: connecting to redis at %s: %w", cfg.RedisAddr, err)
	}
	log.Info("image cleanup queue on redis", slog.String("addr", cfg.RedisAddr), slog.String("key", cfg.QueueKey))
	return NewRedis(rdb, cfg.QueueKey, del, opts, log, m), rdb.Close, nil
}
