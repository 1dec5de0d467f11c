package store

import (
	"context"
	"fmt"
	"time"

	"reattach/core/storage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// New builds the backend selected by cfg. objects and bucket are only used by the minio backend.
func New(ctx context.Context, cfg Config, objects storage.Client, bucket string, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := time.Duration(cfg.TTLSeconds) * time.Second

	switch cfg.Backend {
	case "memory", "":
		logger.Info("Using in-memory descriptor store", zap.Duration("ttl", ttl))
		return NewMemoryStore(ttl), nil
	case "minio":
		if objects == nil {
			return nil, fmt.Errorf("minio descriptor store needs a storage client")
		}
		s, err := NewMinioStore(ctx, objects, bucket, cfg.Prefix)
		if err != nil {
			return nil, err
		}
		logger.Info("Using minio descriptor store", zap.String("bucket", bucket), zap.String("prefix", cfg.Prefix))
		return s, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("Using redis descriptor store", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", ttl))
		return NewRedisStore(client, cfg.Prefix, ttl), nil
	default:
		return nil, fmt.Errorf("unknown descriptor store backend: %s", cfg.Backend)
	}
}
