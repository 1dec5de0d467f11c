package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reattach/core/bridge"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps descriptors under "<prefix>:<token>" with an expiry.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store over client. A zero ttl keeps keys until deleted.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(token string) string {
	return s.prefix + ":" + token
}

func (s *RedisStore) Put(ctx context.Context, d *bridge.CollectionDescriptor) (string, error) {
	data, err := encode(d)
	if err != nil {
		return "", err
	}
	token := newToken()
	if err := s.client.Set(ctx, s.key(token), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("storing descriptor: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (*bridge.CollectionDescriptor, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading descriptor: %w", err)
	}
	return decode(data)
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := checkToken(token); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("deleting descriptor: %w", err)
	}
	return nil
}
