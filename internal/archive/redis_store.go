package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the document under one redis key.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(addr, key string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return NewRedisStoreWithClient(rdb, key)
}

// NewRedisStoreWithClient wraps an existing client; Close closes it.
func NewRedisStoreWithClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{
		client: client,
		key:    key,
	}
}

// Ping checks the connection at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s: %w", s.key, err)
	}
	return val, nil
}

func (s *RedisStore) Save(ctx context.Context, document []byte) error {
	if err := s.client.Set(ctx, s.key, document, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
