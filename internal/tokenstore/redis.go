package tokenstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCmdable is the subset of the redis client the store uses
type redisCmdable interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps the token under a single well-known key in Redis.
type RedisStore struct {
	client redisCmdable
	key    string
}

// NewRedisStore creates a new Redis-backed token store
func NewRedisStore(addr, password string, db int, key string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return newRedisStore(client, key)
}

func newRedisStore(client redisCmdable, key string) *RedisStore {
	if key == "" {
		key = "petpal:token"
	}
	return &RedisStore{client: client, key: key}
}

// Set stores the token without expiry; expiry is a property of the token
func (s *RedisStore) Set(ctx context.Context, token string) error {
	return s.client.Set(ctx, s.key, token, 0).Err()
}

// Get retrieves the token
func (s *RedisStore) Get(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// Clear removes the key
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
