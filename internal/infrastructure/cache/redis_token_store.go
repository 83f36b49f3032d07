package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// stringStore is the part of redis.Cmdable the token store needs
type stringStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisTokenStore shares access tokens between instances through Redis.
// Expiry is delegated to the key TTL.
type RedisTokenStore struct {
	client    stringStore
	keyPrefix string
}

// NewRedisClient connects to Redis and checks the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisTokenStore creates a token store on an existing client
func NewRedisTokenStore(client redis.Cmdable, keyPrefix string) *RedisTokenStore {
	if keyPrefix == "" {
		keyPrefix = "gateway:"
	}
	return &RedisTokenStore{client: client, keyPrefix: keyPrefix}
}

// Get returns the cached token, or ok=false when the key is absent
func (s *RedisTokenStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read token: %w", err)
	}
	return val, val != "", nil
}

// Set stores a token with ttl as the key expiry
func (s *RedisTokenStore) Set(ctx context.Context, key, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}
