package cache

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// TokenStore is what the factory hands out. It matches payment.TokenStore.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, token string, ttl time.Duration) error
}

// TokenStoreFactory creates token stores based on configuration
type TokenStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	connect               func(ctx context.Context, cfg config.RedisConfig) (TokenStore, io.Closer, error)
}

// TokenStoreFactoryOption is a functional option for configuring the factory
type TokenStoreFactoryOption func(*TokenStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) TokenStoreFactoryOption {
	return func(f *TokenStoreFactory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory store. Default is true.
func WithInMemoryFallback(allow bool) TokenStoreFactoryOption {
	return func(f *TokenStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewTokenStoreFactory creates a new factory
func NewTokenStoreFactory(cfg config.RedisConfig, opts ...TokenStoreFactoryOption) *TokenStoreFactory {
	f := &TokenStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		connect:               connectRedis,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (TokenStore, io.Closer, error) {
	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return NewRedisTokenStore(client, ""), client, nil
}

// CreateStore returns a Redis store when Redis is enabled and reachable,
// otherwise an in-memory store. The closer is nil for the in-memory store.
func (f *TokenStoreFactory) CreateStore(ctx context.Context) (TokenStore, io.Closer, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Using in-memory gateway token store")
		return NewMemoryTokenStore(), nil, nil
	}

	store, closer, err := f.connect(ctx, f.redisConfig)
	if err == nil {
		f.logger.Info("Using Redis gateway token store", zap.String("addr", f.redisConfig.Addr()))
		return store, closer, nil
	}

	if !f.allowInMemoryFallback {
		return nil, nil, fmt.Errorf("redis required for token store but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory token store; "+
		"each instance will fetch its own gateway token",
		zap.Error(err))
	return NewMemoryTokenStore(), nil, nil
}
